package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"trendscope/internal/app"
	"trendscope/internal/scraper"
)

// probeCommand returns the "probe" CLI subcommand.
func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Diagnose what the first target page exposes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			report, err := scraper.New(cfg).Probe(ctx)
			if err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

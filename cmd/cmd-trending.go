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

// trendingCommand returns the "trending" CLI subcommand.
func trendingCommand() *cli.Command {
	var limit int

	return &cli.Command{
		Name:  "trending",
		Usage: "Run one scrape pass and print the ranked result as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "Maximum number of videos to return",
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			n := limit
			if n <= 0 {
				n = cfg.Server.DefaultLimit
			}

			result, err := scraper.New(cfg).Trending(ctx, n)
			if err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

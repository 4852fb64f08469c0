package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"trendscope/internal/app"
	"trendscope/internal/scraper"
	"trendscope/internal/server"
)

// serveCommand returns the "serve" CLI subcommand.
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the trending HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}

			return server.New(cfg, scraper.New(cfg)).Run(ctx)
		},
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"trendscope/cmd"
)

func main() {
	// The flag has to take effect before the CLI parses anything, so debug
	// logs from config loading are not lost.
	if slices.Contains(os.Args, "--debug") {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		slog.SetDefault(slog.New(handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Root().Run(ctx, os.Args); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			slog.Info("stopped", "cause", cause)
			return
		}
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"log/slog"
	"os"

	"pulpit/internal/cli"
	"pulpit/internal/logger"
)

func main() {
	// Structured JSON logs with correlation IDs pulled from context.
	h := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(h))

	if err := cli.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(cli.ExitGenericError)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"

	"pricescope/internal/app"
	"pricescope/internal/infrastructure"
)

func main() {
	os.Exit(run(context.Background(), app.NewApplication, infrastructure.CloseLogFile))
}

// run starts the server and returns the process exit code. closeLog runs on
// every path, including startup failures.
func run(ctx context.Context, start func(context.Context) (*app.Application, error), closeLog func() error) int {
	defer closeLog()

	application, err := start(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		return 1
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

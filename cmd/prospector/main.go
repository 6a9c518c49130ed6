package main

import (
	"context"
	"os"

	"prospector/internal/app"
	"prospector/internal/config"
	"prospector/internal/logging"
)

const defaultRunLimit = 50

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx, defaultRunLimit); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

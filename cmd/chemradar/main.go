package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"chemradar/internal/app"
	"chemradar/internal/config"
	"chemradar/internal/logging"
)

func main() {
	ctx := context.Background()

	// .env is optional; deployed runs use real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("daily radar stopped", "error", err)
		os.Exit(1)
	}
}

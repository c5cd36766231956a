package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	clts "arbdash/clients"
	"arbdash/config"
	"arbdash/internal/app"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Optional .env for local development
	_ = godotenv.Load()

	// Load config from environment variables
	cfg := config.Load()
	if result := cfg.Validate(); !result.Valid {
		for _, verr := range result.Errors {
			logger.Error("invalid config",
				zap.String("field", verr.Field),
				zap.String("message", verr.Message))
		}
		logger.Fatal("configuration invalid")
	}

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}

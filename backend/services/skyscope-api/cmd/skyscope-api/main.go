package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"skyscope/backend/libs/logging"
	"skyscope/backend/services/skyscope-api/internal/app"
	"skyscope/backend/services/skyscope-api/internal/config"
	"skyscope/backend/services/skyscope-api/internal/secret"
)

func main() {
	// "skyscope-api hash-key <key>" prints a value for REGISTRATION_KEY_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-key" {
		hash, err := secret.HashKey(os.Args[2], 0)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("skyscope-api")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}

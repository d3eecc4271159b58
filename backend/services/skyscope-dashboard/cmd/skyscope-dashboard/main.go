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
	"skyscope/backend/services/skyscope-dashboard/internal/client"
	"skyscope/backend/services/skyscope-dashboard/internal/config"
)

const usage = `usage: skyscope-dashboard <command> [flags]

commands:
  status   show online/offline state of every sensor
  chart    print the pivoted chart series for a time window`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.NewCLILogger("skyscope-dashboard")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	api := client.New(cfg.API.URL, cfg.Timeout())

	switch os.Args[1] {
	case "status":
		err = runStatus(ctx, api, os.Args[2:], os.Stdout)
	case "chart":
		err = runChart(ctx, api, cfg, logger, os.Args[2:], os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

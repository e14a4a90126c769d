package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperboy-hq/paperboy/internal/app"
	"github.com/paperboy-hq/paperboy/internal/config"
	"github.com/paperboy-hq/paperboy/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "digest failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dryRun := flag.Bool("dry-run", false, "summarize without delivering or recording anything")
	schedule := flag.String("schedule", "", "cron expression for repeated passes, overrides config")
	flag.Parse()

	cfg, err := config.Load("digest")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	log.InfoObj("digest starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	digest, err := app.NewDigest(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize digest", "error", err.Error())
		return err
	}
	defer digest.Close()

	if err := digest.Run(ctx); err != nil {
		return fmt.Errorf("digest run: %w", err)
	}

	return nil
}

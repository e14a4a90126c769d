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
		fmt.Fprintf(os.Stderr, "importer failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dryRun := flag.Bool("dry-run", false, "summarize without delivering or recording anything")
	itemID := flag.String("item", "", "process a single document by id instead of a batch")
	flag.Parse()

	cfg, err := config.Load("importer")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *itemID != "" {
		cfg.ItemID = *itemID
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	log.InfoObj("importer starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer, err := app.NewImporter(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize importer", "error", err.Error())
		return err
	}
	defer importer.Close()

	if err := importer.Run(ctx); err != nil {
		return fmt.Errorf("importer run: %w", err)
	}

	return nil
}

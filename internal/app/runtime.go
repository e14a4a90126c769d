package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paperboy-hq/paperboy/internal/config"
	"github.com/paperboy-hq/paperboy/internal/logger"
	"github.com/paperboy-hq/paperboy/internal/pipeline"
	"github.com/paperboy-hq/paperboy/internal/scraper"
	"github.com/paperboy-hq/paperboy/internal/state"
	"github.com/paperboy-hq/paperboy/pkg/enricher"
	"github.com/paperboy-hq/paperboy/pkg/httpclient"
	"github.com/paperboy-hq/paperboy/pkg/publishers"
	"github.com/paperboy-hq/paperboy/pkg/sources"
)

const httpTimeout = 30 * time.Second

// runtime holds the wired pipeline shared by both binaries. runMu
// keeps the state store single-writer when passes are triggered from a
// scheduler.
type runtime struct {
	cfg      *config.Config
	pipeline *pipeline.Service
	store    state.Store
	fanout   *publishers.Fanout
	log      logger.Logger
	runMu    sync.Mutex
}

// newRuntime builds the fetch, enrich, deliver, and state components
// from config files and wires them into a pipeline service.
func newRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	log.InfoObj("sources registry loaded", "sources", sourceReg.All())

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	var fanout *publishers.Fanout
	if cfg.DryRun {
		log.InfoObj("dry run, skipping publisher construction", "publishers_file", cfg.PublishersFile)
	} else {
		enabled := publisherReg.Enabled()
		if len(enabled) == 0 {
			return nil, fmt.Errorf("no publishers configured")
		}
		built, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
		if err != nil {
			return nil, fmt.Errorf("build publishers: %w", err)
		}
		fanout = publishers.NewFanout(built)
		log.InfoObj("publishers registry loaded", "publishers", enabled)
	}

	store, err := state.NewStore(cfg.StateType, state.Options{Path: cfg.StatePath, DSN: cfg.StateDSN})
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	log.InfoObj("state store opened", "state_meta", map[string]any{
		"type":     cfg.StateType,
		"known":    store.Len(),
		"last_run": store.LastRun(),
	})

	client := httpclient.NewRestyClient(httpTimeout)

	gemini := enricher.NewGeminiClient(client, cfg.GeminiEndpoint, cfg.GeminiModel, cfg.GeminiAPIKey)
	enrich := enricher.New(gemini, scraper.New(client), cfg.GeminiModel, log)

	fetcher := sources.NewBatchFetcher(
		sourceReg,
		sources.DefaultFetcherRegistry(client),
		sources.BatchFetcherOptions{
			Lookback:  cfg.Lookback,
			Interests: sourceReg.Interests(),
			MaxItems:  cfg.MaxItems,
		},
		log,
	)

	var delivery pipeline.Deliverer
	if fanout != nil {
		delivery = fanout
	}

	svc := pipeline.New(fetcher, enrich, delivery, store, log, pipeline.Options{
		DryRun:       cfg.DryRun,
		ItemID:       cfg.ItemID,
		FlushPerItem: cfg.StateFlush == config.FlushPerItem,
	})

	return &runtime{
		cfg:      cfg,
		pipeline: svc,
		store:    store,
		fanout:   fanout,
		log:      log,
	}, nil
}

func (r *runtime) runOnce(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	report, err := r.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	r.log.InfoObj("run completed", "run_report", map[string]any{
		"fetched":    report.Fetched,
		"novel":      report.Novel,
		"succeeded":  report.Succeeded,
		"failed":     report.Failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	for _, failure := range report.Failures {
		r.log.WarnObj("document failed", "failure", failure)
	}
	return nil
}

func (r *runtime) close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

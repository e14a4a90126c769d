package pipeline

import (
	"context"
	"fmt"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/internal/logger"
	"github.com/paperboy-hq/paperboy/internal/state"
	"github.com/paperboy-hq/paperboy/pkg/publishers"
)

// Options controls one run of the pipeline.
type Options struct {
	// DryRun summarizes every novel document but never delivers and
	// never marks anything processed, so a later real run picks the
	// same documents up again.
	DryRun bool
	// ItemID switches the run to single-item mode, bypassing the bulk
	// fetch.
	ItemID string
	// FlushPerItem persists the identifier store after every processed
	// document instead of once at the end of the batch. With per-item
	// flushing a crash after item k leaves exactly items 1..k marked.
	FlushPerItem bool
}

// Service drives one import run: fetch candidates, drop the ones
// already processed, then summarize and deliver the rest one at a time,
// marking each successful document in the identifier store.
type Service struct {
	fetcher  Fetcher
	enricher Enricher
	delivery Deliverer
	store    state.Store
	log      logger.Logger
	opts     Options
}

// New wires a pipeline service.
func New(fetcher Fetcher, enricher Enricher, delivery Deliverer, store state.Store, log logger.Logger, opts Options) *Service {
	return &Service{
		fetcher:  fetcher,
		enricher: enricher,
		delivery: delivery,
		store:    store,
		log:      logger.Ensure(log),
		opts:     opts,
	}
}

// Run executes one pass. Only configuration, fetch, and state-save
// failures return an error; enrichment and delivery failures are
// isolated per document, recorded in the report, and leave the document
// unmarked so the next run retries it.
func (s *Service) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{}

	if s == nil || s.fetcher == nil || s.enricher == nil || s.store == nil {
		return report, fmt.Errorf("pipeline service is not initialized")
	}
	if !s.opts.DryRun && s.delivery == nil {
		return report, fmt.Errorf("pipeline has no delivery configured")
	}

	docs, err := s.fetch(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch candidates: %w", err)
	}
	report.Fetched = len(docs)

	fresh := filterNew(docs, s.store)
	report.Novel = len(fresh)
	if len(fresh) == 0 {
		s.log.InfoObj("no novel documents", "run_meta", map[string]any{
			"fetched": report.Fetched,
		})
		return report, nil
	}

	for _, doc := range fresh {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if err := s.processOne(ctx, doc); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.Failure{
				DocumentID: doc.ID,
				Reason:     err.Error(),
			})
			s.log.WarnObj("document processing failed", "item_error", map[string]any{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
			continue
		}

		if !s.opts.DryRun {
			s.store.Mark(doc.ID)
			if s.opts.FlushPerItem {
				if err := s.store.Save(); err != nil {
					return report, fmt.Errorf("persist state after %s: %w", doc.ID, err)
				}
			}
		}
		report.Succeeded++
	}

	if !s.opts.DryRun && !s.opts.FlushPerItem && report.Succeeded > 0 {
		if err := s.store.Save(); err != nil {
			return report, fmt.Errorf("persist state: %w", err)
		}
	}

	return report, nil
}

func (s *Service) fetch(ctx context.Context) ([]domain.Document, error) {
	if s.opts.ItemID != "" {
		doc, err := s.fetcher.FetchOne(ctx, s.opts.ItemID)
		if err != nil {
			return nil, err
		}
		return []domain.Document{doc}, nil
	}
	return s.fetcher.FetchBatch(ctx)
}

func (s *Service) processOne(ctx context.Context, doc domain.Document) error {
	summary, err := s.enricher.Enrich(ctx, doc)
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	if s.opts.DryRun {
		s.log.InfoObj("dry run, delivery skipped", "item_meta", map[string]any{
			"document_id": doc.ID,
			"synopsis":    summary.Synopsis,
		})
		return nil
	}

	receipts, err := s.delivery.Publish(ctx, publishers.NewEvent(doc, summary))
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	s.log.InfoObj("document delivered", "item_meta", map[string]any{
		"document_id": doc.ID,
		"receipts":    receipts,
	})
	return nil
}

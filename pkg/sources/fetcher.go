package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/internal/logger"
	"github.com/paperboy-hq/paperboy/pkg/httpclient"
)

// TypeRegistry maps source types to their fetcher implementations.
type TypeRegistry struct {
	fetchers map[string]Fetcher
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{fetchers: make(map[string]Fetcher)}
}

// Register wires a fetcher for its declared type, replacing any previous one.
func (r *TypeRegistry) Register(f Fetcher) {
	if f == nil {
		return
	}
	typ := strings.ToLower(strings.TrimSpace(f.Type()))
	if typ == "" {
		return
	}
	r.fetchers[typ] = f
}

func (r *TypeRegistry) FetcherFor(src Source) (Fetcher, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.fetchers[src.Type]
	return f, ok
}

// DefaultFetcherRegistry wires the built-in rss and arxiv fetchers.
func DefaultFetcherRegistry(client httpclient.Client) *TypeRegistry {
	reg := NewTypeRegistry()
	reg.Register(NewRSSFetcher(client))
	reg.Register(NewArxivFetcher(client))
	return reg
}

// BatchFetcherOptions tune how candidates are collected across sources.
type BatchFetcherOptions struct {
	// Lookback bounds how far back published dates may reach.
	Lookback time.Duration
	// Interests keeps only documents matching at least one keyword.
	// Empty means keep everything.
	Interests []string
	// MaxItems caps the batch after sorting, zero means unlimited.
	MaxItems int
}

// BatchFetcher aggregates documents across all registered sources.
type BatchFetcher struct {
	registry *Registry
	fetchers FetcherRegistry
	opts     BatchFetcherOptions
	log      logger.Logger
	now      func() time.Time
}

func NewBatchFetcher(registry *Registry, fetchers FetcherRegistry, opts BatchFetcherOptions, log logger.Logger) *BatchFetcher {
	return &BatchFetcher{
		registry: registry,
		fetchers: fetchers,
		opts:     opts,
		log:      logger.Ensure(log),
		now:      time.Now,
	}
}

// FetchBatch collects candidates from every source, tolerating individual
// source failures as long as at least one source produced documents.
func (b *BatchFetcher) FetchBatch(ctx context.Context) ([]domain.Document, error) {
	if b.registry == nil {
		return nil, errors.New("source registry is not configured")
	}

	cutoff := time.Time{}
	if b.opts.Lookback > 0 {
		cutoff = b.now().Add(-b.opts.Lookback)
	}

	var (
		docs    []domain.Document
		errs    []error
		seenIDs = make(map[string]struct{})
	)

	for _, src := range b.registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetcher, ok := b.fetchers.FetcherFor(src)
		if !ok {
			errs = append(errs, fmt.Errorf("source %q: no fetcher for type %q", src.ID, src.Type))
			b.log.WarnObj("source has no fetcher", "source_error", map[string]any{
				"source_id":   src.ID,
				"source_type": src.Type,
			})
			continue
		}

		fetched, err := fetcher.Fetch(ctx, src, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", src.ID, err))
			b.log.WarnObj("source fetch failed", "source_error", map[string]any{
				"source_id": src.ID,
				"error":     err.Error(),
			})
			continue
		}

		for _, doc := range fetched {
			if doc.ID == "" {
				continue
			}
			if _, dup := seenIDs[doc.ID]; dup {
				continue
			}
			if !b.matchesInterests(doc) {
				continue
			}
			seenIDs[doc.ID] = struct{}{}
			docs = append(docs, doc)
		}
	}

	if len(docs) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].PublishedAt.After(docs[j].PublishedAt)
	})

	if b.opts.MaxItems > 0 && len(docs) > b.opts.MaxItems {
		docs = docs[:b.opts.MaxItems]
	}

	return docs, nil
}

// FetchOne resolves a single document by id via the first registered
// fetcher that supports direct lookup.
func (b *BatchFetcher) FetchOne(ctx context.Context, id string) (domain.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Document{}, errors.New("document id is empty")
	}

	for _, src := range b.registry.All() {
		fetcher, ok := b.fetchers.FetcherFor(src)
		if !ok {
			continue
		}
		item, ok := fetcher.(ItemFetcher)
		if !ok {
			continue
		}

		doc, err := item.FetchOne(ctx, id)
		if err != nil {
			return domain.Document{}, fmt.Errorf("fetch %q: %w", id, err)
		}
		if doc.SourceID == "" {
			doc.SourceID = src.ID
			doc.SourceName = src.Name
		}
		return doc, nil
	}

	return domain.Document{}, fmt.Errorf("no source supports direct lookup for %q", id)
}

func (b *BatchFetcher) matchesInterests(doc domain.Document) bool {
	if len(b.opts.Interests) == 0 {
		return true
	}

	haystack := strings.ToLower(doc.Title + " " + doc.Content)
	for _, kw := range b.opts.Interests {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

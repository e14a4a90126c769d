package sources

import (
	"context"
	"time"

	"github.com/paperboy-hq/paperboy/internal/domain"
)

// Fetcher pulls candidate documents from a single configured source.
type Fetcher interface {
	// Type reports the source type this fetcher handles.
	Type() string
	// Fetch returns documents published at or after cutoff.
	Fetch(ctx context.Context, src Source, cutoff time.Time) ([]domain.Document, error)
}

// ItemFetcher resolves one document directly by its identifier.
type ItemFetcher interface {
	FetchOne(ctx context.Context, id string) (domain.Document, error)
}

// FetcherRegistry resolves the fetcher for a source entry.
type FetcherRegistry interface {
	FetcherFor(src Source) (Fetcher, bool)
}

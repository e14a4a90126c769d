package pipeline

import (
	"context"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/pkg/publishers"
)

// Fetcher obtains candidate documents for a run.
type Fetcher interface {
	// FetchBatch returns the candidates for a bulk run, in stable
	// fetch order. An error is fatal to the run.
	FetchBatch(ctx context.Context) ([]domain.Document, error)
	// FetchOne resolves a single explicitly named document, bypassing
	// the bulk query.
	FetchOne(ctx context.Context, id string) (domain.Document, error)
}

// Enricher summarizes a single document. Implementations return a
// degraded fallback summary for malformed model output and error only
// on transport failure.
type Enricher interface {
	Enrich(ctx context.Context, doc domain.Document) (domain.Summary, error)
}

// Deliverer sends one processed document downstream and returns
// receipts of what was created.
type Deliverer interface {
	Publish(ctx context.Context, evt publishers.Event) ([]publishers.Receipt, error)
}

// Membership is the read side of the identifier store used by the
// novelty filter.
type Membership interface {
	Seen(id string) bool
}

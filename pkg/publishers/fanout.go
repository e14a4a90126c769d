package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every registered publisher and collects
// the receipts of the ones that succeeded. A non-nil error means at
// least one destination failed.
func (f *Fanout) Publish(ctx context.Context, evt Event) ([]Receipt, error) {
	if f == nil || len(f.publishers) == 0 {
		return nil, nil
	}

	var errs []error
	receipts := make([]Receipt, 0, len(f.publishers))
	for _, p := range f.publishers {
		ref, err := p.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		receipts = append(receipts, Receipt{PublisherID: p.ID(), Type: p.Type(), Ref: ref})
	}
	return receipts, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

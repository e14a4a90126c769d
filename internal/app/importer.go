package app

import (
	"context"
	"fmt"

	"github.com/paperboy-hq/paperboy/internal/config"
	"github.com/paperboy-hq/paperboy/internal/logger"
)

// Importer runs one import pass and exits. It is the batch entrypoint
// used for scheduled jobs and one-off backfills.
type Importer struct {
	rt *runtime
}

// NewImporter builds the importer runtime from config files.
func NewImporter(ctx context.Context, cfg *config.Config, log logger.Logger) (*Importer, error) {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Importer{rt: rt}, nil
}

// Run executes a single import pass.
func (i *Importer) Run(ctx context.Context) error {
	if i == nil || i.rt == nil {
		return fmt.Errorf("importer is not initialized")
	}
	return i.rt.runOnce(ctx)
}

// Close releases the state store.
func (i *Importer) Close() error {
	if i == nil {
		return nil
	}
	return i.rt.close()
}

package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/paperboy-hq/paperboy/internal/config"
	"github.com/paperboy-hq/paperboy/internal/logger"
)

// Digest runs the pipeline once, or on a cron schedule when one is
// configured.
type Digest struct {
	rt       *runtime
	schedule string
	log      logger.Logger
}

// NewDigest builds the digest runtime from config files.
func NewDigest(ctx context.Context, cfg *config.Config, log logger.Logger) (*Digest, error) {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Digest{rt: rt, schedule: cfg.Schedule, log: logger.Ensure(log)}, nil
}

// Run executes one pass immediately. When a schedule is configured it
// then keeps running passes on that schedule until the context ends.
func (d *Digest) Run(ctx context.Context) error {
	if d == nil || d.rt == nil {
		return fmt.Errorf("digest is not initialized")
	}

	if err := d.rt.runOnce(ctx); err != nil {
		return fmt.Errorf("initial pass: %w", err)
	}
	if d.schedule == "" {
		return nil
	}

	// A pass slower than the schedule interval must not stack a second
	// concurrent pass on the same state store.
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: d.log})))
	_, err := scheduler.AddFunc(d.schedule, func() {
		if err := d.rt.runOnce(ctx); err != nil {
			d.log.ErrorObj("scheduled pass failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", d.schedule, err)
	}

	d.log.InfoObj("digest scheduler starting", "schedule", d.schedule)
	scheduler.Start()
	<-ctx.Done()

	stop := scheduler.Stop()
	<-stop.Done()
	d.log.InfoObj("digest scheduler stopped", "reason", ctx.Err().Error())
	return nil
}

// Close releases the state store.
func (d *Digest) Close() error {
	if d == nil {
		return nil
	}
	return d.rt.close()
}

// cronLogger adapts the application logger to the cron.Logger surface
// so skipped overlapping triggers show up in the run log.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.InfoObj(msg, "cron", keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.ErrorObj(msg, "cron", append([]interface{}{"error", err.Error()}, keysAndValues...))
}

package state

import (
	"fmt"
	"strings"
	"time"
)

// Package state tracks which document identifiers have already been
// processed across runs.
//
// Mark is an in-memory mutation and never fails; Save flushes the state
// to durable storage and surfaces I/O errors to the caller, since a
// silently lost state file means duplicate deliveries on the next run.
// A missing or corrupt persisted state loads as empty rather than
// failing the run.

// Store is the processed-identifier set for one run. It has exactly one
// writer (the pipeline) and no concurrent readers.
type Store interface {
	// Seen reports whether id has been marked processed.
	Seen(id string) bool
	// Mark adds id to the processed set if absent and refreshes the
	// last-run timestamp. Duplicate-safe.
	Mark(id string)
	// Save persists the full state, overwriting prior content.
	Save() error
	// LastRun returns the persisted timestamp of the last successful
	// save, zero when the store is fresh.
	LastRun() time.Time
	// Len returns the number of processed identifiers.
	Len() int
	Close() error
}

// Options selects and configures a concrete backend.
type Options struct {
	Path string // file and bbolt backends
	DSN  string // postgres backend
}

// NewStore creates the configured state backend.
func NewStore(typ string, opts Options) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", "file":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("file state requires a path")
		}
		return openFile(opts.Path), nil
	case "bbolt":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("bbolt state requires a path")
		}
		return openBolt(opts.Path)
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres state requires a dsn")
		}
		return openPostgres(opts.DSN)
	case "none", "disabled":
		return &noopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported state type %q", typ)
	}
}

// noopStore remembers nothing; every document looks novel.
type noopStore struct{}

func (*noopStore) Seen(string) bool    { return false }
func (*noopStore) Mark(string)         {}
func (*noopStore) Save() error         { return nil }
func (*noopStore) LastRun() time.Time  { return time.Time{} }
func (*noopStore) Len() int            { return 0 }
func (*noopStore) Close() error        { return nil }

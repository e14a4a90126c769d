package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// persistedState is the on-disk JSON form of the processed set.
type persistedState struct {
	ProcessedIDs []string `json:"processed_ids"`
	LastRun      string   `json:"last_run,omitempty"`
}

// fileStore keeps the processed set in memory (hash set for membership,
// slice for stable persisted order) and writes the whole JSON document
// on Save via a temp-file rename, so a crashed write never truncates
// the previous state.
type fileStore struct {
	path    string
	ids     map[string]struct{}
	order   []string
	lastRun time.Time
	now     func() time.Time
}

// openFile loads the state at path. Missing, unreadable, or malformed
// content yields a fresh empty state.
func openFile(path string) *fileStore {
	s := &fileStore{
		path: path,
		ids:  make(map[string]struct{}),
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var ps persistedState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return s
	}

	for _, id := range ps.ProcessedIDs {
		if id == "" {
			continue
		}
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	if ps.LastRun != "" {
		if ts, err := time.Parse(time.RFC3339, ps.LastRun); err == nil {
			s.lastRun = ts
		}
	}
	return s
}

func (s *fileStore) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *fileStore) Mark(id string) {
	if id == "" {
		return
	}
	s.lastRun = s.now().UTC()
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *fileStore) Save() error {
	ps := persistedState{ProcessedIDs: append([]string(nil), s.order...)}
	if !s.lastRun.IsZero() {
		ps.LastRun = s.lastRun.Format(time.RFC3339)
	}

	raw, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *fileStore) LastRun() time.Time { return s.lastRun }
func (s *fileStore) Len() int           { return len(s.order) }
func (s *fileStore) Close() error       { return nil }

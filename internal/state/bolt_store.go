package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	processedBucket = "processed"
	metaBucket      = "meta"
	lastRunKey      = "last_run"
)

// boltStore implements Store backed by BoltDB. Membership lives in an
// in-memory set loaded at open; Mark collects pending identifiers and
// Save flushes them in one transaction, keeping Mark infallible.
type boltStore struct {
	db      *bolt.DB
	ids     map[string]struct{}
	pending []string
	count   int
	lastRun time.Time
}

func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(processedBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	s := &boltStore{
		db:  db,
		ids: make(map[string]struct{}),
	}

	// Unreadable entries only shrink the known set, they never fail the
	// open: a first run against an empty or damaged db starts fresh.
	_ = db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket([]byte(processedBucket)); bucket != nil {
			_ = bucket.ForEach(func(k, _ []byte) error {
				s.ids[string(k)] = struct{}{}
				return nil
			})
		}
		if meta := tx.Bucket([]byte(metaBucket)); meta != nil {
			if raw := meta.Get([]byte(lastRunKey)); raw != nil {
				if ts, err := time.Parse(time.RFC3339, string(raw)); err == nil {
					s.lastRun = ts
				}
			}
		}
		return nil
	})
	s.count = len(s.ids)

	return s, nil
}

func (s *boltStore) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *boltStore) Mark(id string) {
	if id == "" {
		return
	}
	s.lastRun = time.Now().UTC()
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.pending = append(s.pending, id)
	s.count++
}

func (s *boltStore) Save() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(processedBucket))
		if bucket == nil {
			return fmt.Errorf("processed bucket missing")
		}
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		for _, id := range s.pending {
			if err := bucket.Put([]byte(id), stamp); err != nil {
				return err
			}
		}
		if !s.lastRun.IsZero() {
			meta := tx.Bucket([]byte(metaBucket))
			if meta == nil {
				return fmt.Errorf("meta bucket missing")
			}
			return meta.Put([]byte(lastRunKey), []byte(s.lastRun.Format(time.RFC3339)))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *boltStore) LastRun() time.Time { return s.lastRun }
func (s *boltStore) Len() int           { return s.count }

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/internal/logger"
	"github.com/paperboy-hq/paperboy/internal/pipeline"
	"github.com/paperboy-hq/paperboy/pkg/publishers"
)

// slowEnricher tracks how many enrichments run at the same time.
type slowEnricher struct {
	mu        sync.Mutex
	active    int
	maxActive int
}

func (e *slowEnricher) Enrich(_ context.Context, doc domain.Document) (domain.Summary, error) {
	e.mu.Lock()
	e.active++
	if e.active > e.maxActive {
		e.maxActive = e.active
	}
	e.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	e.mu.Lock()
	e.active--
	e.mu.Unlock()
	return domain.Summary{Synopsis: "about " + doc.ID}, nil
}

type countingFetcher struct {
	mu   sync.Mutex
	runs int
}

func (f *countingFetcher) FetchBatch(_ context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	f.runs++
	id := fmt.Sprintf("doc-%d", f.runs)
	f.mu.Unlock()
	return []domain.Document{{ID: id}}, nil
}

func (f *countingFetcher) FetchOne(_ context.Context, id string) (domain.Document, error) {
	return domain.Document{ID: id}, nil
}

type nullDelivery struct{}

func (nullDelivery) Publish(_ context.Context, evt publishers.Event) ([]publishers.Receipt, error) {
	return []publishers.Receipt{{PublisherID: "null", Ref: evt.Document.ID}}, nil
}

type memStore struct {
	ids map[string]bool
}

func (s *memStore) Seen(id string) bool { return s.ids[id] }
func (s *memStore) Mark(id string)      { s.ids[id] = true }
func (s *memStore) Save() error         { return nil }
func (s *memStore) LastRun() time.Time  { return time.Time{} }
func (s *memStore) Len() int            { return len(s.ids) }
func (s *memStore) Close() error        { return nil }

func TestRunOncePassesDoNotOverlap(t *testing.T) {
	enricher := &slowEnricher{}
	store := &memStore{ids: make(map[string]bool)}
	rt := &runtime{
		pipeline: pipeline.New(&countingFetcher{}, enricher, nullDelivery{}, store, nil, pipeline.Options{}),
		store:    store,
		log:      logger.NopLogger{},
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rt.runOnce(context.Background()); err != nil {
				t.Errorf("runOnce: %v", err)
			}
		}()
	}
	wg.Wait()

	if enricher.maxActive != 1 {
		t.Fatalf("passes overlapped, max concurrent enrichments = %d", enricher.maxActive)
	}
}

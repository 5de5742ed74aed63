package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

type pageEntry struct {
	data      []byte
	expiresAt time.Time
}

type errorsEntry struct {
	reports   []integration.ErrorReport
	expiresAt time.Time
}

// InMemoryRunStore implements RunStore in process memory.
// This is suitable for single-instance deployments and testing.
type InMemoryRunStore struct {
	mu        sync.Mutex
	pages     map[string]pageEntry
	errors    map[string]errorsEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ RunStore = (*InMemoryRunStore)(nil)

// NewInMemoryRunStore creates the store and starts its cleanup goroutine
func NewInMemoryRunStore() *InMemoryRunStore {
	s := &InMemoryRunStore{
		pages:    make(map[string]pageEntry),
		errors:   make(map[string]errorsEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Load returns the stashed page of a run. Pages are stored encoded so callers
// never share item slices with the store.
func (s *InMemoryRunStore) Load(_ context.Context, runID string) (*integration.StashedPage, error) {
	s.mu.Lock()
	e, ok := s.pages[runID]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.pages, runID)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, integration.ErrStashMiss
	}
	return decodePage(e.data)
}

// Save stores the page of a run
func (s *InMemoryRunStore) Save(_ context.Context, runID string, page *integration.StashedPage, ttl time.Duration) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[runID] = pageEntry{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete removes the stashed page of a run
func (s *InMemoryRunStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, runID)
	return nil
}

// Append adds an item error to the run log and refreshes its TTL
func (s *InMemoryRunStore) Append(_ context.Context, runID string, report integration.ErrorReport, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.errors[runID]
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		e.reports = nil
	}
	e.reports = append(e.reports, report)
	e.expiresAt = s.now().Add(ttl)
	s.errors[runID] = e
	return nil
}

// Drain returns and removes every error of the run
func (s *InMemoryRunStore) Drain(_ context.Context, runID string) ([]integration.ErrorReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.errors[runID]
	delete(s.errors, runID)
	if !ok || !s.now().Before(e.expiresAt) {
		return []integration.ErrorReport{}, nil
	}
	return e.reports, nil
}

// Close stops the cleanup goroutine
func (s *InMemoryRunStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

func (s *InMemoryRunStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryRunStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.pages {
		if !now.Before(e.expiresAt) {
			delete(s.pages, id)
		}
	}
	for id, e := range s.errors {
		if !now.Before(e.expiresAt) {
			delete(s.errors, id)
		}
	}
}

// Size returns the number of live runs holding a page or errors
func (s *InMemoryRunStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(s.pages)+len(s.errors))
	for id := range s.pages {
		ids[id] = struct{}{}
	}
	for id := range s.errors {
		ids[id] = struct{}{}
	}
	return len(ids)
}

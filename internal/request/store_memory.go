package request

import (
	"context"
	"sync"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*BloodRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[domain.RequestID]*BloodRequest)}
}

// Seed inserts or replaces a request record.
func (s *MemoryStore) Seed(r *BloodRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
}

func (s *MemoryStore) FindByID(_ context.Context, requestID domain.RequestID) (*BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, requestID domain.RequestID, at time.Time) (*BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.Status != StatusCompleted {
		r.Status = StatusCompleted
		completed := at
		r.CompletedAt = &completed
	}
	cp := *r
	return &cp, nil
}

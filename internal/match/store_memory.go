package match

import (
	"context"
	"sort"
	"sync"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development. One
// mutex covers the whole map; the Execute contract only needs mutations on a
// single match to serialize, which this trivially satisfies.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[domain.MatchID]*Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[domain.MatchID]*Match)}
}

func (s *MemoryStore) Create(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.matches {
		if existing.DonorID == m.DonorID && existing.RequestID == m.RequestID && existing.Status.IsActive() {
			return sentinel.ErrConflict
		}
	}
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, matchID domain.MatchID) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Match
	for _, m := range s.matches {
		if m.RequestID == requestID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ActiveDonorIDs(_ context.Context, requestID domain.RequestID) ([]domain.DonorID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []domain.DonorID
	for _, m := range s.matches {
		if m.RequestID == requestID && m.Status.IsActive() {
			ids = append(ids, m.DonorID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (s *MemoryStore) CountByRequestWithStatus(_ context.Context, requestID domain.RequestID, statuses []Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	count := 0
	for _, m := range s.matches {
		if m.RequestID == requestID && wanted[m.Status] {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Execute(_ context.Context, matchID domain.MatchID,
	validate func(*Match) error, mutate func(*Match)) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	mutate(m)
	m.Version++
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, matchID domain.MatchID, validate func(*Match) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := validate(m); err != nil {
		return err
	}
	delete(s.matches, matchID)
	return nil
}

package donor

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	donors map[domain.DonorID]*Donor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{donors: make(map[domain.DonorID]*Donor)}
}

// Seed inserts or replaces a donor record.
func (s *MemoryStore) Seed(d *Donor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.donors[d.ID] = &cp
}

func (s *MemoryStore) FindByID(_ context.Context, donorID domain.DonorID) (*Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.donors[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) ListCandidates(_ context.Context, q CandidateQuery) ([]*Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make(map[domain.BloodType]bool, len(q.BloodTypes))
	for _, t := range q.BloodTypes {
		types[t] = true
	}
	excluded := make(map[domain.DonorID]bool, len(q.ExcludedIDs))
	for _, id := range q.ExcludedIDs {
		excluded[id] = true
	}

	var out []*Donor
	for _, d := range s.donors {
		if !types[d.BloodType] || !d.IsAvailable || !d.IsVerified || excluded[d.ID] {
			continue
		}
		if d.LastDonation != nil && d.LastDonation.After(q.DonatedBefore) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ApplyDonationStats(_ context.Context, donorID domain.DonorID, donatedAt time.Time) (*Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donors[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	d.ApplyDonation(donatedAt)
	cp := *d
	return &cp, nil
}

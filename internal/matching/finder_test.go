package matching

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/donor"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
	"lifeline/pkg/requestcontext"
)

// areaDistance resolves distances from a fixed table keyed by donor area,
// keeping finder tests independent of the geo data set.
type areaDistance map[string]float64

func (a areaDistance) DistanceKm(locationA, _ string) float64 {
	if km, ok := a[locationA]; ok {
		return km
	}
	return 999
}

func finderFixture() (*donor.MemoryStore, *request.BloodRequest, context.Context, time.Time) {
	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	req := &request.BloodRequest{
		ID:            domain.NewRequestID(),
		BloodType:     domain.OPositive,
		Location:      "Dhaka",
		UrgencyLevel:  domain.UrgencyNormal,
		UnitsRequired: 1,
		Status:        request.StatusOpen,
	}
	return donor.NewMemoryStore(), req, ctx, now
}

func seedCandidate(store *donor.MemoryStore, mutators ...func(*donor.Donor)) *donor.Donor {
	d := &donor.Donor{
		ID:          domain.NewDonorID(),
		BloodType:   domain.OPositive,
		Gender:      domain.GenderMale,
		Area:        "near",
		IsAvailable: true,
		IsVerified:  true,
	}
	for _, mutate := range mutators {
		mutate(d)
	}
	store.Seed(d)
	return d
}

func TestFindCandidatesFiltering(t *testing.T) {
	store, req, ctx, now := finderFixture()
	distances := areaDistance{"near": 5, "far": 80}

	kept := seedCandidate(store)
	seedCandidate(store, func(d *donor.Donor) { d.IsAvailable = false })
	seedCandidate(store, func(d *donor.Donor) { d.IsVerified = false })
	seedCandidate(store, func(d *donor.Donor) { d.BloodType = domain.ABPositive })
	seedCandidate(store, func(d *donor.Donor) { d.Area = "far" })
	recent := now.AddDate(0, 0, -30)
	seedCandidate(store, func(d *donor.Donor) { d.LastDonation = &recent })
	excluded := seedCandidate(store)

	finder := NewFinder(store, distances)
	results, err := finder.FindCandidates(ctx, req, Params{
		ExcludedDonorIDs: []domain.DonorID{excluded.ID},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].Donor.ID)
	assert.Equal(t, 5.0, results[0].DistanceKm)
	assert.True(t, results[0].Eligibility.CanDonate)
}

func TestFindCandidatesWaitingDonorsRankLast(t *testing.T) {
	store, req, ctx, now := finderFixture()
	distances := areaDistance{"near": 5}

	// A female donor 100 days out passes the blanket 90-day store cutoff but
	// is still inside her 120-day window.
	waitingDate := now.AddDate(0, 0, -100)
	waiting := seedCandidate(store, func(d *donor.Donor) {
		d.Gender = domain.GenderFemale
		d.LastDonation = &waitingDate
		d.ReliabilityScore = 50 // high score must not outrank eligibility
	})
	eligible := seedCandidate(store)

	finder := NewFinder(store, distances)
	results, err := finder.FindCandidates(ctx, req, Params{})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, eligible.ID, results[0].Donor.ID)
	assert.Equal(t, waiting.ID, results[1].Donor.ID)
	assert.False(t, results[1].Eligibility.CanDonate)
	assert.Equal(t, 20, results[1].Eligibility.DaysRemaining)
}

func TestFindCandidatesOrdering(t *testing.T) {
	store, req, ctx, _ := finderFixture()
	distances := areaDistance{"near": 5, "nearer": 2}

	lowScore := seedCandidate(store, func(d *donor.Donor) { d.ReliabilityScore = 1 })
	highScore := seedCandidate(store, func(d *donor.Donor) { d.ReliabilityScore = 9 })
	// Same score as lowScore but closer, so it wins the distance tiebreak.
	closer := seedCandidate(store, func(d *donor.Donor) {
		d.ReliabilityScore = 1
		d.Area = "nearer"
	})

	finder := NewFinder(store, distances)
	results, err := finder.FindCandidates(ctx, req, Params{})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, highScore.ID, results[0].Donor.ID)
	assert.Equal(t, closer.ID, results[1].Donor.ID)
	assert.Equal(t, lowScore.ID, results[2].Donor.ID)
}

func TestFindCandidatesDeterministic(t *testing.T) {
	store, req, ctx, _ := finderFixture()
	distances := areaDistance{"near": 5}

	// Identical donors force the id tiebreak.
	for i := 0; i < 8; i++ {
		seedCandidate(store)
	}

	finder := NewFinder(store, distances)
	first, err := finder.FindCandidates(ctx, req, Params{})
	require.NoError(t, err)
	second, err := finder.FindCandidates(ctx, req, Params{})
	require.NoError(t, err)

	require.Len(t, first, 8)
	for i := range first {
		assert.Equal(t, first[i].Donor.ID, second[i].Donor.ID)
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Donor.ID.String(), first[i].Donor.ID.String())
	}
}

func TestFindCandidatesLimit(t *testing.T) {
	store, req, ctx, _ := finderFixture()
	distances := areaDistance{"near": 5}

	for i := 0; i < 5; i++ {
		seedCandidate(store)
	}

	finder := NewFinder(store, distances)
	results, err := finder.FindCandidates(ctx, req, Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchKey(t *testing.T) {
	reqID := domain.NewRequestID()
	a, b := domain.NewDonorID(), domain.NewDonorID()

	key1 := searchKey(reqID, Params{MaxDistanceKm: 50, Limit: 20, ExcludedDonorIDs: []domain.DonorID{a, b}})
	key2 := searchKey(reqID, Params{MaxDistanceKm: 50, Limit: 20, ExcludedDonorIDs: []domain.DonorID{b, a}})
	assert.Equal(t, key1, key2, "exclusion order must not change the key")

	key3 := searchKey(reqID, Params{MaxDistanceKm: 30, Limit: 20})
	key4 := searchKey(reqID, Params{MaxDistanceKm: 50, Limit: 20})
	assert.NotEqual(t, key3, key4, "distance bound is part of the key")
}

package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"lifeline/internal/compat"
	"lifeline/internal/donor"
	"lifeline/internal/eligibility"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/request"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

// Distancer estimates the distance between two named locations.
type Distancer interface {
	DistanceKm(locationA, locationB string) float64
}

// Finder produces a ranked, distance-filtered, eligibility-aware candidate
// list for a blood request.
type Finder struct {
	donors   donor.Store
	distance Distancer
	cache    *Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger
	group    singleflight.Group
}

// FinderOption configures optional Finder collaborators.
type FinderOption func(*Finder)

// WithCache enables best-effort result caching.
func WithCache(c *Cache) FinderOption {
	return func(f *Finder) { f.cache = c }
}

// WithMetrics enables search instrumentation.
func WithMetrics(m *metrics.Metrics) FinderOption {
	return func(f *Finder) { f.metrics = m }
}

// WithLogger sets the search logger.
func WithLogger(l *slog.Logger) FinderOption {
	return func(f *Finder) { f.logger = l }
}

func NewFinder(donors donor.Store, distance Distancer, opts ...FinderOption) *Finder {
	f := &Finder{
		donors:   donors,
		distance: distance,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindCandidates ranks compatible donors for the request. The result is
// deterministic for identical inputs, contains no duplicates, no excluded or
// unavailable donors, and nobody beyond params.MaxDistanceKm.
func (f *Finder) FindCandidates(ctx context.Context, req *request.BloodRequest, params Params) ([]*RankedDonor, error) {
	params = params.withDefaults()
	key := searchKey(req.ID, params)

	if f.cache != nil {
		if results, ok := f.cache.Get(ctx, key); ok {
			if f.metrics != nil {
				f.metrics.IncSearchCacheHit()
			}
			return results, nil
		}
		if f.metrics != nil {
			f.metrics.IncSearchCacheMiss()
		}
	}

	// Collapse concurrent identical searches into one computation.
	v, err, _ := f.group.Do(key, func() (any, error) {
		return f.search(ctx, req, params)
	})
	if err != nil {
		return nil, err
	}
	results := v.([]*RankedDonor)

	if f.cache != nil {
		f.cache.Set(ctx, key, results)
	}
	return results, nil
}

func (f *Finder) search(ctx context.Context, req *request.BloodRequest, params Params) ([]*RankedDonor, error) {
	now := requestcontext.Now(ctx)
	started := time.Now()
	defer func() { f.metrics.ObserveSearchDuration(time.Since(started)) }()

	// Coarse storage-level filter: compatible types, availability,
	// verification, exclusions, and the blanket conservative cutoff. The
	// precise gender-aware eligibility check happens per donor below.
	pool, err := f.donors.ListCandidates(ctx, donor.CandidateQuery{
		BloodTypes:    compat.CompatibleDonors(req.BloodType),
		ExcludedIDs:   params.ExcludedDonorIDs,
		DonatedBefore: now.AddDate(0, 0, -eligibility.ConservativeCutoffDays),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query candidate donors")
	}

	results := make([]*RankedDonor, 0, len(pool))
	for _, d := range pool {
		distance := f.distance.DistanceKm(d.Area, req.Location)
		if distance > params.MaxDistanceKm {
			continue
		}
		results = append(results, &RankedDonor{
			Donor:       d,
			DistanceKm:  distance,
			Score:       Score(d, req, now),
			Eligibility: eligibility.Compute(d.LastDonation, d.Gender, now),
		})
	}

	// Eligible donors first, then best score, then nearest. The donor id
	// tiebreak keeps the ordering fully deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Eligibility.CanDonate != b.Eligibility.CanDonate {
			return a.Eligibility.CanDonate
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Donor.ID.String() < b.Donor.ID.String()
	})

	if len(results) > params.Limit {
		results = results[:params.Limit]
	}

	if f.metrics != nil {
		f.metrics.IncDonorSearch()
	}
	f.logger.DebugContext(ctx, "donor search completed",
		"request_id", req.ID.String(),
		"pool_size", len(pool),
		"results", len(results),
	)
	return results, nil
}

// searchKey builds a cache/singleflight key covering every input that can
// change the result set.
func searchKey(requestID fmt.Stringer, params Params) string {
	ids := make([]string, len(params.ExcludedDonorIDs))
	for i, id := range params.ExcludedDonorIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)

	key := fmt.Sprintf("search:req:%s:%g:%d", requestID.String(), params.MaxDistanceKm, params.Limit)
	for _, id := range ids {
		key += ":" + id
	}
	return key
}

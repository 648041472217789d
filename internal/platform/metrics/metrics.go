package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Services treat
// the pointer as optional; a nil receiver check at call sites keeps tests
// free of registry bookkeeping.
type Metrics struct {
	DonorSearches     prometheus.Counter
	SearchDuration    prometheus.Histogram
	SearchCacheHits   prometheus.Counter
	SearchCacheMisses prometheus.Counter
	MatchesCreated    prometheus.Counter
	MatchesDeleted    prometheus.Counter
	MatchTransitions  *prometheus.CounterVec
	RequestsCompleted prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DonorSearches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_donor_searches_total",
			Help: "Total number of donor searches executed",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifeline_donor_search_duration_seconds",
			Help:    "Donor search latency",
			Buckets: prometheus.DefBuckets,
		}),
		SearchCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_search_cache_hits_total",
			Help: "Donor searches served from cache",
		}),
		SearchCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_search_cache_misses_total",
			Help: "Donor searches that missed the cache",
		}),
		MatchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_matches_created_total",
			Help: "Total number of matches created",
		}),
		MatchesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_matches_deleted_total",
			Help: "Total number of matches deleted",
		}),
		MatchTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifeline_match_transitions_total",
			Help: "Match status transitions by edge",
		}, []string{"from", "to"}),
		RequestsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifeline_requests_completed_total",
			Help: "Blood requests fulfilled via the completion cascade",
		}),
	}
}

func (m *Metrics) IncDonorSearch() {
	if m == nil {
		return
	}
	m.DonorSearches.Inc()
}

func (m *Metrics) ObserveSearchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncSearchCacheHit() {
	if m == nil {
		return
	}
	m.SearchCacheHits.Inc()
}

func (m *Metrics) IncSearchCacheMiss() {
	if m == nil {
		return
	}
	m.SearchCacheMisses.Inc()
}

func (m *Metrics) IncMatchCreated() {
	if m == nil {
		return
	}
	m.MatchesCreated.Inc()
}

func (m *Metrics) IncMatchDeleted() {
	if m == nil {
		return
	}
	m.MatchesDeleted.Inc()
}

func (m *Metrics) IncMatchTransition(from, to string) {
	if m == nil {
		return
	}
	m.MatchTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncRequestCompleted() {
	if m == nil {
		return
	}
	m.RequestsCompleted.Inc()
}

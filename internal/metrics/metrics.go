package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream appliance metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fwbridge_upstream_requests_total",
			Help: "Total upstream appliance requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	Reauthentications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fwbridge_session_reauthentications_total",
			Help: "Total transparent re-authentications after credential rejection or expiry",
		},
	)

	RateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fwbridge_upstream_ratelimit_waits_total",
			Help: "Total waits caused by upstream rate-limit signals",
		},
	)

	PlaceholderResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fwbridge_placeholder_results_total",
			Help: "Total synthetic placeholder results served during appliance outages",
		},
		[]string{"operation"},
	)

	// Normalization metrics
	NormalizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fwbridge_normalize_duration_seconds",
			Help:    "Duration of batch normalization in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ParserFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fwbridge_parser_fallbacks_total",
			Help: "Total raw units no dialect pattern claimed, handled by the fallback extractor",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fwbridge_cache_hits_total",
			Help: "Total result cache hits by operation",
		},
		[]string{"operation"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fwbridge_cache_misses_total",
			Help: "Total result cache misses by operation",
		},
		[]string{"operation"},
	)
)

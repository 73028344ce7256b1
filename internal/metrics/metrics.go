package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bizboost"

// DirectoryMetrics holds every collector the API reports. Each instance owns
// its registry so several can live in one process.
type DirectoryMetrics struct {
	registry *prometheus.Registry

	BusinessesCreatedTotal *prometheus.CounterVec
	ReviewsCreatedTotal    *prometheus.CounterVec
	FavoritesChangedTotal  *prometheus.CounterVec

	ChallengeFailuresTotal prometheus.Counter
	RateLimitedTotal       prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

func New() *DirectoryMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &DirectoryMetrics{
		registry: reg,

		BusinessesCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "businesses_created_total",
				Help:      "Businesses submitted through the API",
			},
			[]string{"category"},
		),

		ReviewsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_created_total",
				Help:      "Reviews accepted, by star rating",
			},
			[]string{"rating"},
		),

		FavoritesChangedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorites_changed_total",
				Help:      "Favorite add and remove calls",
			},
			[]string{"action"},
		),

		ChallengeFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_failures_total",
			Help:      "Submissions rejected for a missing, reused or wrong challenge answer",
		}),

		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// TrackDirectorySize exposes the current number of businesses as a gauge.
func (m *DirectoryMetrics) TrackDirectorySize(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "businesses",
		Help:      "Businesses currently in the directory",
	}, func() float64 { return float64(count()) })
}

func (m *DirectoryMetrics) ObserveReview(rating int) {
	m.ReviewsCreatedTotal.WithLabelValues(strconv.Itoa(rating)).Inc()
}

func (m *DirectoryMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func (m *DirectoryMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// README: Prometheus metrics for matching, offers, and HTTP traffic.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OffersPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safar", Name: "offers_published_total",
		Help: "Offers published to candidate drivers",
	})
	OffersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safar", Name: "offers_accepted_total",
		Help: "Offers accepted before expiry",
	})
	OffersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safar", Name: "offers_expired_total",
		Help: "Offers that reached their TTL without acceptance",
	})
	NegotiationsExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safar", Name: "negotiations_exhausted_total",
		Help: "Negotiations that ran out of rounds or candidates",
	})
	RidesAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safar", Name: "rides_assigned_total",
		Help: "Rides that reached DRIVER_ASSIGNED",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safar", Name: "http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "safar", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

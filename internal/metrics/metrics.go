// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediguru",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediguru",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediguru",
		Name:      "uploads_total",
		Help:      "Bulk uploads by record type and outcome (ok, partial, failed).",
	}, []string{"type", "outcome"})

	UploadRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediguru",
		Name:      "upload_rows_total",
		Help:      "Uploaded rows by record type and result (inserted, rejected).",
	}, []string{"type", "result"})

	Mirrored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediguru",
		Name:      "backups_mirrored_total",
		Help:      "Backup artifacts pushed off-host by outcome.",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mediguru",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

// Package observability holds the Prometheus counters and OpenTelemetry
// tracing shared by the API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// Registrations counts successful account registrations.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_registrations_total",
		Help: "Total number of successful registrations",
	})

	// Logins counts login attempts by result (success, failure).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_logins_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// PostsCreated counts created posts by type (text, image).
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_posts_created_total",
		Help: "Total number of posts created by type",
	}, []string{"type"})

	// ImageUploads counts image uploads by result (success, failure, rollback).
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_image_uploads_total",
		Help: "Total number of image uploads by result",
	}, []string{"result"})

	// LikeToggles counts like toggles by action (like, unlike).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_like_toggles_total",
		Help: "Total number of like toggles by action",
	}, []string{"action"})

	// Follows counts follow graph changes by action (follow, unfollow).
	Follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_follows_total",
		Help: "Total number of follow changes by action",
	}, []string{"action"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

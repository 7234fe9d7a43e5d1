package utils

import (
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenantdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	ThreadsReconstructed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantdesk_threads_reconstructed_total",
		Help: "Inquiry threads rebuilt from legacy and structured storage.",
	})

	InquiryMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantdesk_inquiry_messages_total",
		Help: "Messages appended to inquiries.",
	}, []string{"sender"})

	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantdesk_push_deliveries_total",
		Help: "Push notification attempts.",
	}, []string{"outcome"})

	ExportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantdesk_export_jobs_total",
		Help: "Admin export jobs by terminal state.",
	}, []string{"state"})
)

// MetricsMiddleware records request latency per route. Registered globally in
// main so every party is measured.
func MetricsMiddleware(ctx iris.Context) {
	start := time.Now()
	ctx.Next()

	route := "unmatched"
	if current := ctx.GetCurrentRoute(); current != nil {
		route = current.Path()
	}
	HTTPRequestDuration.
		WithLabelValues(ctx.Method(), route, strconv.Itoa(ctx.GetStatusCode())).
		Observe(time.Since(start).Seconds())
}

// Package metrics holds the Prometheus instrumentation for movievault.
//
// Exposed at GET /metrics:
//
//	movievault_http_requests_total            counter: requests by method/route/status
//	movievault_http_request_duration_seconds  histogram: latency by method/route
//	movievault_upload_operations_total        counter: upload protocol calls by operation/result
//	movievault_stream_views_total             counter: stream accesses that counted a view
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movievault/internal/s3"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movievault_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "movievault_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

var UploadOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movievault_upload_operations_total",
	Help: "Upload protocol operations by outcome.",
}, []string{"operation", "result"})

var StreamViews = promauto.NewCounter(prometheus.CounterOpts{
	Name: "movievault_stream_views_total",
	Help: "Stream accesses that incremented a movie's view count.",
})

// ObserveUpload records one upload protocol call. result is "ok", or the
// failure kind when err is non-nil.
func ObserveUpload(operation string, err error) {
	UploadOperations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, s3.ErrInvalidPart):
		return "invalid_part"
	case errors.Is(err, s3.ErrNoSuchUpload):
		return "no_such_upload"
	case errors.Is(err, s3.ErrETagMismatch), errors.Is(err, s3.ErrIncompletePartSet):
		return "bad_manifest"
	case errors.Is(err, s3.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, s3.ErrStoreRejected):
		return "store_rejected"
	default:
		return "client_error"
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. The route label is the
// matched ServeMux pattern, which keeps label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.Status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ResponseWriter captures the status code written by a handler.
type ResponseWriter struct {
	http.ResponseWriter
	Status int
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.Status = code
	rw.ResponseWriter.WriteHeader(code)
}

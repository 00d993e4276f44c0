// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/consolidator/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics. Failed
// responses are labeled with the error code the handler wrote, and a
// data_unavailable response is also attributed to the source that broke the
// last refresh.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, elapsed)

		if rec.status < http.StatusBadRequest {
			return
		}
		kind := rec.errorKind()
		metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		metrics.RecordErrorByComponent("http", kind)
		metrics.RecordErrorLatency("http", kind, elapsed)
		if rec.failedSource != "" {
			metrics.RecordErrorByComponent("view", rec.failedSource)
		}
	}
}

// errorTagger is implemented by writers that want the error code of a
// failed response.
type errorTagger interface {
	tagError(code, failedSource string)
}

// recorder captures the status and error code of a response.
type recorder struct {
	http.ResponseWriter
	status       int
	code         string
	failedSource string
}

func (rec *recorder) tagError(code, failedSource string) {
	rec.code = code
	rec.failedSource = failedSource
}

// errorKind prefers the handler's error code and falls back to the status
// class for responses written outside writeError.
func (rec *recorder) errorKind() string {
	if rec.code != "" {
		return rec.code
	}
	switch {
	case rec.status >= http.StatusInternalServerError:
		return "server_error"
	case rec.status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

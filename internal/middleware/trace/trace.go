package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Metrics tracks request counts and status classes across the server lifetime.
type Metrics struct {
	TotalRequests  int64
	ActiveRequests int64
	StatusClass4xx int64
	StatusClass5xx int64
}

// Middleware assigns a request ID to every request, logs start/completion and
// keeps atomic counters for the health endpoint.
type Middleware struct {
	logger    *log.StructuredLogger
	extractIP func(*http.Request) string
	metrics   Metrics
}

func NewMiddleware(logger *log.StructuredLogger, extractIP func(*http.Request) string) *Middleware {
	if extractIP == nil {
		extractIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	return &Middleware{logger: logger, extractIP: extractIP}
}

// GenerateRequestID produces a short random identifier for request correlation.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return "req_" + hex.EncodeToString(b)
}

// RequestID returns the request ID stored in ctx, or empty string.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler wraps next with request tracing.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = GenerateRequestID()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)
		atomic.AddInt64(&m.metrics.ActiveRequests, 1)
		defer atomic.AddInt64(&m.metrics.ActiveRequests, -1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		clientIP := m.extractIP(r)
		start := time.Now()
		if m.logger != nil {
			m.logger.LogHTTPStart(ctx, r, clientIP)
		}

		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			atomic.AddInt64(&m.metrics.StatusClass5xx, 1)
		case rw.statusCode >= 400:
			atomic.AddInt64(&m.metrics.StatusClass4xx, 1)
		}

		if m.logger != nil {
			m.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
		}
	})
}

// Snapshot returns a consistent copy of the current metrics.
func (m *Middleware) Snapshot() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&m.metrics.TotalRequests),
		ActiveRequests: atomic.LoadInt64(&m.metrics.ActiveRequests),
		StatusClass4xx: atomic.LoadInt64(&m.metrics.StatusClass4xx),
		StatusClass5xx: atomic.LoadInt64(&m.metrics.StatusClass5xx),
	}
}

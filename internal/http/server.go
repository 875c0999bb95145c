// Package http exposes the JSON API: entry and definition CRUD, the monthly
// summary, the yearly analytics overview and the category averages.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/records"
	"bilancio/internal/services"
)

type Server struct {
	http.Server

	store      records.Store
	entries    *services.EntryService
	categories *services.CategoryService
	recurring  *services.RecurringService
	large      *services.LargeService
	summaries  *services.SummaryService
	analytics  *services.AnalyticsService

	summaryCache   *cache.LRUCache[services.MonthSummary]
	analyticsCache *cache.LRUCache[services.YearOverview]
	cacheManager   *cache.Manager

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires routes, middleware and the summary cache around the given
// store. The entry service is passed in because it owns the export queue
// connection.
func NewServer(addr string, store records.Store, entries *services.EntryService) *Server {
	mux := http.NewServeMux()

	detector := security.NewDetector()
	logger := log.New(log.Config{Component: log.ComponentHTTP})

	s := &Server{
		store:      store,
		entries:    entries,
		categories: services.NewCategoryService(store),
		recurring:  services.NewRecurringService(store, entries),
		large:      services.NewLargeService(store, entries),
		summaries:  services.NewSummaryService(store),
		analytics:  services.NewAnalyticsService(store),

		summaryCache:   cache.NewLRUCache[services.MonthSummary](100, 5*time.Minute),
		analyticsCache: cache.NewLRUCache[services.YearOverview](10, 5*time.Minute),
		cacheManager:   cache.NewManager(),

		tracer:   trace.NewMiddleware(log.NewStructuredLogger(logger), detector.ExtractClientIP),
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: detector,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/income", s.handleListIncome)
	mux.HandleFunc("POST /api/income", s.handleCreateIncome)
	mux.HandleFunc("DELETE /api/income/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/recurring-expenses", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring-expenses", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/recurring-expenses/{id}", s.handleGetRecurring)
	mux.HandleFunc("PUT /api/recurring-expenses/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/recurring-expenses/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("GET /api/large-expenses", s.handleListLarge)
	mux.HandleFunc("POST /api/large-expenses", s.handleCreateLarge)
	mux.HandleFunc("GET /api/large-expenses/{id}", s.handleGetLarge)
	mux.HandleFunc("PUT /api/large-expenses/{id}", s.handleUpdateLarge)
	mux.HandleFunc("DELETE /api/large-expenses/{id}", s.handleDeleteLarge)

	mux.HandleFunc("POST /api/materialize", s.handleMaterialize)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/averages", s.handleAverages)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(detector.ExtractClientIP, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Handler(headers.Middleware(limited(mux))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Shutdown stops background cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.tracer.Snapshot()
	limiterMetrics := s.limiter.GetMetrics()
	detectionMetrics := s.detector.GetMetrics()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"total_requests":      metrics.TotalRequests,
		"active_requests":     metrics.ActiveRequests,
		"responses_4xx":       metrics.StatusClass4xx,
		"responses_5xx":       metrics.StatusClass5xx,
		"rate_limit_hits":     limiterMetrics.LimitHits,
		"tracked_clients":     limiterMetrics.ClientCount,
		"suspicious_requests": detectionMetrics.SuspiciousRequests,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.store.ListUsers(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package http provides the JSON API server.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
	"moneta/internal/log"
	"moneta/internal/services"
	"moneta/internal/stores"
)

type Server struct {
	http.Server
	ledger     *services.LedgerService
	projection *services.ProjectionService
	summary    *services.SummaryService
	revisioned stores.Revisioned

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	accessLog   *log.StructuredLogger

	// Derived views are cached keyed on store revision, so a cached entry
	// can never outlive the records it was computed from.
	timelineCache *cache.LRUCache[services.TimelineResult]
	summaryCache  *cache.LRUCache[core.AggregateResult]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(
	addr string,
	ledger *services.LedgerService,
	projection *services.ProjectionService,
	summary *services.SummaryService,
	revisioned stores.Revisioned,
) *Server {
	mux := http.NewServeMux()
	requestLogger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(requestLogger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:        ledger,
		projection:    projection,
		summary:       summary,
		revisioned:    revisioned,
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		accessLog:     log.NewStructuredLogger(requestLogger),
		timelineCache: cache.NewLRUCache[services.TimelineResult](100, 5*time.Minute),
		summaryCache:  cache.NewLRUCache[core.AggregateResult](50, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.timelineCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/bills", s.withMiddleware(s.handleCreateBill))
	mux.HandleFunc("GET /api/bills", s.withMiddleware(s.handleListBills))
	mux.HandleFunc("DELETE /api/bills/{id}", s.withMiddleware(s.handleDeleteBill))
	mux.HandleFunc("PATCH /api/bills/{id}/paid", s.withMiddleware(s.handleSetBillPaid))
	mux.HandleFunc("PUT /api/bills/{id}/anchors/{month}", s.withMiddleware(s.handleSetBillAnchor))

	mux.HandleFunc("POST /api/paychecks", s.withMiddleware(s.handleCreatePaycheck))
	mux.HandleFunc("GET /api/paychecks", s.withMiddleware(s.handleListPaychecks))
	mux.HandleFunc("DELETE /api/paychecks/{id}", s.withMiddleware(s.handleDeletePaycheck))
	mux.HandleFunc("PUT /api/paychecks/{id}/anchors/{month}", s.withMiddleware(s.handleSetPaycheckAnchor))

	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.handleListBudgets))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withMiddleware(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/status", s.withMiddleware(s.handleBudgetStatus))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("GET /api/timeline", s.withMiddleware(s.handleTimeline))
	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r, s.metrics)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"client_ip", clientIP)
		}

		// Mutations are rate limited per client, reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.accessLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Package http exposes the receipt ledger as a JSON API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"recibo/internal/cache"
	"recibo/internal/core"
	"recibo/internal/ledger"
	"recibo/internal/middleware/ratelimit"
	"recibo/internal/middleware/security"
	"recibo/internal/middleware/trace"
	"recibo/internal/services"
)

type Server struct {
	http.Server

	receipts      *services.ReceiptService
	entries       ledger.EntryStore
	goals         ledger.GoalStore
	notifications ledger.NotificationStore

	maxUploadBytes int64
	limiter        *ratelimit.Limiter

	// Month summaries are recomputed on demand and cached briefly; an
	// upload for the same owner and period invalidates the key.
	summaryCache *cache.LRUCache[core.MonthSummary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

func NewServer(addr string, receipts *services.ReceiptService, entries ledger.EntryStore, goals ledger.GoalStore, notifications ledger.NotificationStore, maxUploadBytes int64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		receipts:         receipts,
		entries:          entries,
		goals:            goals,
		notifications:    notifications,
		maxUploadBytes:   maxUploadBytes,
		limiter:          ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache:     cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /receipts/upload", s.handleUploadReceipt)
	mux.HandleFunc("POST /ocr", s.handleOCR)

	mux.HandleFunc("GET /entries", s.handleListEntries)
	mux.HandleFunc("GET /entries/summary", s.handleMonthSummary)

	mux.HandleFunc("GET /goals", s.handleListGoals)
	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /notifications", s.handleListNotifications)
	mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkNotificationRead)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractClientIP)
	limitPosts := s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", extractClientIP(r), "path", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
	})

	var handler http.Handler = mux
	handler = postOnly(limitPosts)(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.startCacheCleanup()
	return s
}

// postOnly applies mw to mutating requests and passes reads through.
func postOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodDelete {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Summary cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines before draining the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func summaryCacheKey(userID int64, month, year int) string {
	return fmt.Sprintf("%d:%04d-%02d", userID, year, month)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Package http exposes the expense collection as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"outgo/internal/cache"
	"outgo/internal/currency"
	"outgo/internal/log"
	"outgo/internal/services"
	"outgo/internal/summary"
)

type Server struct {
	http.Server

	expenses *services.ExpenseService
	currency *currency.Service
	logger   *log.Logger

	rateLimiter *rateLimiter

	// summaryCache memoizes reports per window. Any mutation or currency
	// event purges the whole thing, so stale totals never outlive a write.
	summaryCache *cache.LRUCache[summary.Report]

	// ratesFallback tracks whether the last refresh fell back to the
	// static table; summaries surface it as a non-blocking flag.
	ratesFallback atomic.Bool

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, cur *currency.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		expenses:         expenses,
		currency:         cur,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[summary.Report](16, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	// Currency changes shift every converted total.
	cur.Subscribe(func(ev currency.Event) {
		switch ev.Kind {
		case currency.RatesUpdated:
			s.ratesFallback.Store(false)
		case currency.RatesFallback:
			s.ratesFallback.Store(true)
		}
		s.summaryCache.Purge()
	})

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/expenses/", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/currencies", s.withMiddleware(s.handleCurrencies))
	mux.HandleFunc("/currency", s.withMiddleware(s.handleCurrency))
	mux.HandleFunc("/rates", s.withMiddleware(s.handleRates))
	mux.HandleFunc("/rates/refresh", s.withMiddleware(s.handleRefreshRates))
	mux.HandleFunc("/import", s.withMiddleware(s.handleImport))
	mux.HandleFunc("/export", s.withMiddleware(s.handleExport))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

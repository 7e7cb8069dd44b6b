// Package http serves the JSON API over the two stores. It is the layer
// that plays "caller" in the stores' contract: it validates input before
// invoking a store, and it sequences the two-store mutation behind
// transaction creation.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pocket/internal/cache"
	"pocket/internal/kv"
	"pocket/internal/middleware/trace"
	"pocket/internal/report"
	"pocket/internal/store"
)

// Options tunes the read-side behavior of the server.
type Options struct {
	// RecentLimit bounds the dashboard's recent-transactions list.
	RecentLimit int
	// CacheTTL bounds how long memoized views live. Version-stamped keys
	// already prevent stale reads; the TTL only bounds memory.
	CacheTTL time.Duration
}

type Server struct {
	http.Server

	categories   *store.CategoryStore
	transactions *store.TransactionStore
	kv           kv.Store
	trace        *trace.Middleware
	recentLimit  int

	overviewCache  *cache.LRU[report.Overview]
	breakdownCache *cache.LRU[report.Breakdown]
	cacheManager   *cache.Manager

	appMetrics appMetrics
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	categoriesCreated   int64
	cacheHits           int64
	cacheMisses         int64
}

func NewServer(addr string, categories *store.CategoryStore, transactions *store.TransactionStore, kvStore kv.Store, opts Options) *Server {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}

	s := &Server{
		categories:     categories,
		transactions:   transactions,
		kv:             kvStore,
		trace:          trace.NewMiddleware(),
		recentLimit:    opts.RecentLimit,
		overviewCache:  cache.NewLRU[report.Overview](16, opts.CacheTTL),
		breakdownCache: cache.NewLRU[report.Breakdown](16, opts.CacheTTL),
		cacheManager:   cache.NewManager(),
	}
	s.appMetrics.uptime = time.Now()

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.Addr = addr
	s.Handler = s.trace.Middleware(mux)
	return s
}

// Shutdown stops the cache sweeper before shutting the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cacheManager.StopCleanup()
	return s.Server.Shutdown(ctx)
}

func (s *Server) overviewKey() string {
	return fmt.Sprintf("overview:%d", s.transactions.Version())
}

func (s *Server) breakdownKey() string {
	return fmt.Sprintf("breakdown:%d", s.categories.Version())
}

// Package http serves the fondi JSON API.
//
// The server owns the HTTP stack end to end: routing, the middleware chain
// (request tracing, scan detection, security headers, rate limiting), the
// month-overview cache, and the services the handlers call into. Handlers
// decode payloads, call a service or the store, and translate errors through
// a single status taxonomy.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fondi/internal/backend"
	"fondi/internal/cache"
	"fondi/internal/core"
	"fondi/internal/log"
	"fondi/internal/middleware/ratelimit"
	"fondi/internal/middleware/security"
	"fondi/internal/middleware/trace"
	"fondi/internal/services"
)

const (
	defaultOverviewTTL = 5 * time.Minute
	// overviewCacheSize is two years of month keys; older months are cold.
	overviewCacheSize  = 24
	overviewTimeout    = 7 * time.Second
	cacheSweepInterval = time.Minute
)

// Options tunes the server; zero values select defaults.
type Options struct {
	// RatePerMinute caps requests per client IP.
	RatePerMinute int
	// OverviewTTL bounds staleness of the cached dashboard.
	OverviewTTL time.Duration
	// Now supplies the current time for period defaults.
	Now func() time.Time
}

// Server is the fondi API server.
type Server struct {
	*http.Server

	store        backend.Backend
	ops          *services.OperationService
	transfers    *services.TransferService
	distribution *services.DistributionService
	imports      *services.ImportService

	logger *log.Logger
	now    func() time.Time

	overviewCache *cache.LRUCache[core.MonthOverview]
	cacheManager  *cache.Manager
	rateLimiter   *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware

	metrics      appMetrics
	startedAt    time.Time
	shutdownOnce sync.Once
}

// appMetrics are process counters exposed on /metrics.
type appMetrics struct {
	operationsCreated int64
	incomesRecorded   int64
	batchesCreated    int64
	cacheHits         int64
	cacheMisses       int64
}

// NewServer wires the full API stack over the given backend. The sync and
// import publishers may be nil when messaging is disabled.
func NewServer(addr string, store backend.Backend, syncPub services.SyncPublisher, importPub services.ImportPublisher, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ttl := opts.OverviewTTL
	if ttl <= 0 {
		ttl = defaultOverviewTTL
	}

	ops := services.NewOperationService(store, syncPub)
	s := &Server{
		store:         store,
		ops:           ops,
		transfers:     services.NewTransferService(store),
		distribution:  services.NewDistributionService(store, ops),
		imports:       services.NewImportService(store, importPub),
		logger:        log.Default(log.ComponentHTTP),
		now:           opts.Now,
		overviewCache: cache.NewLRUCache[core.MonthOverview](overviewCacheSize, ttl),
		cacheManager:  cache.NewManager(),
		rateLimiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RatePerMinute}),
		detector:      security.NewDetector(),
		startedAt:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(cacheSweepInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, rateLimited)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.watchScans(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("POST /api/allocations/preview", s.handlePreviewAllocation)

	mux.HandleFunc("POST /api/funds", s.handleCreateFund)
	mux.HandleFunc("GET /api/funds", s.handleListFunds)
	mux.HandleFunc("GET /api/funds/{id}", s.handleGetFund)
	mux.HandleFunc("PATCH /api/funds/{id}", s.handleUpdateFund)
	mux.HandleFunc("DELETE /api/funds/{id}", s.handleArchiveFund)
	mux.HandleFunc("POST /api/funds/{id}/assets", s.handleAddAsset)

	mux.HandleFunc("POST /api/funds/{id}/contributions", s.handleCreateContribution)
	mux.HandleFunc("GET /api/funds/{id}/contributions", s.handleListContributions)
	mux.HandleFunc("POST /api/funds/{id}/withdrawals", s.handleCreateWithdrawal)
	mux.HandleFunc("GET /api/funds/{id}/withdrawals", s.handleListWithdrawals)
	mux.HandleFunc("POST /api/fund-transfers", s.handleCreateFundTransfer)
	mux.HandleFunc("GET /api/fund-transfers", s.handleListFundTransfers)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)
	mux.HandleFunc("GET /api/transfers", s.handleListTransfers)

	mux.HandleFunc("POST /api/distribution-rules", s.handleCreateRule)
	mux.HandleFunc("GET /api/distribution-rules", s.handleListRules)
	mux.HandleFunc("PUT /api/distribution-rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/distribution-rules/{id}", s.handleDeleteRule)
	mux.HandleFunc("POST /api/income", s.handleRecordIncome)
	mux.HandleFunc("GET /api/income", s.handleListIncomes)
	mux.HandleFunc("POST /api/recurring-income", s.handleCreateRecurringIncome)
	mux.HandleFunc("GET /api/recurring-income", s.handleListRecurringIncomes)
	mux.HandleFunc("DELETE /api/recurring-income/{id}", s.handleDeleteRecurringIncome)

	mux.HandleFunc("POST /api/credits", s.handleCreateCredit)
	mux.HandleFunc("GET /api/credits", s.handleListCredits)
	mux.HandleFunc("GET /api/credits/{id}", s.handleGetCredit)
	mux.HandleFunc("GET /api/credits/{id}/installments", s.handleListInstallments)
	mux.HandleFunc("POST /api/credits/{id}/installments/{seq}/pay", s.handlePayInstallment)

	mux.HandleFunc("POST /api/imports", s.handleCreateImport)
	mux.HandleFunc("GET /api/imports/{id}", s.handleGetImport)
	mux.HandleFunc("GET /api/imports/{id}/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/imports/{id}/reanalyze", s.handleReanalyzeImport)
	mux.HandleFunc("POST /api/imports/{id}/confirm", s.handleConfirmImport)
	mux.HandleFunc("POST /api/import-mappings", s.handleCreateMapping)
	mux.HandleFunc("GET /api/import-mappings", s.handleListMappings)
	mux.HandleFunc("DELETE /api/import-mappings/{id}", s.handleDeleteMapping)
}

// rateLimited is the JSON 429 sent when the per-IP limit trips.
func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

// watchScans logs requests that look like vulnerability scans. Detection is
// advisory; the request still proceeds through the normal chain.
func (s *Server) watchScans(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request pattern",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// getOverview serves the dashboard through the LRU cache, reading through
// to the store on a miss.
func (s *Server) getOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	key := fmt.Sprintf("%d-%02d", year, month)
	if ov, ok := s.overviewCache.Get(key); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return ov, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	ctx, cancel := context.WithTimeout(ctx, overviewTimeout)
	defer cancel()
	ov, err := s.store.ReadMonthOverview(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	s.overviewCache.Set(key, ov)
	return ov, nil
}

// invalidateOverviews drops every cached dashboard. Overviews report live
// fund balances, so a write dated in one month still changes every cached
// month.
func (s *Server) invalidateOverviews() {
	s.overviewCache.Clear()
}

// Shutdown stops the background loops, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady probes the backend with a bounded read. A broken store means
// the process is alive but should not receive traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := http.StatusOK
	if _, err := s.store.ListFunds(ctx, false); err != nil {
		checks["backend"] = "unavailable: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	body := map[string]any{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	respondJSON(w, status, body)
}

// handleMetrics exposes process counters as plain text, one metric per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	httpMetrics := s.tracer.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	scanMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "fondi_uptime_seconds %d\n", int64(time.Since(s.startedAt).Seconds()))
	fmt.Fprintf(w, "fondi_http_requests_total %d\n", httpMetrics.TotalRequests)
	fmt.Fprintf(w, "fondi_http_response_time_avg_us %d\n", httpMetrics.AverageResponseTime)
	fmt.Fprintf(w, "fondi_rate_limit_denied_total %d\n", rateMetrics.TotalDenied)
	fmt.Fprintf(w, "fondi_rate_limit_active_clients %d\n", rateMetrics.ClientCount)
	fmt.Fprintf(w, "fondi_suspicious_requests_total %d\n", scanMetrics.SuspiciousRequests)
	fmt.Fprintf(w, "fondi_operations_created_total %d\n", atomic.LoadInt64(&s.metrics.operationsCreated))
	fmt.Fprintf(w, "fondi_incomes_recorded_total %d\n", atomic.LoadInt64(&s.metrics.incomesRecorded))
	fmt.Fprintf(w, "fondi_import_batches_created_total %d\n", atomic.LoadInt64(&s.metrics.batchesCreated))
	fmt.Fprintf(w, "fondi_overview_cache_hits_total %d\n", atomic.LoadInt64(&s.metrics.cacheHits))
	fmt.Fprintf(w, "fondi_overview_cache_misses_total %d\n", atomic.LoadInt64(&s.metrics.cacheMisses))
	fmt.Fprintf(w, "fondi_overview_cache_entries %d\n", s.overviewCache.Size())
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r.URL.Query(), s.now())
	ov, err := s.getOverview(r.Context(), year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overviewToPayload(ov))
}

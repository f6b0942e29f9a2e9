// Package http exposes the engine as a JSON API: imports, transactions,
// rules, reports, charts, settings, and recurring generators.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendreport/internal/middleware/ratelimit"
	"spendreport/internal/middleware/security"
	"spendreport/internal/middleware/trace"
	"spendreport/internal/services"
)

// Services bundles the application services the handlers need.
type Services struct {
	Import       *services.ImportService
	Transactions *services.TransactionService
	Rules        *services.RulesService
	Settings     *services.SettingsService
	Reports      *services.ReportService
	Recurring    *services.RecurringService
}

type Server struct {
	http.Server
	svc          Services
	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures middleware and routes, returning a ready-to-run
// server. Readiness uses the ready function, which should report whether
// startup loading finished.
func NewServer(addr string, svc Services, ready func() bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:         svc,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))

	mux.HandleFunc("POST /api/import/preview", s.handleImportPreview)
	mux.HandleFunc("POST /api/import", s.handleImportCommit)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions/delete", s.handleDeleteTransactions)
	mux.HandleFunc("POST /api/transactions/negate", s.handleNegateTransactions)
	mux.HandleFunc("POST /api/transactions/reassign", s.handleReassignTransactions)

	mux.HandleFunc("GET /api/rules", s.handleListRules)
	mux.HandleFunc("POST /api/rules", s.handleAddRule)
	mux.HandleFunc("PUT /api/rules", s.handleReplaceRules)
	mux.HandleFunc("POST /api/rules/bulk", s.handleAddRulesBulk)
	mux.HandleFunc("DELETE /api/rules/{matchText}", s.handleDeleteRule)
	mux.HandleFunc("POST /api/rules/{matchText}/top", s.handleMoveRuleToTop)
	mux.HandleFunc("POST /api/rules/{matchText}/bottom", s.handleMoveRuleToBottom)
	mux.HandleFunc("POST /api/categories/rename", s.handleRenameCategory)
	mux.HandleFunc("POST /api/subcategories/rename", s.handleRenameSubcategory)
	mux.HandleFunc("GET /api/categories", s.handleRegistry)

	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/charts/donut", s.handleDonut)
	mux.HandleFunc("GET /api/charts/bar", s.handleBar)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/generators", s.handleListGenerators)
	mux.HandleFunc("POST /api/generators", s.handleAddGenerator)
	mux.HandleFunc("DELETE /api/generators/{name}", s.handleDeleteGenerator)
	mux.HandleFunc("POST /api/generators/run", s.handleRunGenerators)

	ipExtractor := security.NewClientIPExtractor()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(ipExtractor.ExtractClientIP)
	limited := s.rateLimiter.Middleware(ipExtractor.ExtractClientIP, nil)

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the server and its middleware cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("loading"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

// Package http serves the JSON API: the yearly report, its spreadsheet
// export, transaction writes and health probes.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Reports      *services.ReportService
	Transactions *services.TransactionService
	// Ready is checked by /readyz; nil means always ready.
	Ready Pinger
}

// Options tune transport behaviour.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// ExportFormat is used when the request does not name one.
	ExportFormat export.Format
	// MaxRecentLimit bounds the limit query parameter of /api/report.
	MaxRecentLimit int
}

type Server struct {
	http.Server

	reports      *services.ReportService
	transactions *services.TransactionService
	ready        Pinger

	logger         *log.Logger
	rateLimiter    *ratelimit.Limiter
	tracer         *trace.Middleware
	exportFormat   export.Format
	maxRecentLimit int
	started        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = export.XLSX
	}
	if opts.MaxRecentLimit <= 0 {
		opts.MaxRecentLimit = 100
	}

	ipResolver := security.NewIPResolver()

	s := &Server{
		reports:        deps.Reports,
		transactions:   deps.Transactions,
		ready:          deps.Ready,
		logger:         opts.Logger,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:         trace.NewMiddleware(opts.Logger, ipResolver.ClientIP),
		exportFormat:   opts.ExportFormat,
		maxRecentLimit: opts.MaxRecentLimit,
		started:        time.Now(),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/report", s.handleReport)
	api.HandleFunc("GET /api/report/export", s.handleExport)
	api.HandleFunc("GET /api/report/years", s.handleYears)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	limitLogger := s.logger.WithComponent(log.ComponentRateLimit)
	limited := s.rateLimiter.Middleware(ipResolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		limitLogger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path)
		writeErrorKind(w, http.StatusTooManyRequests, KindRateLimited, "rate limit exceeded, try again later")
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", limited(security.NoStore(api)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

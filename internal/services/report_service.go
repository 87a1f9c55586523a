package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledger"
	"finboard/internal/report"
)

// ReportService serves reports and exports over the stored transactions.
// Concurrent requests for the same report share one computation, and results
// are cached until the next write.
type ReportService struct {
	lister      ledger.TransactionLister
	recentLimit int

	cache      *cache.LRUCache[report.Report]
	group      singleflight.Group
	generation atomic.Uint64
}

type ReportConfig struct {
	RecentLimit int
	CacheSize   int
	CacheTTL    time.Duration
}

func NewReportService(lister ledger.TransactionLister, cfg ReportConfig) *ReportService {
	return &ReportService{
		lister:      lister,
		recentLimit: cfg.RecentLimit,
		cache:       cache.NewLRUCache[report.Report](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Cache exposes the report cache for periodic expiry sweeps.
func (s *ReportService) Cache() *cache.LRUCache[report.Report] {
	return s.cache
}

// Invalidate drops every cached report. Computations already in flight
// finish under the old generation and are never served afterwards.
func (s *ReportService) Invalidate() {
	s.generation.Add(1)
	s.cache.Purge()
}

// Report returns the report for a raw year selector using the configured
// recent-transactions limit.
func (s *ReportService) Report(ctx context.Context, year string) (report.Report, error) {
	return s.ReportWithLimit(ctx, year, s.recentLimit)
}

// ReportWithLimit is Report with an explicit recent-transactions limit.
// Selector and limit errors come back as *report.InvalidFilterError and
// *report.InvalidLimitError.
func (s *ReportService) ReportWithLimit(ctx context.Context, year string, limit int) (report.Report, error) {
	sel, err := report.ParseYear(year)
	if err != nil {
		return report.Report{}, err
	}
	if limit < 1 {
		return report.Report{}, &report.InvalidLimitError{Limit: limit}
	}

	key := fmt.Sprintf("%d|%s|%d", s.generation.Load(), sel, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cloneReport(cached), nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		records, err := s.lister.ListTransactions(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		r, err := report.AssembleSelected(records, sel, limit)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, r)
		return r, nil
	})

	select {
	case <-ctx.Done():
		return report.Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return report.Report{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Report computation shared", "key", key)
		}
		return cloneReport(res.Val.(report.Report)), nil
	}
}

// Export renders the transactions matching year in the given format.
func (s *ReportService) Export(ctx context.Context, year string, format export.Format) ([]byte, error) {
	sel, err := report.ParseYear(year)
	if err != nil {
		return nil, err
	}
	records, err := s.lister.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return export.Export(report.Filter(records, sel), format)
}

// Years lists the distinct years with at least one transaction, newest first.
func (s *ReportService) Years(ctx context.Context) ([]int, error) {
	records, err := s.lister.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return report.Years(records), nil
}

// cloneReport copies the slices of a cached report so callers cannot reach
// the cache through the returned value.
func cloneReport(r report.Report) report.Report {
	r.MonthlyData = append(make([]report.MonthlyEntry, 0, len(r.MonthlyData)), r.MonthlyData...)
	r.RecentTransactions = append(make([]core.Transaction, 0, len(r.RecentTransactions)), r.RecentTransactions...)
	return r
}

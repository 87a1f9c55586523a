package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledger/memory"
	"finboard/internal/report"
)

type countingLister struct {
	calls   atomic.Int32
	records []core.Transaction
	release chan struct{}
	err     error
}

func (l *countingLister) ListTransactions(context.Context) ([]core.Transaction, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return append([]core.Transaction(nil), l.records...), nil
}

func fixture() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Type: core.Income, Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 1, 15), Category: "Salary"},
		{ID: "2", Type: core.Expense, Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 1, 20), Category: "Rent"},
		{ID: "3", Type: core.Expense, Amount: core.Money{Cents: 50000}, Date: core.NewDate(2023, 12, 5), Category: "Gifts"},
	}
}

func defaultConfig() ReportConfig {
	return ReportConfig{RecentLimit: 5, CacheSize: 8, CacheTTL: time.Minute}
}

func TestReportService_Report(t *testing.T) {
	lister := &countingLister{records: fixture()}
	svc := NewReportService(lister, defaultConfig())
	ctx := context.Background()

	r, err := svc.Report(ctx, "2024")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), r.TotalIncome.Cents)
	assert.Equal(t, int64(30000), r.TotalExpense.Cents)
	assert.Equal(t, report.SavingsGrowing, r.SavingsStatus)

	all, err := svc.Report(ctx, "ALL")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), all.AvailableBalance.Cents)
	assert.Len(t, all.MonthlyData, 2)
}

func TestReportService_Errors(t *testing.T) {
	svc := NewReportService(&countingLister{records: fixture()}, defaultConfig())

	_, err := svc.Report(context.Background(), "20x4")
	var filterErr *report.InvalidFilterError
	assert.ErrorAs(t, err, &filterErr)

	cfg := defaultConfig()
	cfg.RecentLimit = 0
	svc = NewReportService(&countingLister{records: fixture()}, cfg)
	_, err = svc.Report(context.Background(), "all")
	assert.ErrorIs(t, err, report.ErrInvalidLimit)

	boom := errors.New("disk gone")
	svc = NewReportService(&countingLister{err: boom}, defaultConfig())
	_, err = svc.Report(context.Background(), "all")
	assert.ErrorIs(t, err, boom)
}

func TestReportService_CachesUntilInvalidated(t *testing.T) {
	lister := &countingLister{records: fixture()}
	svc := NewReportService(lister, defaultConfig())
	ctx := context.Background()

	first, err := svc.Report(ctx, "all")
	require.NoError(t, err)
	second, err := svc.Report(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), lister.calls.Load())

	svc.Invalidate()
	_, err = svc.Report(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestReportService_CachedValueIsNotShared(t *testing.T) {
	svc := NewReportService(&countingLister{records: fixture()}, defaultConfig())
	ctx := context.Background()

	first, err := svc.Report(ctx, "all")
	require.NoError(t, err)
	first.RecentTransactions[0].Category = "mutated"
	first.MonthlyData[0].Income = core.Money{Cents: 1}

	second, err := svc.Report(ctx, "all")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second.RecentTransactions[0].Category)
	assert.NotEqual(t, int64(1), second.MonthlyData[0].Income.Cents)
}

func TestReportService_SingleFlight(t *testing.T) {
	lister := &countingLister{records: fixture(), release: make(chan struct{})}
	svc := NewReportService(lister, defaultConfig())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]report.Report, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Report(context.Background(), "2024")
		}(i)
	}

	require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(lister.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestReportService_ContextCancelled(t *testing.T) {
	lister := &countingLister{records: fixture(), release: make(chan struct{})}
	defer close(lister.release)
	svc := NewReportService(lister, defaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.Report(ctx, "all")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReportService_ExportAndYears(t *testing.T) {
	svc := NewReportService(memory.New(fixture()...), defaultConfig())
	ctx := context.Background()

	data, err := svc.Export(ctx, "2023", export.CSV)
	require.NoError(t, err)
	assert.Equal(t, "date,type,category,amount\n2023-12-05,expense,Gifts,500.00\n", string(data))

	_, err = svc.Export(ctx, "", export.CSV)
	assert.ErrorIs(t, err, report.ErrInvalidFilter)

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023}, years)
}

func TestReportService_InvalidateThroughTransactionService(t *testing.T) {
	store := memory.New(fixture()...)
	reports := NewReportService(store, defaultConfig())
	txs := NewTransactionService(store, nil, reports)
	ctx := context.Background()

	before, err := reports.Report(ctx, "2024")
	require.NoError(t, err)

	_, err = txs.Create(ctx, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 10000}, Date: core.NewDate(2024, 2, 1), Category: "Food",
	})
	require.NoError(t, err)

	after, err := reports.Report(ctx, "2024")
	require.NoError(t, err)
	assert.Equal(t, before.TotalExpense.Cents+10000, after.TotalExpense.Cents)
}

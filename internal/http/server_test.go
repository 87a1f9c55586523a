package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	"finboard/internal/export"
	"finboard/internal/ledger/memory"
	"finboard/internal/log"
	"finboard/internal/services"
)

func seed() []core.Transaction {
	return []core.Transaction{
		{ID: "1", Type: core.Income, Amount: core.Money{Cents: 100000}, Date: core.NewDate(2024, 1, 15), Category: "Salary"},
		{ID: "2", Type: core.Expense, Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 1, 20), Category: "Rent"},
		{ID: "3", Type: core.Expense, Amount: core.Money{Cents: 20000}, Date: core.NewDate(2024, 2, 3), Category: "Food"},
		{ID: "4", Type: core.Income, Amount: core.Money{Cents: 50000}, Date: core.NewDate(2023, 12, 5), Category: "Bonus"},
		{ID: "5", Type: core.Expense, Amount: core.Money{Cents: 70000}, Date: core.NewDate(2023, 12, 24), Category: "Gifts"},
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, ready Pinger) *Server {
	t.Helper()
	store := memory.New(seed()...)
	reports := services.NewReportService(store, services.ReportConfig{RecentLimit: 5, CacheSize: 16, CacheTTL: time.Minute})
	txs := services.NewTransactionService(store, nil, reports)

	srv := NewServer(":0", Deps{Reports: reports, Transactions: txs, Ready: ready}, Options{
		Logger:             log.New(log.Config{Output: io.Discard, Component: log.ComponentHTTP}),
		RateLimitPerMinute: 1000,
		ExportFormat:       export.CSV,
		MaxRecentLimit:     50,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	failing := newTestServer(t, pingFunc(func(context.Context) error { return errors.New("database is locked") }))
	rec := do(t, failing, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestReport_DefaultsToAllYears(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/report", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Year             string  `json:"year"`
		TotalIncome      float64 `json:"totalIncome"`
		TotalExpense     float64 `json:"totalExpense"`
		AvailableBalance float64 `json:"availableBalance"`
		SavingsStatus    string  `json:"savingsStatus"`
		MonthlyData      []struct {
			Month   string  `json:"month"`
			Income  float64 `json:"income"`
			Expense float64 `json:"expense"`
		} `json:"monthlyData"`
		RecentTransactions []core.Transaction `json:"recentTransactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "all", body.Year)
	assert.Equal(t, 1500.0, body.TotalIncome)
	assert.Equal(t, 1200.0, body.TotalExpense)
	assert.Equal(t, 300.0, body.AvailableBalance)
	assert.Equal(t, "growing", body.SavingsStatus)
	require.Len(t, body.MonthlyData, 3)
	assert.Equal(t, "2023-12", body.MonthlyData[0].Month)
	assert.Equal(t, "2024-02", body.MonthlyData[2].Month)
	require.Len(t, body.RecentTransactions, 5)
	assert.Equal(t, "3", body.RecentTransactions[0].ID)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestReport_YearAndLimit(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/report?year=2023&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"savingsStatus":"negative"`)
	assert.Contains(t, rec.Body.String(), `"availableBalance":-200.00`)

	var body struct {
		RecentTransactions []core.Transaction `json:"recentTransactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.RecentTransactions, 1)
	assert.Equal(t, "5", body.RecentTransactions[0].ID)
}

func TestReport_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		target string
		kind   string
	}{
		{"/api/report?year=", KindInvalidFilter},
		{"/api/report?year=20x4", KindInvalidFilter},
		{"/api/report?year=last%20year", KindInvalidFilter},
		{"/api/report?limit=0", KindInvalidLimit},
		{"/api/report?limit=-3", KindInvalidLimit},
		{"/api/report?limit=abc", KindInvalidLimit},
		{"/api/report?limit=51", KindInvalidLimit},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.target, nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/report/export?year=2023", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="report.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "date,type,category,amount\n2023-12-05,income,Bonus,500.00\n2023-12-24,expense,Gifts,700.00\n", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/report/export?format=xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.XLSX.ContentType(), rec.Header().Get("Content-Type"))
	decoded, err := export.Decode(bytes.NewReader(rec.Body.Bytes()), export.XLSX)
	require.NoError(t, err)
	assert.Len(t, decoded, 5)

	rec = do(t, srv, http.MethodGet, "/api/report/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindExportError, decodeError(t, rec).Kind)

	rec = do(t, srv, http.MethodGet, "/api/report/export?year=abc", nil, "")
	assert.Equal(t, KindInvalidFilter, decodeError(t, rec).Kind)
}

func TestYears(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/report/years", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"years":[2024,2023]}`, rec.Body.String())
}

func TestTransactions_CreateListDelete(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{"type":"expense","amount":"12,50","date":"2024-03-01","category":"Coffee","description":"beans","id":"ignored"}`
	rec := do(t, srv, http.MethodPost, "/api/transactions", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEqual(t, "ignored", created.ID)
	assert.Equal(t, int64(1250), created.Amount.Cents)
	assert.Equal(t, "/api/transactions/"+created.ID, rec.Header().Get("Location"))

	// The write invalidates the cached report.
	rec = do(t, srv, http.MethodGet, "/api/report?year=2024&limit=1", nil, "")
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(t, srv, http.MethodGet, "/api/transactions?type=expense", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Transactions, 4)
	assert.Equal(t, created.ID, list.Transactions[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/transactions/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, KindNotFound, decodeError(t, rec).Kind)
}

func TestTransactions_CreateFromForm(t *testing.T) {
	srv := newTestServer(t, nil)
	form := "type=income&amount=1000&date=2024-04-01&category=Salary"
	rec := do(t, srv, http.MethodPost, "/api/transactions", strings.NewReader(form), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":1000.00`)
}

func TestTransactions_Validation(t *testing.T) {
	srv := newTestServer(t, nil)
	bodies := []string{
		`{"type":"transfer","amount":"1","date":"2024-01-01","category":"x"}`,
		`{"type":"expense","amount":"0","date":"2024-01-01","category":"x"}`,
		`{"type":"expense","amount":"-5","date":"2024-01-01","category":"x"}`,
		`{"type":"expense","amount":"5","date":"yesterday","category":"x"}`,
		`{"type":"expense","amount":"5","date":"2024-01-01","category":"  "}`,
		`{"type":"expense","amount":"5","date":"2024-01-01","category":"` + strings.Repeat("c", 101) + `"}`,
		`{"type":`,
	}
	for _, body := range bodies {
		rec := do(t, srv, http.MethodPost, "/api/transactions", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, KindValidationError, decodeError(t, rec).Kind, body)
	}

	rec := do(t, srv, http.MethodGet, "/api/transactions?type=transfer", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	store := memory.New()
	reports := services.NewReportService(store, services.ReportConfig{RecentLimit: 5, CacheSize: 4, CacheTTL: time.Minute})
	srv := NewServer(":0", Deps{Reports: reports, Transactions: services.NewTransactionService(store, nil, reports)}, Options{
		Logger:             log.New(log.Config{Output: io.Discard}),
		RateLimitPerMinute: 2,
	})
	defer srv.Shutdown(context.Background())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/report/years", nil, "").Code)
	}
	rec := do(t, srv, http.MethodGet, "/api/report/years", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, KindRateLimited, decodeError(t, rec).Kind)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Probes are not rate limited.
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", nil, "").Code)
}

func TestClassify(t *testing.T) {
	status, kind := classify(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, KindInternalError, kind)

	status, kind = classify(&export.ExportError{Index: 2, Field: "type", Reason: "unknown"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, KindExportError, kind)
}

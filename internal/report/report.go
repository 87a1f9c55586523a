// Package report turns a collection of transactions into the dashboard
// report: year filtering, income/expense totals with a savings status, a
// chronological monthly series and a recent-transactions excerpt.
//
// Everything here is pure and synchronous. Identical inputs always produce
// equal Report values, and a Report never shares memory with its input.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"finboard/internal/core"
)

// Report is the assembled dashboard payload for one year selector.
type Report struct {
	Year               string             `json:"year"`
	TotalIncome        core.Money         `json:"totalIncome"`
	TotalExpense       core.Money         `json:"totalExpense"`
	AvailableBalance   core.Money         `json:"availableBalance"`
	SavingsStatus      SavingsStatus      `json:"savingsStatus"`
	SavingsMessage     string             `json:"savingsMessage,omitempty"`
	MonthlyData        []MonthlyEntry     `json:"monthlyData"`
	RecentTransactions []core.Transaction `json:"recentTransactions"`
}

// Assemble parses selector and builds the report over the matching records.
// Selector and limit errors are returned unwrapped.
func Assemble(records []core.Transaction, selector string, recentLimit int) (Report, error) {
	sel, err := ParseYear(selector)
	if err != nil {
		return Report{}, err
	}
	return AssembleSelected(records, sel, recentLimit)
}

// AssembleSelected is Assemble for an already parsed selector.
func AssembleSelected(records []core.Transaction, sel YearSelector, recentLimit int) (Report, error) {
	if recentLimit < 1 {
		return Report{}, &InvalidLimitError{Limit: recentLimit}
	}

	filtered := Filter(records, sel)
	totals := Aggregate(filtered)

	return Report{
		Year:               sel.String(),
		TotalIncome:        totals.TotalIncome,
		TotalExpense:       totals.TotalExpense,
		AvailableBalance:   totals.AvailableBalance,
		SavingsStatus:      totals.SavingsStatus,
		SavingsMessage:     totals.SavingsStatus.Message(),
		MonthlyData:        Bucket(filtered),
		RecentTransactions: Recent(filtered, recentLimit),
	}, nil
}

// Recent returns up to limit records ordered by date, newest first. Records
// sharing a date keep their input order.
func Recent(records []core.Transaction, limit int) []core.Transaction {
	sorted := make([]core.Transaction, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	if limit < len(sorted) {
		sorted = append([]core.Transaction(nil), sorted[:limit]...)
	}
	return sorted
}

func (k MonthKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *MonthKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return fmt.Errorf("invalid month key %q: %w", s, err)
	}
	*k = MonthKey{Year: t.Year(), Month: int(t.Month())}
	return nil
}

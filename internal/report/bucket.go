package report

import (
	"fmt"
	"sort"

	"finboard/internal/core"
)

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

// Less orders keys chronologically.
func (k MonthKey) Less(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// String renders the key as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// MonthlyEntry holds the income and expense totals of one month.
type MonthlyEntry struct {
	Month   MonthKey   `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// Bucket groups records by (year, month) and returns one entry per month
// present, oldest first. Months without records are not synthesized.
func Bucket(records []core.Transaction) []MonthlyEntry {
	index := make(map[MonthKey]int)
	entries := make([]MonthlyEntry, 0)
	for _, tx := range records {
		key := MonthKey{Year: tx.Date.Year(), Month: tx.Date.Month()}
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, MonthlyEntry{Month: key})
		}
		switch tx.Type {
		case core.Income:
			entries[i].Income = entries[i].Income.Add(tx.Amount)
		case core.Expense:
			entries[i].Expense = entries[i].Expense.Add(tx.Amount)
		}
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Month.Less(entries[b].Month)
	})
	return entries
}

package google

import (
	"fmt"
	"strings"

	"finboard/internal/core"
)

func toRow(tx core.Transaction) []any {
	return []any{
		tx.Date.String(),
		tx.Type.String(),
		tx.Category,
		tx.Amount.String(),
		tx.Description,
		tx.ID,
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// findRow returns the 1-based sheet row whose ID column equals id, or 0.
func findRow(values [][]interface{}, id string) int {
	if id == "" {
		return 0
	}
	for i, row := range values {
		if safeGet(toStrings(row), idColumn) == id {
			return i + 1
		}
	}
	return 0
}

// parseRows converts sheet values into transactions. The header, cleared rows
// and rows that do not parse are skipped; the sheet is a mirror and may be
// edited by hand.
func parseRows(values [][]interface{}) []core.Transaction {
	out := make([]core.Transaction, 0, len(values))
	for _, raw := range values {
		cols := toStrings(raw)
		date, err := core.ParseDate(safeGet(cols, 0))
		if err != nil {
			continue
		}
		typ, err := core.ParseType(safeGet(cols, 1))
		if err != nil {
			continue
		}
		amount, err := core.ParseAmount(safeGet(cols, 3))
		if err != nil {
			continue
		}
		out = append(out, core.Transaction{
			ID:          safeGet(cols, idColumn),
			Type:        typ,
			Amount:      amount,
			Date:        date,
			Category:    safeGet(cols, 2),
			Description: safeGet(cols, 4),
		})
	}
	return out
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"finboard/internal/core"
)

// Decode reads a spreadsheet in the exported layout back into transactions.
// Columns are located by header name, so extra columns are tolerated; "id"
// and "description" are picked up when present. Rows without an id get a
// fresh one.
func Decode(r io.Reader, format Format) ([]core.Transaction, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case XLSX:
		rows, err = readXLSX(r)
	case CSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err = cr.ReadAll()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rows, nil
}

func decodeRows(rows [][]string) ([]core.Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
	}

	cols := make(map[string]int)
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]core.Transaction, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}
		date, err := core.ParseDate(get(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		typ, err := core.ParseType(get(row, "type"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		amount, err := core.ParseAmount(get(row, "amount"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		category := get(row, "category")
		if category == "" {
			return nil, fmt.Errorf("row %d: %w", line, core.ErrEmptyCategory)
		}
		id := get(row, "id")
		if id == "" {
			id = core.NewID()
		}
		out = append(out, core.Transaction{
			ID:          id,
			Type:        typ,
			Amount:      amount,
			Date:        date,
			Category:    category,
			Description: get(row, "description"),
		})
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

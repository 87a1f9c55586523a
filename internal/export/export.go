// Package export serializes transaction records into a downloadable
// spreadsheet and reads such spreadsheets back.
//
// The column contract is fixed: date, type, category, amount. Rows follow the
// input order; the exporter never filters or sorts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"finboard/internal/core"
)

// Format selects the spreadsheet encoding.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

const sheetName = "Sheet1"

// Header is the stable column contract shared by every format.
var Header = []string{"date", "type", "category", "amount"}

// docTime pins the workbook properties so that equal input yields equal files.
const docTime = "2000-01-01T00:00:00Z"

// ParseFormat accepts "xlsx" or "csv" in any case. An empty string selects xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", XLSX:
		return XLSX, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "report." + f.Ext()
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Export validates every record and then renders the whole set. On a
// validation failure it returns an *ExportError and no bytes.
func Export(records []core.Transaction, format Format) ([]byte, error) {
	for i, tx := range records {
		if err := validateRecord(i, tx); err != nil {
			return nil, err
		}
	}

	switch format {
	case XLSX:
		return writeXLSX(records)
	case CSV:
		return writeCSV(records)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

func validateRecord(i int, tx core.Transaction) error {
	switch {
	case tx.Date.IsZero():
		return &ExportError{Index: i, Field: "date", Reason: "missing"}
	case !tx.Type.Valid():
		return &ExportError{Index: i, Field: "type", Reason: fmt.Sprintf("unknown type %q", string(tx.Type))}
	case tx.Amount.Cents < 0:
		return &ExportError{Index: i, Field: "amount", Reason: "negative amount " + tx.Amount.String()}
	case tx.Amount.Cents > core.MaxCents:
		return &ExportError{Index: i, Field: "amount", Reason: "amount out of range " + tx.Amount.String()}
	case strings.TrimSpace(tx.Category) == "":
		return &ExportError{Index: i, Field: "category", Reason: "missing"}
	}
	return nil
}

func row(tx core.Transaction) []string {
	return []string{tx.Date.String(), tx.Type.String(), tx.Category, tx.Amount.String()}
}

func writeCSV(records []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range records {
		if err := w.Write(row(tx)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(records []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Created:  docTime,
		Modified: docTime,
		Creator:  "finboard",
		Title:    "report",
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(Header), 14); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, tx := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			tx.Date.String(),
			tx.Type.String(),
			tx.Category,
			excelize.Cell{StyleID: amountStyle, Value: tx.Amount.Float64()},
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

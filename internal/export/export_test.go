package export

import (
	"bytes"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	"finboard/internal/report"
)

func tx(id string, typ core.Type, cents int64, y, m, d int, category string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(y, m, d),
		Category: category,
	}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("1", core.Income, 10000, 2024, 1, 5, "Salary"),
		tx("2", core.Expense, 4000, 2024, 1, 20, "Groceries, market"),
		tx("3", core.Income, 6000, 2024, 2, 1, "Refund"),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", XLSX},
		{"xlsx", XLSX},
		{"XLSX", XLSX},
		{" csv ", CSV},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, "report.xlsx", XLSX.Filename())
	assert.Equal(t, "report.csv", CSV.Filename())
	assert.Contains(t, XLSX.ContentType(), "spreadsheetml")
	assert.Contains(t, CSV.ContentType(), "text/csv")
}

func TestExportCSV_Layout(t *testing.T) {
	out, err := Export(sample(), CSV)
	require.NoError(t, err)

	want := "date,type,category,amount\n" +
		"2024-01-05,income,Salary,100.00\n" +
		"2024-01-20,expense,\"Groceries, market\",40.00\n" +
		"2024-02-01,income,Refund,60.00\n"
	assert.Equal(t, want, string(out))
}

func TestExport_EmptyInputHasHeaderOnly(t *testing.T) {
	out, err := Export(nil, CSV)
	require.NoError(t, err)
	assert.Equal(t, "date,type,category,amount\n", string(out))

	out, err = Export(nil, XLSX)
	require.NoError(t, err)
	decoded, err := Decode(bytes.NewReader(out), XLSX)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestExport_Deterministic(t *testing.T) {
	for _, format := range []Format{CSV, XLSX} {
		t.Run(string(format), func(t *testing.T) {
			a, err := Export(sample(), format)
			require.NoError(t, err)
			b, err := Export(sample(), format)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(a, b), "export bytes differ between runs")
		})
	}
}

func TestExport_StructuralErrors(t *testing.T) {
	valid := tx("ok", core.Income, 100, 2024, 1, 1, "Salary")

	noDate := valid
	noDate.Date = core.Date{}
	badType := valid
	badType.Type = core.Type("transfer")
	negative := valid
	negative.Amount = core.Money{Cents: -1}
	tooLarge := valid
	tooLarge.Amount = core.Money{Cents: core.MaxCents + 1}
	noCategory := valid
	noCategory.Category = "  "

	tests := []struct {
		name  string
		bad   core.Transaction
		field string
	}{
		{"zero date", noDate, "date"},
		{"unknown type", badType, "type"},
		{"negative amount", negative, "amount"},
		{"amount out of range", tooLarge, "amount"},
		{"blank category", noCategory, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, format := range []Format{CSV, XLSX} {
				out, err := Export([]core.Transaction{valid, valid, tt.bad}, format)
				assert.Nil(t, out, "no partial output")

				var exportErr *ExportError
				require.True(t, errors.As(err, &exportErr))
				assert.ErrorIs(t, err, ErrExport)
				assert.Equal(t, 2, exportErr.Index)
				assert.Equal(t, tt.field, exportErr.Field)
			}
		})
	}
}

func TestExport_ZeroAmountIsExportable(t *testing.T) {
	out, err := Export([]core.Transaction{tx("z", core.Expense, 0, 2024, 3, 3, "Adjust")}, CSV)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-03-03,expense,Adjust,0.00")
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(sample(), Format("ods"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRoundTrip_PreservesRowsAndTotals(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	records := make([]core.Transaction, 0, 120)
	for i := 0; i < 120; i++ {
		typ := core.Income
		if r.Intn(3) == 0 {
			typ = core.Expense
		}
		records = append(records, tx(strconv.Itoa(i), typ, r.Int63n(5_000_000), 2019+r.Intn(6), 1+r.Intn(12), 1+r.Intn(28), "Cat "+strconv.Itoa(r.Intn(7))))
	}
	for i, cents := range []int64{core.MaxCents, core.MaxCents - 6, 90_071_992_547_409, 70_368_744_177_663, 12_345_678_901_293} {
		records = append(records, tx("big"+strconv.Itoa(i), core.Income, cents, 2024, 12, 31, "Large"))
	}
	for i := 0; i < 50; i++ {
		records = append(records, tx("rnd"+strconv.Itoa(i), core.Expense, core.MaxCents-r.Int63n(1_000_000_000), 2024, 6, 1, "Large"))
	}

	for _, format := range []Format{CSV, XLSX} {
		t.Run(string(format), func(t *testing.T) {
			out, err := Export(records, format)
			require.NoError(t, err)

			decoded, err := Decode(bytes.NewReader(out), format)
			require.NoError(t, err)
			require.Len(t, decoded, len(records))

			assert.Equal(t, report.Aggregate(records), report.Aggregate(decoded))
			for i := range records {
				assert.Equal(t, records[i].Date, decoded[i].Date)
				assert.Equal(t, records[i].Type, decoded[i].Type)
				assert.Equal(t, records[i].Amount, decoded[i].Amount)
				assert.Equal(t, records[i].Category, decoded[i].Category)
			}
		})
	}
}

func TestDecode_OptionalColumns(t *testing.T) {
	in := "id,date,type,category,amount,description\n" +
		"abc,2024-05-01,Income,Salary,\"1234,50\",May pay\n" +
		",,,,,\n" +
		",2024-05-02,expense,Rent,800,\n"

	got, err := Decode(strings.NewReader(in), CSV)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "abc", got[0].ID)
	assert.Equal(t, core.Income, got[0].Type)
	assert.Equal(t, int64(123450), got[0].Amount.Cents)
	assert.Equal(t, "May pay", got[0].Description)

	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, int64(80000), got[1].Amount.Cents)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrMalformed},
		{"missing column", "date,type,amount\n2024-01-01,income,1\n", ErrMalformed},
		{"bad date", "date,type,category,amount\n01/02/2024,income,x,1\n", core.ErrInvalidDate},
		{"bad type", "date,type,category,amount\n2024-01-02,gift,x,1\n", core.ErrInvalidType},
		{"bad amount", "date,type,category,amount\n2024-01-02,income,x,-1\n", core.ErrInvalidAmount},
		{"no category", "date,type,category,amount\n2024-01-02,income,,1\n", core.ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in), CSV)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Decode(strings.NewReader("not a zip"), XLSX)
	assert.ErrorIs(t, err, ErrMalformed)
}

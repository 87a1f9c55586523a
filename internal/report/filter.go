package report

import (
	"sort"
	"strconv"
	"strings"

	"finboard/internal/core"
)

const (
	// AllTime is the selector keyword for an unfiltered report.
	AllTime = "all"

	minYear = 1
	maxYear = 9999
)

// YearSelector restricts a record set to one calendar year or to all time.
// The zero value selects all time.
type YearSelector struct {
	year int
}

// Year returns the selected year and true, or 0 and false for all time.
func (s YearSelector) Year() (int, bool) {
	return s.year, s.year != 0
}

// IsAll reports whether s selects all time.
func (s YearSelector) IsAll() bool {
	return s.year == 0
}

// String renders the selector the way ParseYear accepts it.
func (s YearSelector) String() string {
	if s.IsAll() {
		return AllTime
	}
	return strconv.Itoa(s.year)
}

// AllYears selects every record.
func AllYears() YearSelector {
	return YearSelector{}
}

// ForYear selects a single calendar year.
func ForYear(year int) (YearSelector, error) {
	if year < minYear || year > maxYear {
		return YearSelector{}, &InvalidFilterError{
			Selector: strconv.Itoa(year),
			Reason:   "year must be between 1 and 9999",
		}
	}
	return YearSelector{year: year}, nil
}

// ParseYear parses "all" (any case) or a base-10 calendar year.
func ParseYear(raw string) (YearSelector, error) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, AllTime) {
		return AllYears(), nil
	}
	if s == "" {
		return YearSelector{}, &InvalidFilterError{Selector: raw, Reason: "empty selector"}
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return YearSelector{}, &InvalidFilterError{Selector: raw, Reason: "not a year"}
	}
	sel, err := ForYear(year)
	if err != nil {
		return YearSelector{}, &InvalidFilterError{Selector: raw, Reason: "year must be between 1 and 9999"}
	}
	return sel, nil
}

// Filter returns the records matching sel in their original relative order.
// The result never aliases records.
func Filter(records []core.Transaction, sel YearSelector) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	if sel.IsAll() {
		return append(out, records...)
	}
	for _, tx := range records {
		if tx.Date.Year() == sel.year {
			out = append(out, tx)
		}
	}
	return out
}

// Years returns the distinct calendar years present in records, newest first.
func Years(records []core.Transaction) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, tx := range records {
		y := tx.Date.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

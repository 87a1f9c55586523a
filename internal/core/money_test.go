package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"999999999999999999999", 0, false},
		{"999999999999.99", MaxCents, true},
		{"1000000000000", 0, false},
		{"50000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmountAllowsZero(t *testing.T) {
	m, err := ParseAmount("0.00")
	if err != nil || m.Cents != 0 {
		t.Fatalf("expected zero amount, got %d (err=%v)", m.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		16000:  "160.00",
		-1230:  "-12.30",
		123456: "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 12000}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":120.00}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`{"amount":120}`, `{"amount":"120.00"}`, `{"amount":119.999}`} {
		var v struct {
			Amount Money `json:"amount"`
		}
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if v.Amount.Cents != 12000 {
			t.Fatalf("unmarshal %s: got %d cents", in, v.Amount.Cents)
		}
	}

	var v struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":-1}`), &v); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestMoneySign(t *testing.T) {
	if (Money{Cents: -1}).Sign() != -1 || (Money{}).Sign() != 0 || (Money{Cents: 3}).Sign() != 1 {
		t.Fatalf("unexpected sign results")
	}
}

func TestMoneyValidateRange(t *testing.T) {
	cases := map[int64]bool{
		-1:           false,
		0:            false,
		1:            true,
		MaxCents:     true,
		MaxCents + 1: false,
	}
	for cents, ok := range cases {
		if err := (Money{Cents: cents}).Validate(); (err == nil) != ok {
			t.Fatalf("Money{%d}.Validate() = %v, want ok=%v", cents, err, ok)
		}
	}
}

func TestMoneyAddClamps(t *testing.T) {
	if got := (Money{Cents: 2}).Add(Money{Cents: 3}); got.Cents != 5 {
		t.Fatalf("2+3 = %d", got.Cents)
	}
	if got := (Money{Cents: math.MaxInt64 - 1}).Add(Money{Cents: MaxCents}); got.Cents != math.MaxInt64 {
		t.Fatalf("expected clamp to MaxInt64, got %d", got.Cents)
	}
	if got := (Money{Cents: math.MinInt64 + 1}).Add(Money{Cents: -MaxCents}); got.Cents != math.MinInt64 {
		t.Fatalf("expected clamp to MinInt64, got %d", got.Cents)
	}
}

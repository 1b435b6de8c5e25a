package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"12", "12.0000", false},
		{"0.5", "0.5000", false},
		{"-2.5", "-2.5000", false},
		{"3.14159", "3.1415", false}, // extra digits truncated
		{".25", "0.2500", false},
		{"+7", "7.0000", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuantity(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := q.String(); got != tt.want {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestQuantity_DecimalRoundTrip(t *testing.T) {
	q, err := ParseQuantity("1.2345")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := NewQuantityFromDecimal(q.Decimal()); got != q {
		t.Errorf("decimal round trip changed the value: %s vs %s", q, got)
	}
}

func TestNewMinorUnitsFromDecimal_Rounding(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"99.4", 99},
		{"99.5", 100}, // half rounds away from zero
		{"99.6", 100},
		{"-99.5", -100},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			if got := NewMinorUnitsFromDecimal(d); int64(got) != tt.want {
				t.Errorf("want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMinorUnits_DivRoundHalfUp(t *testing.T) {
	tests := []struct {
		name string
		m    MinorUnits
		n    int64
		want MinorUnits
	}{
		{"exact", 1000, 4, 250},
		{"rounds up at half", 235, 4, 59}, // 58.75
		{"repeating fraction", 1000, 3, 333},
		{"zero divisor", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.DivRoundHalfUp(tt.n); got != tt.want {
				t.Errorf("want %d, got %d", tt.want, got)
			}
		})
	}
}

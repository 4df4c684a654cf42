package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestReceiptGrandTotal(t *testing.T) {
	tests := []struct {
		amount, tax, want string
	}{
		{"100.00", "8.25", "108.25"},
		{"0", "0", "0"},
		{"0.10", "0.20", "0.30"},
		{"1999.99", "0.01", "2000.00"},
	}
	for _, tt := range tests {
		got := ReceiptGrandTotal(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.tax))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ReceiptGrandTotal(%s, %s) = %s, want %s", tt.amount, tt.tax, got, tt.want)
		}
	}
}

func TestTimeLogTotal(t *testing.T) {
	tests := []struct {
		hours, rate, want string
	}{
		{"7.5", "42.00", "315.00"},
		{"0.25", "80", "20"},
		{"8", "0", "0"},
		{"1.1", "33.33", "36.663"},
	}
	for _, tt := range tests {
		got := TimeLogTotal(decimal.RequireFromString(tt.hours), decimal.RequireFromString(tt.rate))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("TimeLogTotal(%s, %s) = %s, want %s", tt.hours, tt.rate, got, tt.want)
		}
	}
}

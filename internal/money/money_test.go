package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{"100", 10000, nil},
		{"83.5", 8350, nil},
		{"91700.25", 9170025, nil},
		{"0.07", 7, nil},
		{"-5", -500, nil},
		{"+2.50", 250, nil},
		{" 12 ", 1200, nil},
		{"1.005", 0, ErrTooManyDecimals},
		{"abc", 0, ErrInvalidAmount},
		{"1.2x", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != tc.wantErr {
			t.Fatalf("ParseMinor(%q) error = %v, want %v", tc.input, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		input int64
		want  string
	}{
		{10000000, "100000.00"},
		{9170000, "91700.00"},
		{7, "0.07"},
		{-50, "-0.50"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatMinor(tc.input); got != tc.want {
			t.Fatalf("FormatMinor(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestConvertMinor(t *testing.T) {
	rate := decimal.RequireFromString("83")
	if got := ConvertMinor(10000, rate); got != 830000 {
		t.Fatalf("ConvertMinor(10000, 83) = %d, want 830000", got)
	}
	// Banker's rounding on the half-paise boundary.
	rate = decimal.RequireFromString("83.555")
	if got := ConvertMinor(100, rate); got != 8356 {
		t.Fatalf("ConvertMinor(100, 83.555) = %d, want 8356", got)
	}
	rate = decimal.RequireFromString("84.50")
	if got := ConvertMinor(10000, rate); got != 845000 {
		t.Fatalf("ConvertMinor(10000, 84.50) = %d, want 845000", got)
	}
}

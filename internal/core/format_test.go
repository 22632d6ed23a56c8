package core

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{5, "$5"},
		{999, "$999"},
		{1000, "$1,000"},
		{1234567.8, "$1,234,568"},
		{-2500, "-$2,500"},
		{math.NaN(), "$0"},
		{math.Inf(1), "$0"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Fatalf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(45.123); got != "45.1%" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPercent(math.NaN()); got != "0%" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatMunicipalityName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"NorthAdams", "North Adams"},
		{"Boston", "Boston"},
		{"ManchesterByTheSea", "Manchester By The Sea"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatMunicipalityName(tc.in); got != tc.want {
			t.Fatalf("FormatMunicipalityName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripSpaces(t *testing.T) {
	if got := StripSpaces("North Adams"); got != "NorthAdams" {
		t.Fatalf("got %q", got)
	}
}

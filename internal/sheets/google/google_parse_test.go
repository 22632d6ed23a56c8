package google

import (
	"reflect"
	"testing"
)

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$1,250,000", 1250000, true},
		{"$500", 500, true},
		{"75000.50", 75000.50, true},
		{" $40,000 ", 40000, true},
		{"", 0, false},
		{"TBD", 0, false},
		{"$", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDollars(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseDollars(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"North Adams; Adams; Williamstown", []string{"North Adams", "Adams", "Williamstown"}},
		{"Harm Reduction", []string{"Harm Reduction"}},
		{"a;;b; ", []string{"a", "b"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToStringsAndSafeGet(t *testing.T) {
	row := toStrings([]interface{}{" Awardee ", 1250000, true})
	if !reflect.DeepEqual(row, []string{"Awardee", "1250000", "true"}) {
		t.Fatalf("toStrings = %v", row)
	}
	if safeGet(row, 1) != "1250000" {
		t.Fatalf("safeGet(1) = %q", safeGet(row, 1))
	}
	if safeGet(row, 10) != "" || safeGet(row, -1) != "" {
		t.Fatal("out-of-range index must return empty string")
	}
}

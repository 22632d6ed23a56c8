package storage

import (
	"reflect"
	"testing"

	"orrfdash/internal/core"
)

func TestResolveHistoricalNames(t *testing.T) {
	fy25 := map[string]bool{
		"Boston":             true,
		"NorthAdams":         true,
		"MtWashington":       true,
		"ManchesterByTheSea": true,
	}
	fy23 := map[string]core.Record{
		"Boston":           {"municipality": "Boston"},
		"North Adams":      {"municipality": "North Adams"},
		"Mount Washington": {"municipality": "Mount Washington"},
	}
	fy24 := map[string]core.Record{
		"Manchester": {"municipality": "Manchester"},
		"Atlantis":   {"municipality": "Atlantis"},
	}

	nameMap, unresolved := resolveHistoricalNames(fy23, fy24, fy25)

	// Verbatim matches need no mapping entry.
	if _, ok := nameMap["Boston"]; ok {
		t.Fatal("verbatim match should not be remapped")
	}
	if nameMap["North Adams"] != "NorthAdams" {
		t.Fatalf("space stripping failed: %q", nameMap["North Adams"])
	}
	if nameMap["Mount Washington"] != "MtWashington" {
		t.Fatalf("alias resolution failed: %q", nameMap["Mount Washington"])
	}
	if nameMap["Manchester"] != "ManchesterByTheSea" {
		t.Fatalf("alias resolution failed: %q", nameMap["Manchester"])
	}
	if !reflect.DeepEqual(unresolved, []string{"Atlantis"}) {
		t.Fatalf("unresolved = %v", unresolved)
	}
}

func TestResolveHistoricalNamesUnresolvedSorted(t *testing.T) {
	fy23 := map[string]core.Record{
		"Zeta": {}, "Alpha": {}, "Mid": {},
	}
	_, unresolved := resolveHistoricalNames(fy23, nil, map[string]bool{})
	if !reflect.DeepEqual(unresolved, []string{"Alpha", "Mid", "Zeta"}) {
		t.Fatalf("unresolved not sorted: %v", unresolved)
	}
}

func TestRekeyHistorical(t *testing.T) {
	raw := map[string]core.Record{
		"North Adams": {"funds_received": 10.0},
		"Atlantis":    {"funds_received": 5.0},
	}
	out := rekeyHistorical(raw, map[string]string{"North Adams": "NorthAdams"})
	if _, ok := out["NorthAdams"]; !ok {
		t.Fatal("resolved name should be rekeyed")
	}
	if _, ok := out["North Adams"]; ok {
		t.Fatal("old key should be gone after rekeying")
	}
	if _, ok := out["Atlantis"]; !ok {
		t.Fatal("unresolved rows keep their raw key")
	}
}

package services

import (
	"errors"
	"testing"

	"orrfdash/internal/core"
)

func TestEntityDetail(t *testing.T) {
	ds := standardDataset()
	ds.FY24["NorthAdams"] = core.Record{"municipality": "North Adams"}
	r := testReports(ds)

	detail, err := r.EntityDetail("1")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Entity.DisplayName != "North Adams" {
		t.Fatalf("entity = %+v", detail.Entity)
	}
	if len(detail.Expenditures) != 2 {
		t.Fatalf("expenditures = %d", len(detail.Expenditures))
	}
	if len(detail.Projects) != 1 || detail.Projects[0].Name != "Harm Reduction" {
		t.Fatalf("projects = %+v", detail.Projects)
	}
	if len(detail.Documents) != 1 {
		t.Fatalf("documents = %d", len(detail.Documents))
	}
	if len(detail.FiscalYears) != 2 || detail.FiscalYears[0] != 2025 || detail.FiscalYears[1] != 2024 {
		t.Fatalf("fiscal years = %v", detail.FiscalYears)
	}
}

func TestEntityDetailNotFound(t *testing.T) {
	r := testReports(standardDataset())
	if _, err := r.EntityDetail("nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

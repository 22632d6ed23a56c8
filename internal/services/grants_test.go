package services

import (
	"testing"

	"orrfdash/internal/core"
)

func grantsDataset() *Reports {
	ds := standardDataset()
	ds.CountyByMunicipality["North Adams"] = "Berkshire"
	ds.RizeByMunicipality["North Adams"] = []core.Grant{
		{Awardee: "Berkshire Harm Reduction", Amount: 75000, Municipalities: []string{"North Adams", "Adams"}},
	}
	ds.MosaicCoreByCounty["Berkshire"] = []core.Grant{
		{Awardee: "Berkshire Coalition", Amount: 120000, Geography: "Berkshire"},
	}
	ds.FamilyResilienceByCounty["Berkshire"] = []core.Grant{
		{Awardee: "Family Services of the Berkshires", Amount: 40000, Geography: "Berkshire"},
	}
	ds.FamilyResilienceByCounty["Essex"] = []core.Grant{
		{Awardee: "Essex Families First", Amount: 90000, Geography: "Essex"},
	}
	ds.StatewideFamilyResilience = []core.Grant{
		{Awardee: "Statewide Helpline", Amount: 300000, Geography: "Statewide"},
	}
	return testReports(ds)
}

func TestGrantsForMatchedMunicipality(t *testing.T) {
	r := grantsDataset()
	g, err := r.GrantsFor("North Adams")
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if len(g.Core) != 1 || g.Core[0].Awardee != "Berkshire Coalition" {
		t.Fatalf("core = %+v", g.Core)
	}
	if len(g.FamilyResilience) != 1 {
		t.Fatalf("family resilience = %+v", g.FamilyResilience)
	}
	if len(g.Statewide) != 1 {
		t.Fatalf("statewide = %+v", g.Statewide)
	}
}

func TestGrantsForUnknownMunicipality(t *testing.T) {
	r := grantsDataset()
	g, err := r.GrantsFor("SomeTown")
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if len(g.Core) != 0 || len(g.FamilyResilience) != 0 {
		t.Fatalf("unknown town should get no county grants: %+v", g)
	}
	if g.Core == nil || g.FamilyResilience == nil {
		t.Fatal("empty results must be empty slices, not nil")
	}
	if len(g.Statewide) != 1 {
		t.Fatal("statewide grants apply regardless of county resolution")
	}
}

func TestRizeGrants(t *testing.T) {
	r := grantsDataset()
	grants, err := r.RizeGrants("North Adams")
	if err != nil {
		t.Fatalf("rize: %v", err)
	}
	if len(grants) != 1 || grants[0].Awardee != "Berkshire Harm Reduction" {
		t.Fatalf("rize = %+v", grants)
	}

	none, err := r.RizeGrants("SomeTown")
	if err != nil {
		t.Fatalf("rize: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("no grants expected: %+v", none)
	}
}

func TestCounty(t *testing.T) {
	r := grantsDataset()
	county, err := r.County("North Adams")
	if err != nil || county != "Berkshire" {
		t.Fatalf("county = %q, err %v", county, err)
	}
	county, err = r.County("SomeTown")
	if err != nil || county != "" {
		t.Fatalf("unknown town county = %q, err %v", county, err)
	}
}

func TestAllRegionalGrants(t *testing.T) {
	r := grantsDataset()
	g, err := r.AllRegionalGrants()
	if err != nil {
		t.Fatalf("all grants: %v", err)
	}
	if len(g.FamilyResilience) != 2 {
		t.Fatalf("flattened family resilience = %d", len(g.FamilyResilience))
	}
	// Sorted by amount descending across counties.
	if g.FamilyResilience[0].Awardee != "Essex Families First" {
		t.Fatalf("sort order: %+v", g.FamilyResilience)
	}
}

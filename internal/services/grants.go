package services

import (
	"sort"

	"orrfdash/internal/core"
)

// RegionalGrants groups the Mosaic-program grants relevant to one
// municipality. Statewide grants apply regardless of county resolution.
type RegionalGrants struct {
	Core             []core.Grant `json:"core"`
	FamilyResilience []core.Grant `json:"familyResilience"`
	Statewide        []core.Grant `json:"statewide"`
}

// RizeGrants returns the RIZE grants that explicitly list the municipality
// among those they serve. No grants is a normal empty result.
func (r *Reports) RizeGrants(municipality string) ([]core.Grant, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.RizeByMunicipality[municipality], nil
}

// County returns the county of a municipality, or "" when the mapping table
// does not know it.
func (r *Reports) County(municipality string) (string, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return "", err
	}
	return ds.CountyByMunicipality[municipality], nil
}

// GrantsFor matches Mosaic grants to a municipality through its county.
// A municipality absent from the county mapping gets no county-based
// matches, but statewide Family Resilience grants always apply.
func (r *Reports) GrantsFor(municipality string) (RegionalGrants, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return RegionalGrants{}, err
	}

	g := RegionalGrants{
		Core:             []core.Grant{},
		FamilyResilience: []core.Grant{},
		Statewide:        ds.StatewideFamilyResilience,
	}
	if county := ds.CountyByMunicipality[municipality]; county != "" {
		if grants := ds.MosaicCoreByCounty[county]; grants != nil {
			g.Core = grants
		}
		if grants := ds.FamilyResilienceByCounty[county]; grants != nil {
			g.FamilyResilience = grants
		}
	}
	if g.Statewide == nil {
		g.Statewide = []core.Grant{}
	}
	return g, nil
}

// AllRegionalGrants flattens every county index for the grants overview,
// each list sorted by amount descending.
func (r *Reports) AllRegionalGrants() (RegionalGrants, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return RegionalGrants{}, err
	}

	g := RegionalGrants{
		Core:             flattenGrants(ds.MosaicCoreByCounty),
		FamilyResilience: flattenGrants(ds.FamilyResilienceByCounty),
		Statewide:        append([]core.Grant{}, ds.StatewideFamilyResilience...),
	}
	sortGrantsByAmount(g.Statewide)
	return g, nil
}

func flattenGrants(byCounty map[string][]core.Grant) []core.Grant {
	counties := make([]string, 0, len(byCounty))
	for county := range byCounty {
		counties = append(counties, county)
	}
	sort.Strings(counties)

	var out []core.Grant
	for _, county := range counties {
		out = append(out, byCounty[county]...)
	}
	sortGrantsByAmount(out)
	if out == nil {
		out = []core.Grant{}
	}
	return out
}

func sortGrantsByAmount(grants []core.Grant) {
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].Amount > grants[j].Amount
	})
}

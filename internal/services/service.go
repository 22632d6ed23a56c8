// Package services implements the read-only report views the dashboard
// serves: statewide aggregates, per-entity breakdowns, search, grant
// matching and state spending rollups. Every method is a pure function over
// the store's current dataset snapshot.
package services

import (
	"orrfdash/internal/core"
	"orrfdash/internal/storage"
)

// Reports exposes the aggregate views over a loaded dataset.
type Reports struct {
	store *storage.Store
}

func New(store *storage.Store) *Reports {
	return &Reports{store: store}
}

// Store returns the underlying record store.
func (r *Reports) Store() *storage.Store {
	return r.store
}

// StatewideSummary holds the headline totals across all reporting entities.
// Carryover is intentionally not part of TotalRemaining here: the summary
// tracks disbursed settlement money only.
type StatewideSummary struct {
	TotalEntities    int     `json:"totalEntities"`
	TotalDistributed float64 `json:"totalDistributed"`
	TotalExpended    float64 `json:"totalExpended"`
	TotalEncumbered  float64 `json:"totalEncumbered"`
	TotalRemaining   float64 `json:"totalRemaining"`
}

// Summary computes the statewide totals.
func (r *Reports) Summary() (StatewideSummary, error) {
	entities, err := r.store.Entities()
	if err != nil {
		return StatewideSummary{}, err
	}

	var s StatewideSummary
	s.TotalEntities = len(entities)
	for _, e := range entities {
		s.TotalDistributed += e.Disbursement
		s.TotalExpended += e.TotalExpended
		s.TotalEncumbered += e.TotalEncumbered
	}
	s.TotalRemaining = s.TotalDistributed - s.TotalExpended - s.TotalEncumbered
	return s, nil
}

// EntityDetail bundles the per-entity views a detail page needs.
type EntityDetail struct {
	Entity       core.Entity          `json:"entity"`
	Expenditures []core.Expenditure   `json:"expenditures"`
	Projects     []core.Project       `json:"projects"`
	Narratives   core.Narratives      `json:"narratives"`
	Documents    []core.PDFAttachment `json:"documents"`
	FiscalYears  []int                `json:"fiscalYears"`
}

// EntityDetail assembles the full detail view for one record id.
func (r *Reports) EntityDetail(id string) (EntityDetail, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return EntityDetail{}, err
	}
	rec, ok := ds.Records[id]
	if !ok {
		return EntityDetail{}, core.ErrNotFound
	}

	var entity core.Entity
	for _, e := range ds.Entities {
		if e.RecordID == id {
			entity = e
			break
		}
	}
	years, err := r.store.FiscalYears(entity.Name)
	if err != nil {
		return EntityDetail{}, err
	}
	return EntityDetail{
		Entity:       entity,
		Expenditures: ds.Expenditures[id],
		Projects:     core.Projects(rec),
		Narratives:   core.ExtractNarratives(rec),
		Documents:    ds.Attachments[id],
		FiscalYears:  years,
	}, nil
}

package services

import (
	"fmt"
	"math"
	"sort"

	"orrfdash/internal/core"
)

// reconciliationEpsilon is the tolerance, in dollars, between line-item sums
// and the reported totals before an entity is flagged.
const reconciliationEpsilon = 0.01

// CategoryTotal is the statewide rollup for one spending category.
type CategoryTotal struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Expended   float64 `json:"expended"`
	Encumbered float64 `json:"encumbered"`
	Total      float64 `json:"total"`
}

// SpendingByCategory sums net line-item amounts into the six fixed
// categories, split by status. Every category appears even when zero.
// Line items with an unknown category id are dropped from the rollup: the
// category charts stay clean and the unknowns remain visible in the
// per-entity expenditure lists.
func (r *Reports) SpendingByCategory() ([]CategoryTotal, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}

	totals := make(map[int]*CategoryTotal, len(core.Categories))
	for id, name := range core.Categories {
		totals[id] = &CategoryTotal{ID: id, Name: name}
	}

	for _, e := range ds.Entities {
		for _, exp := range ds.Expenditures[e.RecordID] {
			ct, ok := totals[exp.CategoryID]
			if !ok {
				continue
			}
			net := exp.Net()
			if exp.Status == core.StatusExpended {
				ct.Expended += net
			} else {
				ct.Encumbered += net
			}
			ct.Total += net
		}
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Reconciliation compares an entity's line-item sums against its two
// reported totals.
type Reconciliation struct {
	LineItemExpended   float64 `json:"lineItemExpended"`
	LineItemEncumbered float64 `json:"lineItemEncumbered"`
	ReportedExpended   float64 `json:"reportedExpended"`
	ReportedEncumbered float64 `json:"reportedEncumbered"`
	ExpendedDiff       float64 `json:"expendedDiff"`
	EncumberedDiff     float64 `json:"encumberedDiff"`
	HasDiscrepancy     bool    `json:"hasDiscrepancy"`
}

// Reconcile flags a record when either status bucket differs from the
// reported total by more than the epsilon.
func (r *Reports) Reconcile(id string) (Reconciliation, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return Reconciliation{}, err
	}
	rec, ok := ds.Records[id]
	if !ok {
		return Reconciliation{}, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}

	var rc Reconciliation
	for _, exp := range ds.Expenditures[id] {
		if exp.Status == core.StatusExpended {
			rc.LineItemExpended += exp.Net()
		} else {
			rc.LineItemEncumbered += exp.Net()
		}
	}
	rc.ReportedExpended = rec.Num("t_exp") + rec.Num("t_exp_v2")
	rc.ReportedEncumbered = rec.Num("t_enc") + rec.Num("t_enc_v2")
	rc.ExpendedDiff = rc.LineItemExpended - rc.ReportedExpended
	rc.EncumberedDiff = rc.LineItemEncumbered - rc.ReportedEncumbered
	rc.HasDiscrepancy = math.Abs(rc.ExpendedDiff) > reconciliationEpsilon ||
		math.Abs(rc.EncumberedDiff) > reconciliationEpsilon
	return rc, nil
}

// TopSpenders returns the entities with the highest expended+encumbered
// totals, in descending order. Ties keep the stable input (name) order.
func (r *Reports) TopSpenders(limit int) ([]core.Entity, error) {
	if limit < 1 {
		return nil, fmt.Errorf("top spenders limit %d: %w", limit, core.ErrInvalidLimit)
	}
	entities, err := r.store.Entities()
	if err != nil {
		return nil, err
	}

	spenders := make([]core.Entity, 0, len(entities))
	for _, e := range entities {
		if e.TotalExpended > 0 || e.TotalEncumbered > 0 {
			spenders = append(spenders, e)
		}
	}
	sort.SliceStable(spenders, func(i, j int) bool {
		return spenders[i].TotalExpended+spenders[i].TotalEncumbered >
			spenders[j].TotalExpended+spenders[j].TotalEncumbered
	})
	if len(spenders) > limit {
		spenders = spenders[:limit]
	}
	return spenders, nil
}

// Collaboratives groups pooled entities into their OACs. Pooled totals sum
// every member's contribution; expended/encumbered mirror the lead member's
// own original-form totals, because the lead files the pooled spending on
// behalf of the collaborative.
func (r *Reports) Collaboratives() ([]core.Collaborative, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}

	byID := map[int]*core.Collaborative{}
	var order []int
	for _, e := range ds.Entities {
		rec, ok := ds.Records[e.RecordID]
		if !ok || rec.Int("pooled_yn") != 1 {
			continue
		}
		collabID := rec.Int("collaborative_name")
		if collabID == 0 {
			continue
		}

		collab, ok := byID[collabID]
		if !ok {
			name, known := core.CollaborativeNames[collabID]
			if !known {
				name = fmt.Sprintf("Collaborative %d", collabID)
			}
			collab = &core.Collaborative{ID: collabID, Name: name}
			byID[collabID] = collab
			order = append(order, collabID)
		}

		isLead := rec.Int("lead_muni") == 1
		collab.Members = append(collab.Members, core.CollaborativeMember{
			RecordID:     e.RecordID,
			Name:         e.DisplayName,
			Contribution: rec.Num("amt_pooled"),
			IsLead:       isLead,
		})
		collab.TotalPooled += rec.Num("amt_pooled")
		if isLead {
			collab.LeadName = e.DisplayName
			collab.TotalExpended = rec.Num("t_exp")
			collab.TotalEncumbered = rec.Num("t_enc")
		}
	}

	out := make([]core.Collaborative, 0, len(order))
	for _, id := range order {
		if len(byID[id].Members) > 0 {
			out = append(out, *byID[id])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPooled > out[j].TotalPooled
	})
	return out, nil
}

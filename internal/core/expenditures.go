package core

import "fmt"

// NormalizeExpenditures expands the wide-format expenditure columns of a
// record into discrete line items. Both form versions are scanned; a slot is
// emitted only when its name column is non-empty. The function is pure:
// repeated calls on the same record produce identical output, which is what
// lets the store cache the result per record at load time.
func NormalizeExpenditures(rec Record) []Expenditure {
	var items []Expenditure
	items = appendFormExpenditures(rec, FormOriginal, items)
	items = appendFormExpenditures(rec, FormRevised, items)
	return items
}

func appendFormExpenditures(rec Record, v FormVersion, items []Expenditure) []Expenditure {
	for i := 1; i <= ExpenditureSlots; i++ {
		cols := ExpenditureColumns(i, v)
		name := rec.Str(cols.Name)
		if name == "" {
			continue
		}

		status := StatusEncumbered
		if rec.Int(cols.Status) == 1 {
			status = StatusExpended
		}

		catID := rec.Int(cols.Category)
		items = append(items, Expenditure{
			Name:         name,
			CategoryID:   catID,
			Category:     CategoryName(catID),
			Amount:       rec.Num(cols.Amount),
			Offset:       rec.Num(cols.Offset),
			Status:       status,
			Description:  rec.Str(cols.Description),
			Notes:        rec.Str(cols.Notes),
			OffsetVendor: rec.Str(cols.OffsetVendor),
			Project:      resolveProject(rec, rec.Int(cols.ProjectSlot), v),
			Source:       v,
		})
	}
	return items
}

// resolveProject maps an expenditure's project slot value to a label.
// Slot 6 is the administrative-costs sentinel; slots 1..5 resolve to the
// corresponding project name, falling back to a synthesized label when the
// name field was left blank. Anything else means no project reference.
func resolveProject(rec Record, slot int, v FormVersion) string {
	switch {
	case slot == 6:
		return AdministrativeCosts
	case slot >= 1 && slot <= ProjectSlots:
		nameCol, _ := ProjectColumns(slot, v)
		if name := rec.Str(nameCol); name != "" {
			return name
		}
		return fmt.Sprintf("Project %d", slot)
	default:
		return ""
	}
}

// Projects returns the named initiatives of a record, both form versions,
// skipping empty slots.
func Projects(rec Record) []Project {
	var projects []Project
	for _, v := range []FormVersion{FormOriginal, FormRevised} {
		for i := 1; i <= ProjectSlots; i++ {
			nameCol, descCol := ProjectColumns(i, v)
			name := rec.Str(nameCol)
			if name == "" {
				continue
			}
			projects = append(projects, Project{
				Name:        name,
				Description: rec.Str(descCol),
				Source:      v,
			})
		}
	}
	return projects
}

// IsOrganizationReport reports whether a record filed the original
// (organization/collaborative-lead) form rather than the revised municipal one.
func IsOrganizationReport(rec Record) bool {
	return rec.Str("muni_org") == "Organization" ||
		(rec.Int("pooled_yn") == 1 && rec.Int("lead_muni") == 1)
}

// ExtractNarratives pulls the free-text report fields of a record, choosing
// between the original and revised columns based on who filed the report.
func ExtractNarratives(rec Record) Narratives {
	suffix := FormSuffix(FormRevised)
	if IsOrganizationReport(rec) {
		suffix = FormSuffix(FormOriginal)
	}

	level := rec.Int("pwlle_mult" + suffix)
	label, ok := PWLLELevels[level]
	if !ok {
		label = "Not Specified"
	}

	return Narratives{
		PWLLE: PWLLE{
			Level:       level,
			LevelLabel:  label,
			Description: rec.Str("pwlle_text" + suffix),
		},
		Highlight:       rec.Str("highlight" + suffix),
		HighlightUpload: rec.Str("highlight_upload" + suffix),
		NoExpenseWork:   rec.Str("no_expense_work" + suffix),
		FuturePlans:     rec.Str("future_spend_plans" + suffix),
	}
}

// HasAny reports whether any narrative text was filed.
func (n Narratives) HasAny() bool {
	return n.PWLLE.Description != "" || n.Highlight != "" || n.NoExpenseWork != "" || n.FuturePlans != ""
}

// NewEntity builds the immutable summary view of a record. The override, if
// non-nil, caps the utilization percentage; it must come from the documented
// override table, never from ad hoc name checks.
func NewEntity(rec Record, override *UtilizationOverride) Entity {
	name := rec.Str("municipality_csv")
	disbursement := rec.Num("agonumbers")
	carryover := rec.Num("ro_funds")
	expended := rec.Num("t_exp") + rec.Num("t_exp_v2")
	encumbered := rec.Num("t_enc") + rec.Num("t_enc_v2")
	available := disbursement + carryover

	pct := 0.0
	if available > 0 {
		pct = (expended + encumbered) / available * 100
	}
	if override != nil && pct > override.CappedPct {
		pct = override.CappedPct
	}

	return Entity{
		RecordID:        rec.ID(),
		Name:            name,
		DisplayName:     FormatMunicipalityName(name),
		Kind:            rec.Str("muni_org"),
		Disbursement:    disbursement,
		Carryover:       carryover,
		TotalAvailable:  available,
		TotalExpended:   expended,
		TotalEncumbered: encumbered,
		TotalRemaining:  available - expended - encumbered,
		MosaicFunding:   rec.Num("mosaic_funding"),
		Pooled:          rec.Int("pooled_yn") == 1,
		CollaborativeID: rec.Int("collaborative_name"),
		PctUtilized:     pct,
	}
}

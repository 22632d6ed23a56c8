package services

import (
	"fmt"
	"math"

	"orrfdash/internal/core"
	"orrfdash/internal/storage"
)

type (
	// HeroStat is one headline figure with its provenance. Source names the
	// table column or formula the value came from so the UI can surface
	// where every number originates.
	HeroStat struct {
		Value   float64 `json:"value"`
		Display string  `json:"display,omitempty"`
		Source  string  `json:"source"`
		Label   string  `json:"label"`
		Warning string  `json:"warning,omitempty"`
		Count   int     `json:"count,omitempty"`
	}

	// HeroData is the per-year headline card for one municipality.
	HeroData struct {
		FiscalYear      int       `json:"fiscalYear"`
		RecordID        string    `json:"recordId,omitempty"`
		SourceFile      string    `json:"sourceFile"`
		Disbursement    HeroStat  `json:"disbursement"`
		Carryover       HeroStat  `json:"carryover"`
		Expended        HeroStat  `json:"expended"`
		Utilized        HeroStat  `json:"utilized"`
		Mosaic          *HeroStat `json:"mosaic,omitempty"`
		Rize            *HeroStat `json:"rize,omitempty"`
		Unexpended      *HeroStat `json:"unexpended,omitempty"`
		SurveyPath      string    `json:"surveyPath,omitempty"`
		ReportingStatus string    `json:"reportingStatus,omitempty"`
	}
)

// HeroData builds the headline card for one municipality and fiscal year.
// A name/year pair with no data returns core.ErrNotFound, which the HTTP
// layer surfaces as an explicit no-data response.
func (r *Reports) HeroData(name string, fiscalYear int) (HeroData, error) {
	switch fiscalYear {
	case 2025:
		return r.heroFY25(name)
	case 2024:
		return r.heroFY24(name)
	case 2023:
		return r.heroFY23(name)
	default:
		return HeroData{}, fmt.Errorf("fiscal year %d: %w", fiscalYear, core.ErrInvalidYear)
	}
}

func (r *Reports) heroFY25(name string) (HeroData, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return HeroData{}, err
	}

	var entity *core.Entity
	for i := range ds.Entities {
		if ds.Entities[i].Name == name {
			entity = &ds.Entities[i]
			break
		}
	}
	if entity == nil {
		return HeroData{}, core.ErrNotFound
	}
	rec := ds.Records[entity.RecordID]

	expended := rec.Num("t_exp") + rec.Num("t_exp_v2")
	encumbered := rec.Num("t_enc") + rec.Num("t_enc_v2")
	roFunds := rec.Num("ro_funds")
	available := rec.Num("agonumbers") + roFunds

	pct := 0.0
	if available > 0 {
		pct = (expended + encumbered) / available * 100
	}

	hero := HeroData{
		FiscalYear: 2025,
		RecordID:   entity.RecordID,
		SourceFile: "municipal_data",
		Disbursement: HeroStat{
			Value:  rec.Num("agonumbers"),
			Source: "municipal_data.agonumbers",
			Label:  "FY25 Disbursement",
		},
		Carryover: HeroStat{
			Value:   roFunds,
			Source:  "municipal_data.ro_funds",
			Label:   "Carryover Funds",
			Warning: carryoverWarning(ds, name, roFunds, pct),
		},
		Expended: HeroStat{
			Value:  expended,
			Source: "municipal_data.t_exp + t_exp_v2",
			Label:  "Expended",
		},
	}

	utilSource := "calculated: (t_exp + t_exp_v2 + t_enc + t_enc_v2) / (agonumbers + ro_funds)"
	if override, ok := ds.Overrides[entity.RecordID]; ok && pct > override.CappedPct {
		pct = override.CappedPct
		utilSource = "manual override: " + override.Reason
	}
	hero.Utilized = HeroStat{
		Value:   pct,
		Display: core.FormatPercent(pct),
		Source:  utilSource,
		Label:   "Utilized",
	}

	if mosaic := rec.Num("mosaic_funding"); mosaic > 0 {
		hero.Mosaic = &HeroStat{
			Value:  mosaic,
			Source: "municipal_data.mosaic_funding",
			Label:  "Mosaic Funding",
		}
	}
	if rize := ds.RizeByMunicipality[name]; len(rize) > 0 {
		var total float64
		for _, g := range rize {
			total += g.Amount
		}
		if total > 0 {
			hero.Rize = &HeroStat{
				Value:  total,
				Count:  len(rize),
				Source: "rize_grants table",
				Label:  "RIZE Municipal Matching",
			}
		}
	}
	return hero, nil
}

// carryoverWarning cross-checks the FY25 carryover figure against the FY24
// unexpended balance, falling back to the FY23 receipts when over-100%
// utilization suggests a missing carryover.
func carryoverWarning(ds *storage.Dataset, name string, roFunds, pct float64) string {
	fy24, hasFY24 := ds.FY24[name]
	fy23, hasFY23 := ds.FY23[name]

	switch {
	case hasFY24 && fy24.HasValue("unexpended_funds") && roFunds > 0:
		diff := roFunds - fy24.Num("unexpended_funds")
		if math.Abs(diff) >= 1 {
			return fmt.Sprintf("municipal_data.ro_funds (%s) differs from municipal_data_fy24.unexpended_funds (%s) by %s",
				core.FormatCurrency(roFunds),
				core.FormatCurrency(fy24.Num("unexpended_funds")),
				core.FormatCurrency(math.Abs(diff)))
		}
	case pct > 100 && hasFY23 && fy23.Num("funds_received") > 0:
		fy24Label := "municipal_data_fy24.unexpended_funds is empty"
		if hasFY24 && fy24.HasValue("unexpended_funds") {
			fy24Label = fmt.Sprintf("municipal_data_fy24.unexpended_funds = %s", core.FormatCurrency(fy24.Num("unexpended_funds")))
		}
		return fmt.Sprintf("Utilization is %.0f%% - possible missing carryover. municipal_data_fy23.funds_received = %s, %s",
			pct, core.FormatCurrency(fy23.Num("funds_received")), fy24Label)
	case !hasFY24 && roFunds > 0:
		return "No FY24 data available to validate"
	}
	return ""
}

func (r *Reports) heroFY24(name string) (HeroData, error) {
	rec, ok, err := r.store.HistoricalEntity(name, 2024)
	if err != nil {
		return HeroData{}, err
	}
	if !ok {
		return HeroData{}, core.ErrNotFound
	}

	expended := rec.Num("total_expended")
	available := rec.Num("total_available")
	pct := 0.0
	if available > 0 {
		pct = expended / available * 100
	}

	sourceFile := rec.Str("source_file")
	if sourceFile == "" {
		sourceFile = "municipal_data_fy24"
	}
	return HeroData{
		FiscalYear: 2024,
		SourceFile: sourceFile,
		SurveyPath: rec.Str("survey_md_path"),
		Disbursement: HeroStat{
			Value:  rec.Num("fy24_disbursement"),
			Source: "municipal_data_fy24.fy24_disbursement",
			Label:  "FY24 Disbursement",
		},
		Carryover: HeroStat{
			Value:  rec.Num("carryover_funds"),
			Source: "municipal_data_fy24.carryover_funds",
			Label:  "Carryover Funds",
		},
		Expended: HeroStat{
			Value:  expended,
			Source: "municipal_data_fy24.total_expended",
			Label:  "Expended",
		},
		Utilized: HeroStat{
			Value:   pct,
			Display: core.FormatPercent(pct),
			Source:  "calculated: total_expended / total_available",
			Label:   "Utilized",
		},
		Unexpended: &HeroStat{
			Value:  rec.Num("unexpended_funds"),
			Source: "municipal_data_fy24.unexpended_funds",
			Label:  "Unexpended",
		},
	}, nil
}

func (r *Reports) heroFY23(name string) (HeroData, error) {
	rec, ok, err := r.store.HistoricalEntity(name, 2023)
	if err != nil {
		return HeroData{}, err
	}
	if !ok {
		return HeroData{}, core.ErrNotFound
	}

	pctDisplay := rec.Str("pct_expended")
	if pctDisplay == "" {
		pctDisplay = "0%"
	}
	sourceFile := rec.Str("source_file")
	if sourceFile == "" {
		sourceFile = "municipal_data_fy23"
	}
	return HeroData{
		FiscalYear:      2023,
		SourceFile:      sourceFile,
		ReportingStatus: rec.Str("reporting_status"),
		Disbursement: HeroStat{
			Value:  rec.Num("funds_received"),
			Source: "municipal_data_fy23.funds_received",
			Label:  "FY23 Funds Received",
		},
		Carryover: HeroStat{
			Source: "N/A - not collected in FY23",
			Label:  "Carryover Funds",
		},
		Expended: HeroStat{
			Value:  rec.Num("funds_expended"),
			Source: "municipal_data_fy23.funds_expended",
			Label:  "Expended",
		},
		Utilized: HeroStat{
			Value:   rec.Num("pct_expended"),
			Display: pctDisplay,
			Source:  "municipal_data_fy23.pct_expended",
			Label:   "Utilized",
		},
	}, nil
}

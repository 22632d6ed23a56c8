package services

import (
	"fmt"

	"orrfdash/internal/core"
	"orrfdash/internal/storage"
)

// municipalRecord builds a minimal wide-format row. extra overlays the base
// columns, using the same raw column names as the dataset file.
func municipalRecord(id, name string, extra map[string]any) core.Record {
	rec := core.Record{
		"record_id":        id,
		"municipality_csv": name,
		"muni_org":         "Municipality",
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec
}

// buildDataset assembles a snapshot from raw records the same way the loader
// does: entities in input order, expenditures pre-normalized.
func buildDataset(records ...core.Record) *storage.Dataset {
	ds := &storage.Dataset{
		Records:                  map[string]core.Record{},
		FY25Names:                map[string]bool{},
		Expenditures:             map[string][]core.Expenditure{},
		Attachments:              map[string][]core.PDFAttachment{},
		FY23:                     map[string]core.Record{},
		FY24:                     map[string]core.Record{},
		RizeByMunicipality:       map[string][]core.Grant{},
		MosaicCoreByCounty:       map[string][]core.Grant{},
		FamilyResilienceByCounty: map[string][]core.Grant{},
		CountyByMunicipality:     map[string]string{},
		Overrides:                map[string]core.UtilizationOverride{},
	}
	for _, rec := range records {
		id := rec.ID()
		ds.Records[id] = rec
		ds.FY25Names[rec.Str("municipality_csv")] = true
		ds.Entities = append(ds.Entities, core.NewEntity(rec, nil))
		ds.Expenditures[id] = core.NormalizeExpenditures(rec)
	}
	return ds
}

func testReports(ds *storage.Dataset) *Reports {
	return New(storage.NewStoreFromDataset(ds))
}

// standardDataset is the fixture most report tests share: two plain
// municipalities and a three-member collaborative.
func standardDataset() *storage.Dataset {
	northAdams := municipalRecord("1", "NorthAdams", map[string]any{
		"agonumbers":   100000.0,
		"t_exp":        40000.0,
		"t_enc":        20000.0,
		"expenditure1": "Recovery coach",
		"amount1":      40000.0,
		"e_c1":         int64(1),
		"status1":      int64(1),
		"description1": "Certified recovery coach for the outreach program",
		"expenditure2": "Naloxone kits",
		"amount2":      20000.0,
		"e_c2":         int64(5),
		"status2":      int64(2),
		"pjct_name_1":  "Harm Reduction",
		"pjct_desc_1":  "Overdose prevention and response",
	})
	pelham := municipalRecord("2", "Pelham", map[string]any{
		"agonumbers":   10000.0,
		"t_exp":        15000.0,
		"expenditure1": "Prevention campaign",
		"amount1":      14000.0,
		"e_c1":         int64(4),
		"status1":      int64(1),
	})
	lee := municipalRecord("3", "Lee", map[string]any{
		"pooled_yn":          int64(1),
		"collaborative_name": int64(1),
		"lead_muni":          int64(1),
		"amt_pooled":         5000.0,
		"t_exp":              3000.0,
		"t_enc":              1000.0,
	})
	lenox := municipalRecord("4", "Lenox", map[string]any{
		"pooled_yn":          int64(1),
		"collaborative_name": int64(1),
		"amt_pooled":         2000.0,
	})
	stockbridge := municipalRecord("5", "Stockbridge", map[string]any{
		"pooled_yn":          int64(1),
		"collaborative_name": int64(1),
		"amt_pooled":         1000.0,
	})

	ds := buildDataset(lee, lenox, northAdams, pelham, stockbridge)
	ds.Attachments["1"] = []core.PDFAttachment{{
		RecordID: "1",
		Filename: "north_adams_report.pdf",
		FilePath: "pdfs/north_adams_report.pdf",
		OCRText:  "Annual municipal opioid settlement spending report for fiscal year 2025. The town funded a syringe exchange program with settlement money this year, alongside community education events held at the public library and two regional recovery centers.",
	}}
	return ds
}

// manyEntities builds n municipalities whose names all contain the needle,
// for result-cap tests.
func manyEntities(n int) *storage.Dataset {
	records := make([]core.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, municipalRecord(
			fmt.Sprintf("r%03d", i),
			fmt.Sprintf("Riverton%03d", i),
			map[string]any{"agonumbers": 1000.0},
		))
	}
	return buildDataset(records...)
}

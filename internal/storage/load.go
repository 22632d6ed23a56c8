package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"orrfdash/internal/core"
)

// build reads every table and assembles a fresh Dataset. The primary table
// is fatal; each auxiliary table is loaded independently and degrades to an
// empty index when missing, so a dataset file without PDF or CTHRU extracts
// still serves the municipal views.
func (s *Store) build(ctx context.Context) (*Dataset, error) {
	records, cols, err := s.queryRecords(ctx,
		`SELECT * FROM municipal_data WHERE municipality_csv NOT LIKE '%test%' ORDER BY municipality_csv`)
	if err != nil {
		return nil, fmt.Errorf("load municipal_data: %w", err)
	}
	if err := core.ValidateRecordColumns(cols); err != nil {
		return nil, fmt.Errorf("load municipal_data: %w", err)
	}

	ds := &Dataset{
		Records:                  make(map[string]core.Record, len(records)),
		FY25Names:                make(map[string]bool, len(records)),
		Expenditures:             make(map[string][]core.Expenditure, len(records)),
		Attachments:              map[string][]core.PDFAttachment{},
		RizeByMunicipality:       map[string][]core.Grant{},
		MosaicCoreByCounty:       map[string][]core.Grant{},
		FamilyResilienceByCounty: map[string][]core.Grant{},
		CountyByMunicipality:     map[string]string{},
		Overrides:                map[string]core.UtilizationOverride{},
	}
	for _, rec := range records {
		ds.Records[rec.ID()] = rec
		ds.FY25Names[rec.Str("municipality_csv")] = true
	}

	// The auxiliary tables populate disjoint fields, so they load
	// concurrently and are awaited together. Loaders swallow their own
	// errors: a missing optional table is a warning, never a failed load.
	var fy23Raw, fy24Raw map[string]core.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fy23Raw = s.loadHistoricalRaw(gctx, "municipal_data_fy23")
		return nil
	})
	g.Go(func() error {
		fy24Raw = s.loadHistoricalRaw(gctx, "municipal_data_fy24")
		return nil
	})
	g.Go(func() error {
		ds.Attachments = s.loadAttachments(gctx)
		return nil
	})
	g.Go(func() error {
		ds.StateRows = s.loadStateSpending(gctx)
		return nil
	})
	g.Go(func() error {
		s.loadGrantTables(gctx, ds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Cross-year resolution happens after both historical tables are in.
	nameMap, unresolved := resolveHistoricalNames(fy23Raw, fy24Raw, ds.FY25Names)
	ds.FY23 = rekeyHistorical(fy23Raw, nameMap)
	ds.FY24 = rekeyHistorical(fy24Raw, nameMap)
	ds.UnresolvedHistorical = unresolved
	if len(unresolved) > 0 {
		slog.WarnContext(ctx, "Historical names left unresolved", "count", len(unresolved), "names", unresolved)
	}

	// Resolve documented overrides from raw names to record ids, then build
	// summaries and the per-record expenditure cache.
	overridesByName := make(map[string]core.UtilizationOverride, len(core.UtilizationOverrides))
	for _, o := range core.UtilizationOverrides {
		overridesByName[o.RawName] = o
	}
	ds.Entities = make([]core.Entity, 0, len(records))
	for _, rec := range records {
		var override *core.UtilizationOverride
		if o, ok := overridesByName[rec.Str("municipality_csv")]; ok {
			o := o
			override = &o
			ds.Overrides[rec.ID()] = o
		}
		ds.Entities = append(ds.Entities, core.NewEntity(rec, override))
		ds.Expenditures[rec.ID()] = core.NormalizeExpenditures(rec)
	}

	slog.InfoContext(ctx, "Dataset loaded",
		"entities", len(ds.Entities),
		"fy23", len(ds.FY23),
		"fy24", len(ds.FY24),
		"attachments", len(ds.Attachments),
		"state_rows", len(ds.StateRows),
		"unresolved_names", len(ds.UnresolvedHistorical))
	return ds, nil
}

// queryRecords runs a SELECT * query and materializes every row as a
// column-keyed Record, along with the set of column names seen.
func (s *Store) queryRecords(ctx context.Context, query string) ([]core.Record, map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}
	colSet := make(map[string]bool, len(cols))
	for _, c := range cols {
		colSet[c] = true
	}

	var records []core.Record
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make(core.Record, len(cols))
		for i, c := range cols {
			// []byte buffers are reused by the driver between rows
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = vals[i]
			}
		}
		records = append(records, rec)
	}
	return records, colSet, rows.Err()
}

// loadHistoricalRaw loads one historical table keyed by its raw
// municipality name. A missing table is normal for partial datasets.
func (s *Store) loadHistoricalRaw(ctx context.Context, table string) map[string]core.Record {
	records, _, err := s.queryRecords(ctx, "SELECT * FROM "+table)
	if err != nil {
		slog.WarnContext(ctx, "Historical table not loaded, skipping", "table", table, "error", err)
		return map[string]core.Record{}
	}
	byName := make(map[string]core.Record, len(records))
	for _, rec := range records {
		byName[rec.Str("municipality")] = rec
	}
	slog.InfoContext(ctx, "Loaded historical entities", "table", table, "count", len(byName))
	return byName
}

func (s *Store) loadAttachments(ctx context.Context) map[string][]core.PDFAttachment {
	records, _, err := s.queryRecords(ctx, "SELECT * FROM pdf_attachments")
	if err != nil {
		slog.WarnContext(ctx, "PDF attachments table not loaded, skipping", "error", err)
		return map[string][]core.PDFAttachment{}
	}
	byRecord := map[string][]core.PDFAttachment{}
	for _, rec := range records {
		id := rec.ID()
		byRecord[id] = append(byRecord[id], core.PDFAttachment{
			RecordID: id,
			Filename: rec.Str("normalized_filename"),
			FilePath: rec.Str("file_path"),
			OCRText:  rec.Str("ocr_text"),
		})
	}
	slog.InfoContext(ctx, "Loaded PDF attachments", "records", len(byRecord))
	return byRecord
}

func (s *Store) loadStateSpending(ctx context.Context) []core.StateTransaction {
	records, _, err := s.queryRecords(ctx, "SELECT * FROM state_spending")
	if err != nil {
		slog.WarnContext(ctx, "State spending table not loaded, skipping", "error", err)
		return nil
	}
	txns := make([]core.StateTransaction, 0, len(records))
	for _, rec := range records {
		txns = append(txns, core.StateTransaction{
			Vendor:         rec.Str("vendor"),
			VendorCity:     rec.Str("city"),
			VendorState:    rec.Str("state"),
			Department:     rec.Str("department"),
			DepartmentCode: rec.Str("department_code"),
			ObjectClass:    rec.Str("object_class"),
			Amount:         rec.Num("amount"),
			FiscalYear:     rec.Int("budget_fiscal_year"),
		})
	}
	slog.InfoContext(ctx, "Loaded state spending", "count", len(txns))
	return txns
}

// loadGrantTables populates the four grant indexes. Each table is isolated:
// a failed RIZE load still leaves Mosaic grants usable.
func (s *Store) loadGrantTables(ctx context.Context, ds *Dataset) {
	if records, _, err := s.queryRecords(ctx, "SELECT municipality, county FROM county_mapping"); err != nil {
		slog.WarnContext(ctx, "County mapping not loaded, skipping", "error", err)
	} else {
		for _, rec := range records {
			ds.CountyByMunicipality[rec.Str("municipality")] = rec.Str("county")
		}
		slog.InfoContext(ctx, "Loaded county mapping", "count", len(ds.CountyByMunicipality))
	}

	if records, _, err := s.queryRecords(ctx, "SELECT * FROM rize_grants"); err != nil {
		slog.WarnContext(ctx, "RIZE grants not loaded, skipping", "error", err)
	} else {
		for _, rec := range records {
			grant := grantFromRecord(rec)
			grant.Municipalities = jsonStrings(rec.Str("municipalities"))
			grant.PrimaryMunicipality = rec.Str("primary_municipality")
			grant.RelationshipType = rec.Str("relationship_type")
			// one index entry per served municipality (many-to-many)
			for _, muni := range grant.Municipalities {
				ds.RizeByMunicipality[muni] = append(ds.RizeByMunicipality[muni], grant)
			}
		}
		slog.InfoContext(ctx, "Loaded RIZE grants", "municipalities", len(ds.RizeByMunicipality))
	}

	if records, _, err := s.queryRecords(ctx, "SELECT * FROM mosaic_core_grants"); err != nil {
		slog.WarnContext(ctx, "Mosaic CORE grants not loaded, skipping", "error", err)
	} else {
		for _, rec := range records {
			grant := grantFromRecord(rec)
			if grant.Geography != "" {
				ds.MosaicCoreByCounty[grant.Geography] = append(ds.MosaicCoreByCounty[grant.Geography], grant)
			}
		}
		slog.InfoContext(ctx, "Loaded Mosaic CORE grants", "counties", len(ds.MosaicCoreByCounty))
	}

	if records, _, err := s.queryRecords(ctx, "SELECT * FROM family_resilience_grants"); err != nil {
		slog.WarnContext(ctx, "Family Resilience grants not loaded, skipping", "error", err)
	} else {
		for _, rec := range records {
			grant := grantFromRecord(rec)
			switch {
			case grant.Geography == "Statewide":
				ds.StatewideFamilyResilience = append(ds.StatewideFamilyResilience, grant)
			case grant.Geography != "":
				ds.FamilyResilienceByCounty[grant.Geography] = append(ds.FamilyResilienceByCounty[grant.Geography], grant)
			}
		}
		slog.InfoContext(ctx, "Loaded Family Resilience grants",
			"counties", len(ds.FamilyResilienceByCounty),
			"statewide", len(ds.StatewideFamilyResilience))
	}
}

func grantFromRecord(rec core.Record) core.Grant {
	return core.Grant{
		Awardee:    rec.Str("awardee"),
		Website:    rec.Str("website"),
		Period:     rec.Str("period"),
		Amount:     rec.Num("amount"),
		FocusAreas: jsonStrings(rec.Str("focus_areas")),
		Geography:  rec.Str("geography"),
		Mission:    rec.Str("mission"),
		GrantType:  rec.Str("grant_type"),
	}
}

// jsonStrings decodes a JSON string array column, tolerating empty or
// malformed values.
func jsonStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

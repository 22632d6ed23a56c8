package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"orrfdash/internal/sheets"
)

// ReplaceCountyMapping swaps the county_mapping table for a fresh copy of
// the spreadsheet rows, atomically.
func (s *Store) ReplaceCountyMapping(ctx context.Context, rows []sheets.CountyRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM county_mapping"); err != nil {
		return fmt.Errorf("clear county_mapping: %w", err)
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO county_mapping (municipality, county) VALUES (?, ?)",
			row.Municipality, row.County)
		if err != nil {
			return fmt.Errorf("insert county mapping for %s: %w", row.Municipality, err)
		}
	}
	return tx.Commit()
}

// ReplaceGrants swaps one grant table for a fresh copy of the spreadsheet
// rows. Only the three known grant tables are accepted.
func (s *Store) ReplaceGrants(ctx context.Context, table string, rows []sheets.GrantRow) error {
	switch table {
	case "rize_grants", "mosaic_core_grants", "family_resilience_grants":
	default:
		return fmt.Errorf("unknown grant table %q", table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, row := range rows {
		focus, err := json.Marshal(row.FocusAreas)
		if err != nil {
			return fmt.Errorf("encode focus areas: %w", err)
		}
		if table == "rize_grants" {
			munis, err := json.Marshal(row.Municipalities)
			if err != nil {
				return fmt.Errorf("encode municipalities: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO rize_grants
				 (awardee, website, period, amount, focus_areas, geography, mission, grant_type,
				  municipalities, primary_municipality, relationship_type)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				row.Awardee, row.Website, row.Period, row.Amount, string(focus),
				row.Geography, row.Mission, row.GrantType,
				string(munis), row.PrimaryMunicipality, row.RelationshipType)
			if err != nil {
				return fmt.Errorf("insert grant %s: %w", row.Awardee, err)
			}
			continue
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s
			 (awardee, website, period, amount, focus_areas, geography, mission, grant_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table),
			row.Awardee, row.Website, row.Period, row.Amount, string(focus),
			row.Geography, row.Mission, row.GrantType)
		if err != nil {
			return fmt.Errorf("insert grant %s: %w", row.Awardee, err)
		}
	}
	return tx.Commit()
}

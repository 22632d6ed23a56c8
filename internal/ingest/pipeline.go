package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"orrfdash/internal/sheets"
	"orrfdash/internal/storage"
)

// RefreshPublisher announces a completed rebuild so running servers reload.
type RefreshPublisher interface {
	PublishDatasetRefresh(ctx context.Context, source string, tables []string) error
}

// SheetNames names the spreadsheet tabs the pipeline pulls from.
type SheetNames struct {
	Rize             string
	MosaicCore       string
	FamilyResilience string
	County           string
}

// Pipeline pulls the grant tracking spreadsheet and rewrites the grant and
// county tables in the dataset file. The survey tables are never touched.
type Pipeline struct {
	store     *storage.Store
	grants    sheets.GrantReader
	counties  sheets.CountyReader
	publisher RefreshPublisher
}

// New creates a pipeline. publisher may be nil when no broker is configured;
// the rebuild then completes without notifying running servers.
func New(store *storage.Store, grants sheets.GrantReader, counties sheets.CountyReader, publisher RefreshPublisher) *Pipeline {
	return &Pipeline{
		store:     store,
		grants:    grants,
		counties:  counties,
		publisher: publisher,
	}
}

// Run fetches every sheet, rewrites the tables, and publishes a refresh
// announcement. A failed sheet fails the whole run: partial grant data is
// worse than stale grant data.
func (p *Pipeline) Run(ctx context.Context, names SheetNames) error {
	var (
		rize, mosaic, family []sheets.GrantRow
		counties             []sheets.CountyRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if rize, err = p.grants.ListGrants(gctx, names.Rize); err != nil {
			return fmt.Errorf("fetch RIZE grants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if mosaic, err = p.grants.ListGrants(gctx, names.MosaicCore); err != nil {
			return fmt.Errorf("fetch Mosaic CORE grants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if family, err = p.grants.ListGrants(gctx, names.FamilyResilience); err != nil {
			return fmt.Errorf("fetch Family Resilience grants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if counties, err = p.counties.ListCounties(gctx, names.County); err != nil {
			return fmt.Errorf("fetch county mapping: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := p.store.ReplaceCountyMapping(ctx, counties); err != nil {
		return fmt.Errorf("replace county mapping: %w", err)
	}
	tables := []string{"county_mapping"}

	for _, t := range []struct {
		table string
		rows  []sheets.GrantRow
	}{
		{"rize_grants", rize},
		{"mosaic_core_grants", mosaic},
		{"family_resilience_grants", family},
	} {
		if err := p.store.ReplaceGrants(ctx, t.table, t.rows); err != nil {
			return fmt.Errorf("replace %s: %w", t.table, err)
		}
		tables = append(tables, t.table)
	}

	slog.InfoContext(ctx, "Grant tables rebuilt",
		"rize", len(rize),
		"mosaic_core", len(mosaic),
		"family_resilience", len(family),
		"counties", len(counties))

	if p.publisher == nil {
		slog.WarnContext(ctx, "No refresh publisher configured, running servers will not reload")
		return nil
	}
	if err := p.publisher.PublishDatasetRefresh(ctx, "ingest", tables); err != nil {
		return fmt.Errorf("publish refresh: %w", err)
	}
	return nil
}

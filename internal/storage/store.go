package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"orrfdash/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotLoaded is returned by every read accessor before the first
// successful Load. Callers must not mistake an unloaded store for an empty
// dataset.
var ErrNotLoaded = errors.New("dataset not loaded")

// Store owns the sqlite dataset file and the immutable in-memory indexes
// built from it. Load populates a Dataset once; Reload builds a fresh one
// and swaps it atomically, so readers never observe a partially built view.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex // serializes Load/Reload
	loaded atomic.Pointer[Dataset]
}

// Dataset is one fully built, immutable snapshot of the dashboard data.
type Dataset struct {
	// Primary table (FY2025 wide-format reports)
	Records   map[string]core.Record // by record id
	Entities  []core.Entity          // stable name order
	FY25Names map[string]bool        // raw municipality_csv keys

	// Pre-normalized expenditures by record id. NormalizeExpenditures is
	// idempotent, so computing it once at load time is safe and every
	// aggregation and search pass reuses the same slices.
	Expenditures map[string][]core.Expenditure

	// Auxiliary tables (each degrades to empty when missing)
	Attachments map[string][]core.PDFAttachment // by record id
	StateRows   []core.StateTransaction

	// Historical tables keyed by resolved FY25 name where resolution
	// succeeded, raw historical name otherwise.
	FY23 map[string]core.Record
	FY24 map[string]core.Record

	// Grant indexes
	RizeByMunicipality        map[string][]core.Grant
	MosaicCoreByCounty        map[string][]core.Grant
	FamilyResilienceByCounty  map[string][]core.Grant
	StatewideFamilyResilience []core.Grant
	CountyByMunicipality      map[string]string

	// Data-quality overrides resolved from raw names to record ids.
	Overrides map[string]core.UtilizationOverride

	// Historical names that could not be mapped to an FY25 key. Their rows
	// stay reachable under the raw name only; this is the documented lossy
	// policy of the cross-year resolver.
	UnresolvedHistorical []string
}

// Open opens the dataset file and verifies the connection. It does not load
// anything; call Load before reading.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite dataset: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping dataset: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// NewStoreFromDataset builds a store around a pre-assembled snapshot, with
// no backing database. Intended for tests and offline tooling.
func NewStoreFromDataset(ds *Dataset) *Store {
	s := &Store{}
	if ds != nil {
		s.loaded.Store(ds)
	}
	return s
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load builds the in-memory dataset. It is idempotent: once a dataset is
// loaded, further calls are no-ops. Use Reload to rebuild.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded.Load() != nil {
		return nil
	}
	ds, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.loaded.Store(ds)
	return nil
}

// Reload rebuilds the dataset from the file and swaps it in atomically.
// Readers keep the previous snapshot until the new one is complete.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.loaded.Store(ds)
	return nil
}

// Loaded reports whether a dataset is available.
func (s *Store) Loaded() bool {
	return s.loaded.Load() != nil
}

// Dataset returns the current snapshot, or ErrNotLoaded before the first
// successful Load.
func (s *Store) Dataset() (*Dataset, error) {
	ds := s.loaded.Load()
	if ds == nil {
		return nil, ErrNotLoaded
	}
	return ds, nil
}

// Entity returns the raw record for an id.
func (s *Store) Entity(id string) (core.Record, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	rec, ok := ds.Records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return rec, nil
}

// Entities returns every entity summary in stable name order.
func (s *Store) Entities() ([]core.Entity, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.Entities, nil
}

// EntityExpenditures returns the pre-normalized line items for a record.
// An id with no expenditures yields an empty slice, not an error.
func (s *Store) EntityExpenditures(id string) ([]core.Expenditure, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	if _, ok := ds.Records[id]; !ok {
		return nil, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return ds.Expenditures[id], nil
}

// EntityAttachments returns the PDF documents for a record. Absence of
// documents is a normal no-data condition.
func (s *Store) EntityAttachments(id string) ([]core.PDFAttachment, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.Attachments[id], nil
}

// FiscalYears returns the years for which any table has data under the
// given raw name, newest first.
func (s *Store) FiscalYears(name string) ([]int, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	var years []int
	if ds.FY25Names[name] {
		years = append(years, 2025)
	}
	if _, ok := ds.FY24[name]; ok {
		years = append(years, 2024)
	}
	if _, ok := ds.FY23[name]; ok {
		years = append(years, 2023)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// HistoricalEntity returns the FY2023 or FY2024 row for a name. The second
// return value is false when that year has no data for the name.
func (s *Store) HistoricalEntity(name string, fiscalYear int) (core.Record, bool, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, false, err
	}
	var rec core.Record
	var ok bool
	switch fiscalYear {
	case 2023:
		rec, ok = ds.FY23[name]
	case 2024:
		rec, ok = ds.FY24[name]
	default:
		return nil, false, fmt.Errorf("fiscal year %d: %w", fiscalYear, core.ErrInvalidYear)
	}
	return rec, ok, nil
}

// UnresolvedNames returns the historical names the cross-year resolver could
// not map to an FY25 key.
func (s *Store) UnresolvedNames() ([]string, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.UnresolvedHistorical, nil
}

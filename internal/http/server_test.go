package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orrfdash/internal/core"
	"orrfdash/internal/services"
	"orrfdash/internal/storage"
)

func testDataset() *storage.Dataset {
	rec := core.Record{
		"record_id":        "1",
		"municipality_csv": "NorthAdams",
		"muni_org":         "Municipality",
		"agonumbers":       100000.0,
		"t_exp":            40000.0,
		"t_enc":            20000.0,
		"expenditure1":     "Recovery coach",
		"amount1":          40000.0,
		"e_c1":             int64(1),
		"status1":          int64(1),
	}
	ds := &storage.Dataset{
		Records:                  map[string]core.Record{"1": rec},
		FY25Names:                map[string]bool{"NorthAdams": true},
		Expenditures:             map[string][]core.Expenditure{"1": core.NormalizeExpenditures(rec)},
		Attachments:              map[string][]core.PDFAttachment{},
		FY23:                     map[string]core.Record{},
		FY24:                     map[string]core.Record{},
		RizeByMunicipality:       map[string][]core.Grant{},
		MosaicCoreByCounty:       map[string][]core.Grant{},
		FamilyResilienceByCounty: map[string][]core.Grant{},
		CountyByMunicipality:     map[string]string{},
		Overrides:                map[string]core.UtilizationOverride{},
	}
	ds.Entities = []core.Entity{core.NewEntity(rec, nil)}
	return ds
}

func newTestServer(t *testing.T, ds *storage.Dataset) *Server {
	t.Helper()
	s := NewServer(":0", services.New(storage.NewStoreFromDataset(ds)), 10, time.Minute)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t, testDataset())

	if w := do(s, http.MethodGet, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	if w := do(s, http.MethodGet, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("readyz = %d", w.Code)
	}
}

func TestReadinessBeforeLoad(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz on empty store = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "dataset not loaded") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t, testDataset())

	w := do(s, http.MethodGet, "/api/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("empty summary body")
	}
}

func TestSummaryBeforeLoad(t *testing.T) {
	s := newTestServer(t, nil)
	if w := do(s, http.MethodGet, "/api/summary"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("summary on empty store = %d", w.Code)
	}
}

func TestEntityNotFound(t *testing.T) {
	s := newTestServer(t, testDataset())
	w := do(s, http.MethodGet, "/api/entities/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown entity = %d", w.Code)
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("error body = %q, err %v", w.Body.String(), err)
	}
}

func TestEntitySubViews(t *testing.T) {
	s := newTestServer(t, testDataset())

	t.Run("expenditures", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/entities/1/expenditures")
		if w.Code != http.StatusOK {
			t.Fatalf("expenditures = %d: %s", w.Code, w.Body.String())
		}
		var items []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expenditures = %d items", len(items))
		}
	})

	t.Run("projects empty as array", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/entities/1/projects")
		if w.Code != http.StatusOK {
			t.Fatalf("projects = %d", w.Code)
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Fatalf("no projects must render as [], got %q", body)
		}
	})

	t.Run("narratives", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/entities/1/narratives")
		if w.Code != http.StatusOK {
			t.Fatalf("narratives = %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	})

	t.Run("documents empty as array", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/entities/1/documents")
		if w.Code != http.StatusOK {
			t.Fatalf("documents = %d", w.Code)
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Fatalf("no documents must render as [], got %q", body)
		}
	})

	t.Run("years", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/entities/1/years")
		if w.Code != http.StatusOK {
			t.Fatalf("years = %d", w.Code)
		}
		var years []int
		if err := json.Unmarshal(w.Body.Bytes(), &years); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(years) != 1 || years[0] != 2025 {
			t.Fatalf("years = %v", years)
		}
	})

	t.Run("unknown entity", func(t *testing.T) {
		if w := do(s, http.MethodGet, "/api/entities/nope/expenditures"); w.Code != http.StatusNotFound {
			t.Fatalf("unknown entity sub-view = %d", w.Code)
		}
	})
}

func TestEntityUnknownView(t *testing.T) {
	s := newTestServer(t, testDataset())
	if w := do(s, http.MethodGet, "/api/entities/1/timeline"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown view = %d", w.Code)
	}
}

func TestSearchShortTermReturnsEmptyList(t *testing.T) {
	s := newTestServer(t, testDataset())
	w := do(s, http.MethodGet, "/api/search?q=a")
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	var results []any
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("short term must yield an empty JSON array, got %q", w.Body.String())
	}
}

func TestSearchInvalidYear(t *testing.T) {
	s := newTestServer(t, testDataset())
	if w := do(s, http.MethodGet, "/api/search?q=naloxone&fy=2019"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid year = %d", w.Code)
	}
}

func TestTopSpendersBadLimit(t *testing.T) {
	s := newTestServer(t, testDataset())
	if w := do(s, http.MethodGet, "/api/top-spenders?limit=many"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", w.Code)
	}
	if w := do(s, http.MethodGet, "/api/top-spenders?limit=0"); w.Code != http.StatusBadRequest {
		t.Fatalf("zero limit = %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testDataset())
	w := do(s, http.MethodPost, "/api/summary")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST = %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != "GET" {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testDataset())
	w := do(s, http.MethodGet, "/api/summary")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing frame options header")
	}
}

func TestSearchCachePurge(t *testing.T) {
	s := newTestServer(t, testDataset())

	if w := do(s, http.MethodGet, "/api/search?q=recovery"); w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if s.searchCache.Size() != 1 {
		t.Fatalf("cache size = %d", s.searchCache.Size())
	}

	s.PurgeCaches()
	if s.searchCache.Size() != 0 {
		t.Fatalf("cache size after purge = %d", s.searchCache.Size())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 120; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d blocked below the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request 121 should be blocked")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("limits must be tracked per client")
	}
}

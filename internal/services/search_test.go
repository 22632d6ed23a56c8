package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"orrfdash/internal/core"
)

func TestSearchShortTerm(t *testing.T) {
	r := testReports(standardDataset())
	for _, term := range []string{"", "a"} {
		results, err := r.Search(term, 0)
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if results != nil {
			t.Fatalf("short term %q must return nothing, got %d results", term, len(results))
		}
	}
}

func TestSearchInvalidYear(t *testing.T) {
	r := testReports(standardDataset())
	if _, err := r.Search("coach", 2019); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestSearchMunicipality(t *testing.T) {
	r := testReports(standardDataset())
	results, err := r.Search("north adams", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected a municipality hit")
	}
	hit := results[0]
	if hit.Type != "Municipality" || hit.Name != "North Adams" {
		t.Fatalf("unexpected hit: %+v", hit)
	}
	if hit.Amount == nil || *hit.Amount != 60000 {
		t.Fatalf("municipality amount should be expended+encumbered, got %v", hit.Amount)
	}
}

func TestSearchExpenditureAndProject(t *testing.T) {
	r := testReports(standardDataset())

	results, err := r.Search("naloxone", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Type != "Expenditure" {
		t.Fatalf("expected one expenditure hit, got %+v", results)
	}
	if results[0].Municipality != "North Adams" {
		t.Fatalf("municipality = %q", results[0].Municipality)
	}

	results, err = r.Search("harm reduction", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var foundProject bool
	for _, res := range results {
		if res.Type == "Project" && res.Name == "Harm Reduction" {
			foundProject = true
		}
	}
	if !foundProject {
		t.Fatalf("expected a project hit, got %+v", results)
	}
}

func TestSearchPDFSnippet(t *testing.T) {
	r := testReports(standardDataset())
	results, err := r.Search("syringe", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Type != "PDF Content" {
		t.Fatalf("expected one PDF hit, got %+v", results)
	}
	snippet := results[0].Details
	if !strings.Contains(snippet, "syringe exchange") {
		t.Fatalf("snippet should contain the match: %q", snippet)
	}
	if !strings.HasPrefix(snippet, "...") {
		t.Fatalf("mid-document match should lead with an ellipsis: %q", snippet)
	}
	if results[0].PDFPath != "pdfs/north_adams_report.pdf" {
		t.Fatalf("pdf path = %q", results[0].PDFPath)
	}
}

func TestSearchYearFilter(t *testing.T) {
	ds := standardDataset()
	ds.FY24["NorthAdams"] = core.Record{"municipality": "North Adams", "total_expended": 1.0}
	r := testReports(ds)

	// Expenditure text only exists in the FY2025 data, so a FY2024 filter
	// drops it even for an entity with FY2024 history.
	results, err := r.Search("naloxone", 2024)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expenditure match should not survive a historical year filter: %+v", results)
	}

	// The name match still works for years the entity has data in.
	results, err = r.Search("north adams", 2024)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Type != "Municipality" {
		t.Fatalf("expected the name hit, got %+v", results)
	}

	// Pelham has no FY2024 row, so the filter hides it entirely.
	results, err = r.Search("pelham", 2024)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("entity without that year should be hidden: %+v", results)
	}
}

func TestSearchResultCap(t *testing.T) {
	r := testReports(manyEntities(150))
	results, err := r.Search("riverton", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != searchResultCap {
		t.Fatalf("results = %d, want cap %d", len(results), searchResultCap)
	}
}

func TestExtractSnippet(t *testing.T) {
	text := strings.Repeat("x", 200) + "needle" + strings.Repeat("y", 200)
	snippet, ok := extractSnippet(text, "needle")
	if !ok {
		t.Fatal("expected a match")
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Fatalf("truncated both sides should get both ellipses: %q", snippet)
	}
	want := 3 + snippetBefore + len("needle") + snippetAfter + 3
	if len(snippet) != want {
		t.Fatalf("snippet length = %d, want %d", len(snippet), want)
	}

	if _, ok := extractSnippet("nothing here", "needle"); ok {
		t.Fatal("no match should report false")
	}

	snippet, _ = extractSnippet("line one\nneedle\nline two", "needle")
	if strings.Contains(snippet, "\n") {
		t.Fatalf("newlines must be flattened: %q", snippet)
	}
}

func TestExtractSnippetMultibyteFold(t *testing.T) {
	// The dotted capital I lowercases to a different byte length, so a match
	// index taken from a lowered copy would slice the original off target.
	text := strings.Repeat("İ", 30) + " recovery services for residents"
	snippet, ok := extractSnippet(text, "recovery")
	if !ok {
		t.Fatal("expected a match")
	}
	if !strings.HasPrefix(snippet, "...") {
		t.Fatalf("match sits deep in the text, want a leading ellipsis: %q", snippet)
	}
	if !strings.Contains(snippet, "recovery services") {
		t.Fatalf("snippet lost the match: %q", snippet)
	}
	if !utf8.ValidString(snippet) {
		t.Fatalf("snippet split a rune: %q", snippet)
	}
}

func TestWordCloud(t *testing.T) {
	ds := standardDataset()
	r := testReports(ds)

	words, err := r.WordCloud(0)
	if err != nil {
		t.Fatalf("word cloud: %v", err)
	}
	counts := map[string]int{}
	for _, w := range words {
		counts[w.Word] = w.Count
	}
	if counts["the"] != 0 || counts["for"] != 0 {
		t.Fatal("stop words must be filtered")
	}
	if counts["recovery"] == 0 {
		t.Fatalf("expected 'recovery' in the cloud: %v", words)
	}
	for w := range counts {
		if len(w) < minTokenLen {
			t.Fatalf("token %q shorter than minimum", w)
		}
	}
	for i := 1; i < len(words); i++ {
		if words[i-1].Count < words[i].Count {
			t.Fatalf("not sorted by count at %d", i)
		}
		if words[i-1].Count == words[i].Count && words[i-1].Word > words[i].Word {
			t.Fatalf("ties not alphabetical at %d: %q > %q", i, words[i-1].Word, words[i].Word)
		}
	}

	limited, err := r.WordCloud(2)
	if err != nil {
		t.Fatalf("word cloud: %v", err)
	}
	if len(limited) > 2 {
		t.Fatalf("max not applied, got %d", len(limited))
	}
}

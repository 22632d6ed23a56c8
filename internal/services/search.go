package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"orrfdash/internal/core"
)

const (
	// searchResultCap bounds every search surface.
	searchResultCap = 100
	// snippetBefore/snippetAfter frame the excerpt returned for long-text
	// matches: 50 characters of leading context, the match plus 100 after.
	snippetBefore = 50
	snippetAfter  = 100
	// minTokenLen and defaultWordCloudSize shape the word-frequency index.
	minTokenLen          = 3
	defaultWordCloudSize = 60
)

// SearchResult is one hit from the cross-entity search.
type SearchResult struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Municipality string   `json:"municipality"`
	Details      string   `json:"details"`
	Amount       *float64 `json:"amount"`
	RecordID     string   `json:"recordId"`
	PDFPath      string   `json:"pdfPath,omitempty"`
}

// searchYears are the fiscal years the search filter accepts.
var searchYears = []int{2025, 2024, 2023}

// SearchFiscalYears returns the years the search filter supports.
func (r *Reports) SearchFiscalYears() []int {
	return searchYears
}

// Search scans entity names, expenditures, projects, PDF text and
// narratives for a case-insensitive substring match. Terms shorter than two
// characters deterministically return nothing. fiscalYear restricts results
// to entities with data in that year (0 means no filter); expenditure,
// project, PDF and narrative matches only exist in the FY2025 data.
func (r *Reports) Search(term string, fiscalYear int) ([]SearchResult, error) {
	if len([]rune(term)) < 2 {
		return nil, nil
	}
	if fiscalYear != 0 && !validSearchYear(fiscalYear) {
		return nil, fmt.Errorf("fiscal year %d: %w", fiscalYear, core.ErrInvalidYear)
	}
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	var results []SearchResult
	add := func(res SearchResult) bool {
		results = append(results, res)
		return len(results) < searchResultCap
	}

	for _, e := range ds.Entities {
		rec := ds.Records[e.RecordID]

		if fiscalYear != 0 {
			years, err := r.store.FiscalYears(e.Name)
			if err != nil {
				return nil, err
			}
			if !containsYear(years, fiscalYear) {
				continue
			}
		}

		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.DisplayName), needle) {
			amount := e.TotalExpended + e.TotalEncumbered
			details := e.Kind
			if details == "" {
				details = "Municipality"
			}
			if !add(SearchResult{
				Type:         "Municipality",
				Name:         e.DisplayName,
				Municipality: e.DisplayName,
				Details:      details,
				Amount:       &amount,
				RecordID:     e.RecordID,
			}) {
				return results, nil
			}
		}

		if fiscalYear != 0 && fiscalYear != 2025 {
			continue
		}

		for _, exp := range ds.Expenditures[e.RecordID] {
			if !strings.Contains(strings.ToLower(exp.Name+" "+exp.Description), needle) {
				continue
			}
			net := exp.Net()
			if !add(SearchResult{
				Type:         "Expenditure",
				Name:         exp.Name,
				Municipality: e.DisplayName,
				Details:      exp.Category + " - " + string(exp.Status),
				Amount:       &net,
				RecordID:     e.RecordID,
			}) {
				return results, nil
			}
		}

		for _, proj := range core.Projects(rec) {
			if !strings.Contains(strings.ToLower(proj.Name+" "+proj.Description), needle) {
				continue
			}
			details := ""
			if proj.Description != "" {
				details = truncate(proj.Description, 100) + "..."
			}
			if !add(SearchResult{
				Type:         "Project",
				Name:         proj.Name,
				Municipality: e.DisplayName,
				Details:      details,
				RecordID:     e.RecordID,
			}) {
				return results, nil
			}
		}

		for _, pdf := range ds.Attachments[e.RecordID] {
			if pdf.OCRText == "" {
				continue
			}
			snippet, ok := extractSnippet(pdf.OCRText, needle)
			if !ok {
				continue
			}
			if !add(SearchResult{
				Type:         "PDF Content",
				Name:         pdf.Filename,
				Municipality: e.DisplayName,
				Details:      snippet,
				RecordID:     e.RecordID,
				PDFPath:      pdf.FilePath,
			}) {
				return results, nil
			}
		}

		narratives := core.ExtractNarratives(rec)
		for _, field := range []struct {
			text  string
			label string
		}{
			{narratives.Highlight, "Highlight"},
			{narratives.PWLLE.Description, "PWLLE Engagement"},
			{narratives.FuturePlans, "Future Plans"},
			{narratives.NoExpenseWork, "Work w/o Expenditure"},
		} {
			if field.text == "" {
				continue
			}
			snippet, ok := extractSnippet(field.text, needle)
			if !ok {
				continue
			}
			if !add(SearchResult{
				Type:         "Narrative",
				Name:         field.label,
				Municipality: e.DisplayName,
				Details:      snippet,
				RecordID:     e.RecordID,
			}) {
				return results, nil
			}
		}
	}
	return results, nil
}

// extractSnippet returns an excerpt of text around the first match of the
// lowercased needle, with newlines flattened and ellipses marking
// truncation. The second return value is false when there is no match.
func extractSnippet(text, needle string) (string, bool) {
	idx, matchEnd := foldIndex(text, needle)
	if idx < 0 {
		return "", false
	}
	start := idx - snippetBefore
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetAfter
	if end > len(text) {
		end = len(text)
	}
	// Window edges must not split a multi-byte rune.
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.ReplaceAll(text[start:end], "\n", " "))
	if end < len(text) {
		b.WriteString("...")
	}
	return b.String(), true
}

// foldIndex locates the first case-insensitive occurrence of the lowercased
// needle, as byte offsets into text. Lowercasing can change a rune's byte
// length (the dotted capital I, for one), in which case offsets into a
// lowered copy do not line up with the original and the match has to be
// found by folding rune by rune.
func foldIndex(text, needle string) (start, end int) {
	lower := strings.ToLower(text)
	if len(lower) == len(text) {
		if i := strings.Index(lower, needle); i >= 0 {
			return i, i + len(needle)
		}
		return -1, -1
	}
	for i := 0; i < len(text); {
		if e, ok := foldMatchAt(text, i, needle); ok {
			return i, e
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return -1, -1
}

// foldMatchAt reports whether the lowercased text starting at byte offset
// start begins with needle, and where that match ends in the original text.
func foldMatchAt(text string, start int, needle string) (int, bool) {
	i, j := start, 0
	for j < len(needle) {
		if i >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		folded := strings.ToLower(string(r))
		n := len(folded)
		if n > len(needle)-j {
			n = len(needle) - j
		}
		if folded[:n] != needle[j:j+n] {
			return 0, false
		}
		i += size
		j += n
	}
	return i, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func validSearchYear(year int) bool {
	return containsYear(searchYears, year)
}

func containsYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

// WordCount is one entry of the word-frequency index.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordCloud tokenizes every expenditure and project text field and returns
// the most frequent tokens. maxWords <= 0 falls back to the default size.
func (r *Reports) WordCloud(maxWords int) ([]WordCount, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}
	if maxWords <= 0 {
		maxWords = defaultWordCloudSize
	}

	counts := map[string]int{}
	for _, e := range ds.Entities {
		rec := ds.Records[e.RecordID]
		for _, v := range []core.FormVersion{core.FormOriginal, core.FormRevised} {
			for i := 1; i <= core.ExpenditureSlots; i++ {
				cols := core.ExpenditureColumns(i, v)
				tokenizeInto(rec.Str(cols.Description), counts)
				tokenizeInto(rec.Str(cols.Name), counts)
			}
			for i := 1; i <= core.ProjectSlots; i++ {
				nameCol, descCol := core.ProjectColumns(i, v)
				tokenizeInto(rec.Str(nameCol), counts)
				tokenizeInto(rec.Str(descCol), counts)
			}
		}
	}

	out := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > maxWords {
		out = out[:maxWords]
	}
	return out, nil
}

// tokenizeInto lowercases the text, strips non-letters, and counts tokens
// of at least minTokenLen characters that are not stop words.
func tokenizeInto(text string, counts map[string]int) {
	if text == "" {
		return
	}
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	for _, word := range strings.Fields(b.String()) {
		if len(word) >= minTokenLen && !stopWords[word] {
			counts[word]++
		}
	}
}

// stopWords are filtered from the word-frequency index.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "were": true, "they": true,
	"their": true, "what": true, "when": true, "where": true, "who": true,
	"will": true, "with": true, "this": true, "that": true, "from": true,
	"into": true, "which": true, "then": true, "than": true, "also": true,
	"just": true, "more": true, "some": true, "such": true, "about": true,
	"after": true, "before": true, "being": true, "between": true,
	"both": true, "each": true, "other": true, "through": true,
	"under": true, "very": true, "over": true, "only": true, "these": true,
	"those": true, "does": true, "how": true, "its": true, "may": true,
	"use": true, "used": true, "using": true, "any": true, "based": true,
	"including": true, "related": true,
}

package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one raw wide-format row from the municipal_data table, keyed by
// column name. Values arrive as whatever the sqlite driver produced; the
// typed accessors below absorb NULLs and driver type variation in one place.
type Record map[string]any

// Str returns a column as a string, or "" when absent or NULL.
func (r Record) Str(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		// record_id and code columns sometimes surface as numbers
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Num returns a column as a float64, or 0 when absent, NULL or non-numeric.
func (r Record) Num(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// HasValue reports whether a column holds a non-NULL, non-empty value.
func (r Record) HasValue(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// Int returns a column as an int, truncating numeric values.
func (r Record) Int(col string) int {
	return int(r.Num(col))
}

// ID returns the record identifier.
func (r Record) ID() string {
	return r.Str("record_id")
}

// ExpenditureFields names the columns of one expenditure slot for one form
// version. The dataset encodes repeated fields as numbered columns; building
// the names through this table keeps the naming convention in a single spot
// that load-time validation can check against the real column set.
type ExpenditureFields struct {
	Name         string
	Amount       string
	Category     string
	Status       string
	Offset       string
	OffsetVendor string
	Description  string
	Notes        string
	ProjectSlot  string
}

// FormSuffix returns the column suffix for a form version.
func FormSuffix(v FormVersion) string {
	if v == FormRevised {
		return "_v2"
	}
	return ""
}

// ExpenditureColumns returns the column names for expenditure slot i
// (1-based) of the given form version.
func ExpenditureColumns(i int, v FormVersion) ExpenditureFields {
	s := FormSuffix(v)
	return ExpenditureFields{
		Name:         fmt.Sprintf("expenditure%d%s", i, s),
		Amount:       fmt.Sprintf("amount%d%s", i, s),
		Category:     fmt.Sprintf("e_c%d%s", i, s),
		Status:       fmt.Sprintf("status%d%s", i, s),
		Offset:       fmt.Sprintf("offset%d%s", i, s),
		OffsetVendor: fmt.Sprintf("o_v%d%s", i, s),
		Description:  fmt.Sprintf("description%d%s", i, s),
		Notes:        fmt.Sprintf("notes%d%s", i, s),
		ProjectSlot:  fmt.Sprintf("e_p_%d%s", i, s),
	}
}

// ProjectColumns returns the name and description columns for project slot i
// (1-based) of the given form version.
func ProjectColumns(i int, v FormVersion) (name, desc string) {
	s := FormSuffix(v)
	return fmt.Sprintf("pjct_name_%d%s", i, s), fmt.Sprintf("pjct_desc_%d%s", i, s)
}

// summaryColumns are the fixed columns the entity summary is built from.
var summaryColumns = []string{
	"record_id",
	"municipality_csv",
	"muni_org",
	"agonumbers",
	"ro_funds",
	"mosaic_funding",
	"pooled_yn",
	"collaborative_name",
	"lead_muni",
	"amt_pooled",
	"t_exp",
	"t_enc",
	"t_exp_v2",
	"t_enc_v2",
}

// ValidateRecordColumns checks the expected column set against the columns
// actually present in the primary table. Any drift in the numbered-field
// naming convention fails the load here instead of surfacing later as silent
// zero reads.
func ValidateRecordColumns(cols map[string]bool) error {
	var missing []string

	check := func(name string) {
		if !cols[name] {
			missing = append(missing, name)
		}
	}

	for _, c := range summaryColumns {
		check(c)
	}
	for _, v := range []FormVersion{FormOriginal, FormRevised} {
		for i := 1; i <= ExpenditureSlots; i++ {
			f := ExpenditureColumns(i, v)
			for _, c := range []string{f.Name, f.Amount, f.Category, f.Status, f.Offset, f.OffsetVendor, f.Description, f.Notes, f.ProjectSlot} {
				check(c)
			}
		}
		for i := 1; i <= ProjectSlots; i++ {
			name, desc := ProjectColumns(i, v)
			check(name)
			check(desc)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("municipal_data schema drift: %d missing columns (first: %s)", len(missing), missing[0])
	}
	return nil
}

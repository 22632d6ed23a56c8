package services

import (
	"sort"
	"strings"

	"orrfdash/internal/core"
)

// StateObjectClassLabels maps raw CTHRU object class strings to display names.
var StateObjectClassLabels = map[string]string{
	"(AA) REGULAR EMPLOYEE COMPENSATION": "Regular Employee Compensation",
	"(BB) REGULAR EMPLOYEE RELATED EXPEN": "Employee Related Expenses",
	"(CC) SPECIAL EMPLOYEES":             "Special Employees",
	"(HH) CONSULTANT SVCS (TO DEPTS)":    "Consultant Services",
	"(MM) PURCHASED CLIENT/PROGRAM SVCS": "Purchased Program Services",
	"(PP) STATE AID/POL SUBS":            "State Aid",
	"(UU) IT NON-PAYROLL EXPENSE":        "IT Expenses",
}

type (
	// StateSummary holds the headline figures for the state-agency view.
	StateSummary struct {
		Total         float64        `json:"total"`
		RecordCount   int            `json:"recordCount"`
		UniqueVendors int            `json:"uniqueVendors"`
		TopDepartment *DepartmentRef `json:"topDept"`
	}

	DepartmentRef struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}

	// SpendingGroup is one department/vendor/object-class bucket.
	SpendingGroup struct {
		Code  string  `json:"code,omitempty"`
		Name  string  `json:"name"`
		City  string  `json:"city,omitempty"`
		State string  `json:"state,omitempty"`
		Total float64 `json:"total"`
		Count int     `json:"count"`
	}
)

// stateRows returns the transaction list, optionally filtered by fiscal
// year (0 means all years).
func (r *Reports) stateRows(fiscalYear int) ([]core.StateTransaction, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}
	if fiscalYear == 0 {
		return ds.StateRows, nil
	}
	var rows []core.StateTransaction
	for _, t := range ds.StateRows {
		if t.FiscalYear == fiscalYear {
			rows = append(rows, t)
		}
	}
	return rows, nil
}

// StateSummary computes the CTHRU headline figures for a fiscal year
// (0 for all years).
func (r *Reports) StateSummary(fiscalYear int) (StateSummary, error) {
	rows, err := r.stateRows(fiscalYear)
	if err != nil {
		return StateSummary{}, err
	}

	var s StateSummary
	vendors := map[string]bool{}
	deptTotals := map[string]float64{}
	for _, t := range rows {
		s.Total += t.Amount
		vendors[t.Vendor] = true
		deptTotals[t.Department] += t.Amount
	}
	s.RecordCount = len(rows)
	s.UniqueVendors = len(vendors)

	for name, total := range deptTotals {
		if s.TopDepartment == nil || total > s.TopDepartment.Total {
			s.TopDepartment = &DepartmentRef{Name: name, Total: total}
		}
	}
	return s, nil
}

// StateByDepartment groups transactions by department code, sorted by total
// descending.
func (r *Reports) StateByDepartment(fiscalYear int) ([]SpendingGroup, error) {
	rows, err := r.stateRows(fiscalYear)
	if err != nil {
		return nil, err
	}

	groups := map[string]*SpendingGroup{}
	var order []string
	for _, t := range rows {
		code := t.DepartmentCode
		if code == "" {
			code = "UNK"
		}
		g, ok := groups[code]
		if !ok {
			name := t.Department
			if name == "" {
				name = "Unknown Department"
			}
			g = &SpendingGroup{Code: code, Name: name}
			groups[code] = g
			order = append(order, code)
		}
		g.Total += t.Amount
		g.Count++
	}
	return sortedGroups(groups, order), nil
}

// StateByVendor groups transactions by vendor, sorted by total descending
// and capped at limit.
func (r *Reports) StateByVendor(limit, fiscalYear int) ([]SpendingGroup, error) {
	rows, err := r.stateRows(fiscalYear)
	if err != nil {
		return nil, err
	}

	groups := map[string]*SpendingGroup{}
	var order []string
	for _, t := range rows {
		g, ok := groups[t.Vendor]
		if !ok {
			g = &SpendingGroup{Name: t.Vendor, City: t.VendorCity, State: t.VendorState}
			groups[t.Vendor] = g
			order = append(order, t.Vendor)
		}
		g.Total += t.Amount
		g.Count++
	}
	out := sortedGroups(groups, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StateByObjectClass groups transactions by object class, sorted by total
// descending.
func (r *Reports) StateByObjectClass(fiscalYear int) ([]SpendingGroup, error) {
	rows, err := r.stateRows(fiscalYear)
	if err != nil {
		return nil, err
	}

	groups := map[string]*SpendingGroup{}
	var order []string
	for _, t := range rows {
		g, ok := groups[t.ObjectClass]
		if !ok {
			g = &SpendingGroup{Code: t.ObjectClass, Name: t.ObjectClass}
			groups[t.ObjectClass] = g
			order = append(order, t.ObjectClass)
		}
		g.Total += t.Amount
		g.Count++
	}
	return sortedGroups(groups, order), nil
}

// StateFiscalYears returns the distinct fiscal years present in the CTHRU
// data, newest first. Implausible year values are dropped.
func (r *Reports) StateFiscalYears() ([]int, error) {
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var years []int
	for _, t := range ds.StateRows {
		if t.FiscalYear > 2000 && t.FiscalYear < 2100 && !seen[t.FiscalYear] {
			seen[t.FiscalYear] = true
			years = append(years, t.FiscalYear)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// SearchStateSpending filters transactions by case-insensitive substring
// over vendor, department and city. Terms shorter than two characters
// return nothing; results are capped at 100.
func (r *Reports) SearchStateSpending(term string) ([]core.StateTransaction, error) {
	if len([]rune(term)) < 2 {
		return nil, nil
	}
	ds, err := r.store.Dataset()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	var out []core.StateTransaction
	for _, t := range ds.StateRows {
		haystack := strings.ToLower(t.Vendor + " " + t.Department + " " + t.VendorCity)
		if strings.Contains(haystack, needle) {
			out = append(out, t)
			if len(out) == searchResultCap {
				break
			}
		}
	}
	return out, nil
}

func sortedGroups(groups map[string]*SpendingGroup, order []string) []SpendingGroup {
	out := make([]SpendingGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

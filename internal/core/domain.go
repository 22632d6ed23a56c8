package core

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// FormOriginal is the original report form, filed by collaboratives
	// and organizations. Its columns carry no suffix.
	FormOriginal FormVersion = "collaborative"
	// FormRevised is the revised report form, filed by municipalities.
	// Its columns carry a "_v2" suffix.
	FormRevised FormVersion = "municipal"

	StatusExpended   Status = "Expended"
	StatusEncumbered Status = "Encumbered"

	// AdministrativeCosts is the fixed project label for slot value 6.
	// It is a sentinel, not one of the five real project slots.
	AdministrativeCosts = "Administrative Costs"

	// ExpenditureSlots is the number of repeated expenditure fields per form version.
	ExpenditureSlots = 20
	// ProjectSlots is the number of repeated project fields per form version.
	ProjectSlots = 5
)

type (
	FormVersion string

	Status string

	// Entity is the summary view of one reporting unit for FY2025,
	// built once at load time and immutable afterward.
	Entity struct {
		RecordID        string
		Name            string // raw municipality_csv key, e.g. "NorthAdams"
		DisplayName     string // human-readable form, e.g. "North Adams"
		Kind            string // Municipality, County or Organization
		Disbursement    float64
		Carryover       float64
		TotalAvailable  float64 // Disbursement + Carryover
		TotalExpended   float64
		TotalEncumbered float64
		TotalRemaining  float64 // TotalAvailable - expended - encumbered
		MosaicFunding   float64
		Pooled          bool
		CollaborativeID int
		PctUtilized     float64
	}

	// Expenditure is one normalized line item expanded from the wide-format
	// expenditure1..20 columns of an entity record.
	Expenditure struct {
		Name         string
		CategoryID   int
		Category     string // "Unknown" when CategoryID is not a known category
		Amount       float64
		Offset       float64
		Status       Status
		Description  string
		Notes        string
		OffsetVendor string
		Project      string // empty when the line references no project
		Source       FormVersion
	}

	// Project is a named initiative an entity reports spending against.
	Project struct {
		Name        string
		Description string
		Source      FormVersion
	}

	// PWLLE holds the people-with-lived/living-experience engagement report.
	PWLLE struct {
		Level       int
		LevelLabel  string
		Description string
	}

	// Narratives groups the free-text report fields of an entity.
	Narratives struct {
		PWLLE           PWLLE
		Highlight       string
		HighlightUpload string
		NoExpenseWork   string
		FuturePlans     string
	}

	// Grant is an external funding award (RIZE, Mosaic CORE, Family Resilience).
	Grant struct {
		Awardee             string
		Website             string
		Period              string
		Amount              float64
		FocusAreas          []string
		Geography           string // county name or "Statewide"
		Mission             string
		GrantType           string
		Municipalities      []string // RIZE: municipalities served by the grant
		PrimaryMunicipality string
		RelationshipType    string // RIZE: direct, collaborative or partner
	}

	// StateTransaction is one CTHRU payment record.
	StateTransaction struct {
		Vendor         string
		VendorCity     string
		VendorState    string
		Department     string
		DepartmentCode string
		ObjectClass    string
		Amount         float64
		FiscalYear     int
	}

	// PDFAttachment is a supplementary document uploaded with a report.
	PDFAttachment struct {
		RecordID string
		Filename string
		FilePath string
		OCRText  string
	}

	// CollaborativeMember is one municipality participating in an OAC.
	CollaborativeMember struct {
		RecordID     string
		Name         string
		Contribution float64
		IsLead       bool
	}

	// Collaborative is a regional fund-pooling arrangement.
	//
	// TotalExpended and TotalEncumbered mirror the lead member's own report
	// totals rather than a sum over members: the lead files the pooled
	// spending on behalf of the collaborative.
	Collaborative struct {
		ID              int
		Name            string
		LeadName        string
		Members         []CollaborativeMember
		TotalPooled     float64
		TotalExpended   float64
		TotalEncumbered float64
	}

	// UtilizationOverride documents a data-quality exception for one entity.
	// Overrides are declared by raw name, resolved to record ids at load
	// time, and never applied outside this table.
	UtilizationOverride struct {
		RawName   string
		CappedPct float64
		Reason    string
	}
)

// Categories maps the six fixed spending category ids to their labels.
var Categories = map[int]string{
	1: "Salaries",
	2: "Subcontracts",
	3: "Program Facilities",
	4: "Program Support",
	5: "Program Supplies",
	6: "Administrative Costs",
}

// PWLLELevels maps engagement level codes to their labels.
var PWLLELevels = map[int]string{
	1: "Not engaged in decision-making",
	2: "Informed about decision-making",
	3: "Consulted during decision-making",
	4: "Involved in decision-making",
	5: "Empowered to lead with authority",
	6: "Not applicable",
}

// CollaborativeNames maps OAC ids to their registered names.
var CollaborativeNames = map[int]string{
	1:  "Berkshire Public Health Alliance",
	2:  "CAPE Public Health Collaborative",
	3:  "Cooperative Public Health District (FRCOG)",
	4:  "Foothills Health District",
	7:  "Great Meadows Public Health Collaborative",
	8:  "Hampshire Public Health Shared Services Collaborative",
	9:  "Inter-Island Public Health Excellence Collaborative",
	10: "Nashoba Associated Boards of Health",
	11: "Norfolk County 5 East",
	12: "Norfolk County-8 Local Public Health Coalition",
	13: "North Quabbin Health Collaborative",
	14: "South Central Massachusetts Partnership for Health",
	15: "Southern Berkshire Public Health Collaborative",
	16: "Western Hampden County Public Health District",
	17: "Other",
}

// UtilizationOverrides lists every known utilization cap. Each entry must
// record why the raw figure is wrong.
var UtilizationOverrides = []UtilizationOverride{
	{
		RawName:   "Pelham",
		CappedPct: 100,
		Reason:    "FY24 carryover missing from the report, so raw utilization exceeds 100%",
	},
}

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidYear  = errors.New("invalid fiscal year")
	ErrInvalidLimit = errors.New("invalid limit")
)

// Net returns the line-item amount after subtracting the offset.
func (e Expenditure) Net() float64 {
	return e.Amount - e.Offset
}

// CategoryName returns the label for a category id, or "Unknown".
func CategoryName(id int) string {
	if name, ok := Categories[id]; ok {
		return name
	}
	return "Unknown"
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// FormatMunicipalityName expands a concatenated raw name for display,
// e.g. "NorthAdams" -> "North Adams".
func FormatMunicipalityName(raw string) string {
	if raw == "" {
		return ""
	}
	return camelBoundary.ReplaceAllString(raw, "$1 $2")
}

// StripSpaces removes every space from a name. Used by the cross-year
// resolver to match spaced historical names against raw FY25 keys.
func StripSpaces(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

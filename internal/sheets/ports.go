package sheets

import "context"

// GrantRow is one grant as maintained on the program tracking spreadsheet,
// before it is written into the dataset tables.
type GrantRow struct {
	Awardee             string
	Website             string
	Period              string
	Amount              float64
	FocusAreas          []string
	Geography           string
	Mission             string
	GrantType           string
	Municipalities      []string
	PrimaryMunicipality string
	RelationshipType    string
}

// CountyRow maps one municipality to its county.
type CountyRow struct {
	Municipality string
	County       string
}

// GrantReader lists the grants published on one sheet.
type GrantReader interface {
	ListGrants(ctx context.Context, sheetName string) ([]GrantRow, error)
}

// CountyReader lists the municipality-to-county mapping sheet.
type CountyReader interface {
	ListCounties(ctx context.Context, sheetName string) ([]CountyRow, error)
}

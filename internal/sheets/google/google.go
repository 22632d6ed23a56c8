package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "orrfdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the grant tracking spreadsheet maintained by the program
// teams. Each grant program lives on its own sheet; the county mapping is
// a two-column sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var (
	_ ports.GrantReader  = (*Client)(nil)
	_ ports.CountyReader = (*Client)(nil)
)

// NewClient creates a read-only Sheets client. Credentials come from inline
// JSON when provided, a credentials file otherwise, and fall back to
// GOOGLE_APPLICATION_CREDENTIALS.
func NewClient(ctx context.Context, spreadsheetID, credentialsJSON, credentialsFile string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	svc, err := newSheetsService(ctx, credentialsJSON, credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	var err error
	switch {
	case credentialsJSON != "":
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		raw, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(raw))
	return service, nil
}

// ListGrants reads one grant program sheet. Row 1 is the header; data rows
// run A:K in the order awardee, website, period, amount, focus areas,
// geography, mission, grant type, municipalities, primary municipality,
// relationship type. List cells hold semicolon-separated values.
func (c *Client) ListGrants(ctx context.Context, sheetName string) ([]ports.GrantRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A2:K", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []ports.GrantRow
	for _, row := range resp.Values {
		cols := toStrings(row)
		awardee := safeGet(cols, 0)
		if awardee == "" {
			continue
		}
		amount, ok := parseDollars(safeGet(cols, 3))
		if !ok {
			slog.WarnContext(ctx, "Skipping grant row with unparseable amount",
				"sheet", sheetName,
				"awardee", awardee,
				"raw", safeGet(cols, 3))
			continue
		}
		out = append(out, ports.GrantRow{
			Awardee:             awardee,
			Website:             safeGet(cols, 1),
			Period:              safeGet(cols, 2),
			Amount:              amount,
			FocusAreas:          splitList(safeGet(cols, 4)),
			Geography:           safeGet(cols, 5),
			Mission:             safeGet(cols, 6),
			GrantType:           safeGet(cols, 7),
			Municipalities:      splitList(safeGet(cols, 8)),
			PrimaryMunicipality: safeGet(cols, 9),
			RelationshipType:    safeGet(cols, 10),
		})
	}
	slog.InfoContext(ctx, "Read grant sheet", "sheet", sheetName, "rows", len(out))
	return out, nil
}

// ListCounties reads the municipality-to-county mapping sheet (A:B, header
// on row 1).
func (c *Client) ListCounties(ctx context.Context, sheetName string) ([]ports.CountyRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A2:B", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []ports.CountyRow
	for _, row := range resp.Values {
		cols := toStrings(row)
		muni := safeGet(cols, 0)
		county := safeGet(cols, 1)
		if muni == "" || county == "" {
			continue
		}
		out = append(out, ports.CountyRow{Municipality: muni, County: county})
	}
	slog.InfoContext(ctx, "Read county mapping sheet", "sheet", sheetName, "rows", len(out))
	return out, nil
}

// Package export mirrors expense rows to a Google Sheets spreadsheet. The
// sheet is an external view only; storage stays the source of truth.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/config"
)

// Row is one exported expense line.
type Row struct {
	Date     time.Time
	User     string
	Category string
	Cents    int64
	Note     string
}

// Appender mirrors one expense row to an external sheet and returns a
// reference to the written range.
type Appender interface {
	AppendExpense(ctx context.Context, row Row) (string, error)
}

// Client writes rows to a year-prefixed sheet of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ Appender = (*Client)(nil)

// NewFromConfig builds a sheets client from the OAuth credentials in cfg.
// The token must have been produced beforehand by the oauth-init command.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	clientJSON, err := readCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth client: %w", err)
	}
	tokenJSON, err := readCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load OAuth token: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetBase := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetBase == "" {
		sheetBase = "Expenses"
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

func readCredential(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return data, nil
	default:
		return nil, errors.New("no credential configured")
	}
}

// AppendExpense writes the row after the last occupied row of the target
// sheet. Columns are date, user, category, amount and note.
func (c *Client) AppendExpense(ctx context.Context, row Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := yearPrefixedName(c.sheetBase, row.Date.Year())

	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	units := float64(row.Cents) / 100.0
	dataRange := fmt.Sprintf("%s!A%d:E%d", sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Date.Format("2006-01-02"), row.User, row.Category, units, row.Note,
	}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a
// 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

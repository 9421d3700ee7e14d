package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ports "conciliador/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valueInput matches what a user typing into the sheet would produce:
// numbers, booleans and dates are parsed by Sheets.
const valueInput = "USER_ENTERED"

// newSheetRows is the grid size of collections created by EnsureCollection.
const newSheetRows = 1000

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]bool // nil until first load
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// New binds a Sheets service to one spreadsheet.
func New(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// NewServiceFromEnv initializes a Sheets Service using Service Account credentials.
func NewServiceFromEnv(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewService creates the underlying Sheets service with explicit options.
func NewService(ctx context.Context, opts ...goption.ClientOption) (*gsheet.Service, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) ReadRows(ctx context.Context, collection string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	ok, err := c.hasSheet(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrCollectionNotFound, collection)
	}

	rng := quoteSheet(collection)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

func (c *Client) AppendRows(ctx context.Context, collection string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := quoteSheet(collection) + "!A1"
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %d rows to %s: %w", len(rows), collection, err)
	}
	slog.InfoContext(ctx, "Rows appended", "sheet", collection, "rows", len(rows))
	return nil
}

func (c *Client) UpdateRanges(ctx context.Context, collection string, updates []ports.RangeUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: valueInput}
	for _, u := range updates {
		req.Data = append(req.Data, &gsheet.ValueRange{
			Range:  quoteSheet(collection) + "!" + u.Range,
			Values: toValues(u.Values),
		})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("batch update %s: %w", collection, err)
	}
	return nil
}

func (c *Client) EnsureCollection(ctx context.Context, name string, header []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	ok, err := c.hasSheet(ctx, name)
	if err != nil || ok {
		return err
	}

	cols := int64(len(header))
	if cols == 0 {
		cols = 26
	}
	add := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{
			Title:          name,
			GridProperties: &gsheet.GridProperties{RowCount: newSheetRows, ColumnCount: cols},
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, add).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}

	if len(header) > 0 {
		vr := &gsheet.ValueRange{Values: toValues([][]string{header})}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteSheet(name)+"!A1", vr).
			ValueInputOption(valueInput).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of %s: %w", name, err)
		}
	}

	c.mu.Lock()
	c.titles[name] = true
	c.mu.Unlock()
	slog.InfoContext(ctx, "Sheet created", "sheet", name)
	return nil
}

// hasSheet loads sheet titles once per client and answers from memory afterwards.
func (c *Client) hasSheet(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.titles == nil {
		resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return false, fmt.Errorf("list sheets: %w", err)
		}
		c.titles = make(map[string]bool, len(resp.Sheets))
		for _, s := range resp.Sheets {
			if s.Properties != nil {
				c.titles[s.Properties.Title] = true
			}
		}
	}
	return c.titles[name], nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		vals := make([]interface{}, len(r))
		for j, v := range r {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}

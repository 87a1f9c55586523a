// Package google mirrors stored transactions into a Google Sheet, one row per
// transaction, using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/core"
	"finboard/internal/log"
)

// Sheet columns: A date, B type, C category, D amount, E description, F id.
const (
	lastColumn = "F"
	idColumn   = 5
)

var sheetHeader = []any{"Date", "Type", "Category", "Amount", "Description", "ID"}

var ErrNotInitialized = errors.New("sheets service not initialized")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Credentials selects how the service account is loaded. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	if len(opts) == 0 {
		credentialsJSON, err := creds.load()
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// UpsertTransaction writes tx to the sheet. An existing row with the same ID
// is overwritten, otherwise a row is appended. It returns the A1 range written.
func (c *Client) UpsertTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", ErrNotInitialized
	}

	values, err := c.readAll(ctx)
	if err != nil {
		return "", err
	}

	rowNum := findRow(values, tx.ID)
	if rowNum == 0 {
		rowNum = len(values) + 1
		slog.DebugContext(ctx, "Appending sheet row", log.FieldOperation, log.OpAppend, "id", tx.ID)
		if len(values) == 0 {
			if err := c.update(ctx, 1, sheetHeader); err != nil {
				return "", fmt.Errorf("write header: %w", err)
			}
			rowNum = 2
		}
	}

	if err := c.update(ctx, rowNum, toRow(tx)); err != nil {
		return "", err
	}
	return c.rowRange(rowNum), nil
}

// DeleteTransaction clears the row holding id. A missing row is not an error.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return ErrNotInitialized
	}
	values, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	rowNum := findRow(values, id)
	if rowNum == 0 {
		return nil
	}
	rng := c.rowRange(rowNum)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// ListTransactions reads every parsable row of the sheet.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, ErrNotInitialized
	}
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(values), nil
}

func (c *Client) readAll(ctx context.Context) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) update(ctx context.Context, rowNum int, row []any) error {
	rng := c.rowRange(rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(rowNum int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheetName, rowNum, lastColumn, rowNum)
}

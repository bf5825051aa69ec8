// Package export mirrors expenses into a Google Sheets spreadsheet. Rows are
// keyed by expense id in column A so updates and deletes find their row.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"nomoney/internal/core"
)

// ErrRowNotFound is returned when no sheet row carries the expense id.
var ErrRowNotFound = errors.New("expense row not found in sheet")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Options carries the credential material resolved by the config layer.
// Exactly one of JSON or File must be set.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.ServiceAccountJSON) != "":
		credentialsJSON = []byte(opts.ServiceAccountJSON)
	case strings.TrimSpace(opts.ServiceAccountFile) != "":
		data, err := os.ReadFile(opts.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets export client created",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// UpsertExpense writes the expense to its row if one exists, otherwise
// appends a new row at the bottom of the sheet.
func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := [][]any{expenseRow(e)}

	row, err := c.findRow(ctx, e.ID)
	if err != nil && !errors.Is(err, ErrRowNotFound) {
		return err
	}

	if errors.Is(err, ErrRowNotFound) {
		rng := fmt.Sprintf("%s!A:E", c.sheetName)
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng,
			&gsheet.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append expense row: %w", err)
		}
		slog.InfoContext(ctx, "Expense row appended to sheet", "id", e.ID)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update expense row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Expense row updated in sheet", "id", e.ID, "row", row)
	return nil
}

// DeleteExpense clears the row holding the expense id. Missing rows are not
// an error: a delete racing a never-exported expense has nothing to do.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, id)
	if errors.Is(err, ErrRowNotFound) {
		slog.InfoContext(ctx, "No sheet row to delete for expense", "id", id)
		return nil
	}
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng,
		&gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear expense row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Expense row cleared in sheet", "id", id, "row", row)
	return nil
}

// findRow returns the 1-based sheet row whose column A holds the id.
func (c *Client) findRow(ctx context.Context, id int64) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	target := strconv.FormatInt(id, 10)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == target {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

// expenseRow renders one sheet row: id, date, description, amount, category.
func expenseRow(e core.Expense) []any {
	return []any{
		strconv.FormatInt(e.ID, 10),
		e.Date.Key(),
		e.Description,
		e.Amount.StringFixed(2),
		e.CategoryName,
	}
}

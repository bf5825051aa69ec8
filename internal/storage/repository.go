// Package storage persists expenses and categories in SQLite through
// database/sql, with schema managed by golang-migrate.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nomoney/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Sync states for the sheet export queue.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `e.id, e.amount_cents, e.description, e.category_id,
	COALESCE(c.name, ''), COALESCE(c.color, ''), e.expense_date, e.user_id, e.version`

const expenseJoin = `FROM expenses e LEFT JOIN categories c ON c.id = e.category_id`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e       core.Expense
		cents   int64
		dateKey string
	)
	err := row.Scan(&e.ID, &cents, &e.Description, &e.CategoryID,
		&e.CategoryName, &e.CategoryColor, &dateKey, &e.UserID, &e.Version)
	if err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.FromCents(cents)
	t, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateKey, err)
	}
	e.Date = core.DateOf(t)
	return e, nil
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateExpense inserts the expense and returns it with its assigned id and
// denormalized category fields.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount_cents, description, category_id, expense_date, user_id)
		 VALUES (?, ?, ?, ?, ?)`,
		core.Cents(e.Amount), e.Description, e.CategoryID, e.Date.Key(), userID(e.UserID))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}

	created, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", created.ID,
		"description", created.Description,
		"amount", created.Amount,
		"category_id", created.CategoryID,
		"date", created.Date.Key())

	return created, nil
}

// GetExpense returns one expense by id, or ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` `+expenseJoin+` WHERE e.id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns all expenses, newest date first.
func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` `+expenseJoin+` ORDER BY e.expense_date DESC, e.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// ListExpensesByMonth returns all expenses dated within the given month,
// ascending. ISO day strings compare lexicographically, so a half-open range
// on the text column is enough.
func (r *Repository) ListExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month+1, 1)
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` `+expenseJoin+`
		 WHERE e.expense_date >= ? AND e.expense_date < ?
		 ORDER BY e.expense_date, e.id`,
		from.Key(), to.Key())
	if err != nil {
		return nil, fmt.Errorf("list expenses for %d-%02d: %w", year, month, err)
	}
	return out, nil
}

// ListExpensesByDate returns the expenses of a single calendar day.
func (r *Repository) ListExpensesByDate(ctx context.Context, date core.Date) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` `+expenseJoin+`
		 WHERE e.expense_date = ? ORDER BY e.id`,
		date.Key())
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", date.Key(), err)
	}
	return out, nil
}

// UpdateExpense rewrites the mutable fields of an expense, bumps its version
// and re-queues it for sheet sync. Returns the updated row.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, description = ?, category_id = ?, expense_date = ?,
		     sync_status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		core.Cents(e.Amount), e.Description, e.CategoryID, e.Date.Key(), SyncPending, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Expense{}, ErrNotFound
	}
	return r.GetExpense(ctx, e.ID)
}

// DeleteExpense removes an expense by id.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountExpensesForCategory returns how many expenses reference a category.
func (r *Repository) CountExpensesForCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses for category %d: %w", categoryID, err)
	}
	return n, nil
}

// ListCategories returns the full category registry ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, is_default, user_id FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.IsDefault, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns one category by id, or ErrNotFound.
func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, is_default, user_id FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color, &c.IsDefault, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

// CreateCategory inserts a non-default category and returns it with its id.
func (r *Repository) CreateCategory(ctx context.Context, name, color string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, color, is_default) VALUES (?, ?, 0)`, name, color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetCategory(ctx, id)
}

// UpdateCategory rewrites a category's name and color.
func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ? WHERE id = ?`, c.Name, c.Color, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Category{}, ErrNotFound
	}
	return r.GetCategory(ctx, c.ID)
}

// DeleteCategory removes a category by id. The lifecycle guard runs in the
// service layer; this only touches the row.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// seedCategories mirrors the 000002 migration. ResetDefaultCategories
// restores these rows without touching user-created categories.
var seedCategories = []struct {
	name, color string
}{
	{"food", "#ff4444"},
	{"entertainment", "#44ff44"},
	{"transport", "#ffff44"},
	{"healthcare", "#4444ff"},
	{"rent", "#ff44ff"},
	{"shopping", "#ff8844"},
}

// ResetDefaultCategories reinstates the seeded default categories: missing
// ones are recreated, existing ones get their seed color back.
func (r *Repository) ResetDefaultCategories(ctx context.Context) error {
	for _, seed := range seedCategories {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO categories (name, color, is_default) VALUES (?, ?, 1)
			 ON CONFLICT (name) DO UPDATE SET color = excluded.color, is_default = 1`,
			seed.name, seed.color)
		if err != nil {
			return fmt.Errorf("reset default category %q: %w", seed.name, err)
		}
	}
	slog.InfoContext(ctx, "Default categories reset", "count", len(seedCategories))
	return nil
}

// PendingSyncExpense is the minimal row handed to the sheet sync queue.
type PendingSyncExpense struct {
	ID      int64
	Version int64
}

// GetPendingSyncExpenses returns expenses not yet exported, oldest first.
func (r *Repository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM expenses WHERE sync_status = ? ORDER BY id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncExpense
	for rows.Next() {
		var p PendingSyncExpense
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful sheet export for an expense.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed sheet export for an expense.
func (r *Repository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

func (r *Repository) setSyncStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status %q on expense %d: %w", status, id, err)
	}
	return nil
}

func userID(id int64) int64 {
	if id <= 0 {
		return 1
	}
	return id
}

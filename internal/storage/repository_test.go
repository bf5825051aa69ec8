package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"nomoney/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCategoryID(t *testing.T, repo *Repository, name string) int64 {
	t.Helper()
	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("seed category %q not found", name)
	return 0
}

func TestMigrationsSeedDefaultCategories(t *testing.T) {
	repo := newTestRepository(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 6 {
		t.Fatalf("ListCategories() returned %d categories, want 6", len(cats))
	}
	byName := make(map[string]core.Category)
	for _, c := range cats {
		byName[c.Name] = c
	}
	if c, ok := byName["food"]; !ok || c.Color != "#ff4444" || !c.IsDefault {
		t.Errorf("food category = %+v, want default with color #ff4444", c)
	}
	if c, ok := byName["rent"]; !ok || c.Color != "#ff44ff" || !c.IsDefault {
		t.Errorf("rent category = %+v, want default with color #ff44ff", c)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	created, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("25.50"),
		Description: "groceries",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateExpense() returned id 0")
	}
	if created.CategoryName != "food" || created.CategoryColor != "#ff4444" {
		t.Errorf("denormalized category = %q/%q, want food/#ff4444",
			created.CategoryName, created.CategoryColor)
	}

	got, err := repo.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("Amount = %s, want 25.50", got.Amount)
	}
	if got.Date.Key() != "2024-03-05" {
		t.Errorf("Date = %s, want 2024-03-05", got.Date.Key())
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetExpense(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetExpense(999) error = %v, want ErrNotFound", err)
	}
}

func TestListExpensesByMonthBoundaries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	dates := []core.Date{
		core.NewDate(2024, 2, 29), // previous month
		core.NewDate(2024, 3, 1),  // first day, included
		core.NewDate(2024, 3, 31), // last day, included
		core.NewDate(2024, 4, 1),  // next month
	}
	for _, d := range dates {
		_, err := repo.CreateExpense(ctx, core.Expense{
			Amount:      decimal.RequireFromString("10.00"),
			Description: "boundary " + d.Key(),
			CategoryID:  foodID,
			Date:        d,
		})
		if err != nil {
			t.Fatalf("CreateExpense(%s) error = %v", d.Key(), err)
		}
	}

	got, err := repo.ListExpensesByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("ListExpensesByMonth() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListExpensesByMonth() returned %d expenses, want 2", len(got))
	}
	if got[0].Date.Key() != "2024-03-01" || got[1].Date.Key() != "2024-03-31" {
		t.Errorf("dates = %s, %s; want 2024-03-01, 2024-03-31",
			got[0].Date.Key(), got[1].Date.Key())
	}
}

func TestListExpensesByDate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	day := core.NewDate(2024, 3, 5)
	for _, desc := range []string{"breakfast", "lunch"} {
		if _, err := repo.CreateExpense(ctx, core.Expense{
			Amount:      decimal.RequireFromString("8.00"),
			Description: desc,
			CategoryID:  foodID,
			Date:        day,
		}); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}
	if _, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("8.00"),
		Description: "other day",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 6),
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	got, err := repo.ListExpensesByDate(ctx, day)
	if err != nil {
		t.Fatalf("ListExpensesByDate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListExpensesByDate() returned %d expenses, want 2", len(got))
	}
}

func TestUpdateExpenseBumpsVersionAndRequeuesSync(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	created, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("25.50"),
		Description: "groceries",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if err := repo.MarkSynced(ctx, created.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	created.Amount = decimal.RequireFromString("30.00")
	created.Description = "groceries and snacks"
	updated, err := repo.UpdateExpense(ctx, created)
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("Amount = %s, want 30.00", updated.Amount)
	}

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != created.ID {
		t.Fatalf("pending = %+v, want the updated expense", pending)
	}
	if pending[0].Version != 2 {
		t.Errorf("version = %d, want 2", pending[0].Version)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	created, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("5.00"),
		Description: "coffee",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if err := repo.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if _, err := repo.GetExpense(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetExpense() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteExpense() second call error = %v, want ErrNotFound", err)
	}
}

func TestCountExpensesForCategory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")
	rentID := mustCategoryID(t, repo, "rent")

	for i := 0; i < 3; i++ {
		if _, err := repo.CreateExpense(ctx, core.Expense{
			Amount:      decimal.RequireFromString("10.00"),
			Description: "meal",
			CategoryID:  foodID,
			Date:        core.NewDate(2024, 3, 5),
		}); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	n, err := repo.CountExpensesForCategory(ctx, foodID)
	if err != nil {
		t.Fatalf("CountExpensesForCategory() error = %v", err)
	}
	if n != 3 {
		t.Errorf("count for food = %d, want 3", n)
	}
	n, err = repo.CountExpensesForCategory(ctx, rentID)
	if err != nil {
		t.Fatalf("CountExpensesForCategory() error = %v", err)
	}
	if n != 0 {
		t.Errorf("count for rent = %d, want 0", n)
	}
}

func TestCategoryCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.CreateCategory(ctx, "subscriptions", "#8844ff")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if created.IsDefault {
		t.Error("user-created category marked as default")
	}

	created.Name = "streaming"
	created.Color = "#884400"
	updated, err := repo.UpdateCategory(ctx, created)
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if updated.Name != "streaming" || updated.Color != "#884400" {
		t.Errorf("updated = %+v, want streaming/#884400", updated)
	}

	if err := repo.DeleteCategory(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if _, err := repo.GetCategory(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCategory() after delete error = %v, want ErrNotFound", err)
	}
}

func TestResetDefaultCategories(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	food, err := repo.GetCategory(ctx, foodID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	food.Color = "#000000"
	if _, err := repo.UpdateCategory(ctx, food); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if _, err := repo.CreateCategory(ctx, "custom", "#123456"); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	if err := repo.ResetDefaultCategories(ctx); err != nil {
		t.Fatalf("ResetDefaultCategories() error = %v", err)
	}

	food, err = repo.GetCategory(ctx, foodID)
	if err != nil {
		t.Fatalf("GetCategory() after reset error = %v", err)
	}
	if food.Color != "#ff4444" {
		t.Errorf("food color after reset = %s, want #ff4444", food.Color)
	}

	custom := mustCategoryID(t, repo, "custom")
	if custom == 0 {
		t.Error("user-created category removed by reset")
	}
}

func TestPendingSyncLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	foodID := mustCategoryID(t, repo, "food")

	first, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("10.00"),
		Description: "first",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	second, err := repo.CreateExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("20.00"),
		Description: "second",
		CategoryID:  foodID,
		Date:        core.NewDate(2024, 3, 6),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses() error = %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v, want both expenses oldest first", pending)
	}

	if err := repo.MarkSynced(ctx, first.ID); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if err := repo.MarkSyncError(ctx, second.ID); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}

	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after marking = %+v, want none", pending)
	}
}

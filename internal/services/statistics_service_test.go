package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"nomoney/internal/core"
	"nomoney/internal/storage"
)

func seedMarchExpenses(t *testing.T, repo *storage.Repository) {
	t.Helper()
	ctx := context.Background()
	foodID := categoryID(t, repo, "food")
	entID := categoryID(t, repo, "entertainment")

	inserts := []struct {
		amount string
		desc   string
		catID  int64
		date   core.Date
	}{
		{"25.50", "groceries", foodID, core.NewDate(2024, 3, 5)},
		{"45.00", "concert", entID, core.NewDate(2024, 3, 5)},
		{"10.00", "lunch", foodID, core.NewDate(2024, 3, 20)},
	}
	for _, in := range inserts {
		if _, err := repo.CreateExpense(ctx, core.Expense{
			Amount:      decimal.RequireFromString(in.amount),
			Description: in.desc,
			CategoryID:  in.catID,
			Date:        in.date,
		}); err != nil {
			t.Fatalf("CreateExpense(%s) error = %v", in.desc, err)
		}
	}
}

func TestStatisticsServiceMonthlyStats(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewStatisticsService(repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	seedMarchExpenses(t, repo)

	stats, err := svc.MonthlyStats(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("MonthlyStats() error = %v", err)
	}

	if !stats.TotalSpent.Equal(decimal.RequireFromString("80.50")) {
		t.Errorf("TotalSpent = %s, want 80.50", stats.TotalSpent)
	}
	if len(stats.ExpensesByCategory) != 2 {
		t.Fatalf("ExpensesByCategory has %d entries, want 2", len(stats.ExpensesByCategory))
	}
	if stats.TopCategory == nil || stats.TopCategory.CategoryName != "entertainment" {
		t.Errorf("TopCategory = %+v, want entertainment", stats.TopCategory)
	}
	// March is in the past relative to the injected clock, so the average
	// divides by the full month.
	wantAvg := decimal.RequireFromString("80.50").Div(decimal.NewFromInt(31)).Round(2)
	if !stats.DailyAverage.Equal(wantAvg) {
		t.Errorf("DailyAverage = %s, want %s", stats.DailyAverage, wantAvg)
	}
}

func TestStatisticsServiceDailyBreakdown(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewStatisticsService(repo)
	seedMarchExpenses(t, repo)

	days, err := svc.DailyBreakdown(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("DailyBreakdown() error = %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("DailyBreakdown() returned %d days, want 2", len(days))
	}
	if days[0].Date.Key() != "2024-03-05" || days[1].Date.Key() != "2024-03-20" {
		t.Errorf("days = %s, %s; want ascending 2024-03-05, 2024-03-20",
			days[0].Date.Key(), days[1].Date.Key())
	}
	if !days[0].TotalAmount.Equal(decimal.RequireFromString("70.50")) {
		t.Errorf("first day total = %s, want 70.50", days[0].TotalAmount)
	}
}

func TestStatisticsServiceCalendarGrid(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewStatisticsService(repo)
	seedMarchExpenses(t, repo)

	cells, err := svc.CalendarGrid(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("CalendarGrid() error = %v", err)
	}
	if len(cells) != core.GridCells {
		t.Fatalf("CalendarGrid() returned %d cells, want %d", len(cells), core.GridCells)
	}

	var found bool
	for _, cell := range cells {
		if cell.Date.Key() == "2024-03-05" {
			found = true
			if len(cell.Expenses) != 2 {
				t.Errorf("cell 2024-03-05 has %d expenses, want 2", len(cell.Expenses))
			}
			if !cell.TotalAmount.Equal(decimal.RequireFromString("70.50")) {
				t.Errorf("cell total = %s, want 70.50", cell.TotalAmount)
			}
		}
	}
	if !found {
		t.Fatal("cell for 2024-03-05 not found in grid")
	}
}

func TestStatisticsServiceValidation(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewStatisticsService(repo)
	ctx := context.Background()

	if _, err := svc.MonthlyStats(ctx, 2024, 13); err == nil {
		t.Error("MonthlyStats() should reject month 13")
	}
	if _, err := svc.DailyBreakdown(ctx, 2024, 0); err == nil {
		t.Error("DailyBreakdown() should reject month 0")
	}
	if _, err := svc.CalendarGrid(ctx, 12024, 5); err == nil {
		t.Error("CalendarGrid() should reject year 12024")
	}
}

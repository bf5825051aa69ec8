package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCategories() []Category {
	return []Category{
		{ID: 1, Name: "food", Color: "#ff4444", IsDefault: true},
		{ID: 2, Name: "entertainment", Color: "#44ff44", IsDefault: true},
		{ID: 3, Name: "transport", Color: "#ffff44", IsDefault: true},
	}
}

func TestComputeMonthlyStatsExample(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("25.50"), Description: "lunch", CategoryID: 1, CategoryName: "food", Date: NewDate(2024, 3, 5)},
		{ID: 2, Amount: amt("45.00"), Description: "cinema", CategoryID: 2, CategoryName: "entertainment", Date: NewDate(2024, 3, 5)},
	}
	// A "now" outside March 2024, so the divisor is the full month length.
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	stats := ComputeMonthlyStats(expenses, testCategories(), 2024, 3, now)

	if !stats.TotalSpent.Equal(amt("70.50")) {
		t.Fatalf("total spent = %s, want 70.50", stats.TotalSpent)
	}
	if len(stats.ExpensesByCategory) != 2 {
		t.Fatalf("expected 2 category stats, got %d", len(stats.ExpensesByCategory))
	}

	top := stats.ExpensesByCategory[0]
	if top.CategoryName != "entertainment" || !top.TotalAmount.Equal(amt("45.00")) {
		t.Fatalf("top category = %s (%s), want entertainment (45.00)", top.CategoryName, top.TotalAmount)
	}
	if !top.Percentage.Equal(amt("63.83")) {
		t.Fatalf("entertainment percentage = %s, want 63.83", top.Percentage)
	}

	second := stats.ExpensesByCategory[1]
	if second.CategoryName != "food" || !second.Percentage.Equal(amt("36.17")) {
		t.Fatalf("food stat = %s %s, want food 36.17", second.CategoryName, second.Percentage)
	}

	if stats.TopCategory == nil || stats.TopCategory.CategoryID != 2 {
		t.Fatalf("TopCategory = %+v, want category 2", stats.TopCategory)
	}

	// March has 31 days: 70.50 / 31 = 2.27 rounded.
	if !stats.DailyAverage.Equal(amt("2.27")) {
		t.Fatalf("daily average = %s, want 2.27", stats.DailyAverage)
	}
}

func TestComputeMonthlyStatsInvariants(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("10.00"), CategoryID: 1, Date: NewDate(2024, 3, 1)},
		{ID: 2, Amount: amt("20.01"), CategoryID: 2, Date: NewDate(2024, 3, 2)},
		{ID: 3, Amount: amt("0.99"), CategoryID: 3, Date: NewDate(2024, 3, 3)},
		{ID: 4, Amount: amt("5.00"), CategoryID: 1, Date: NewDate(2024, 3, 20)},
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := ComputeMonthlyStats(expenses, testCategories(), 2024, 3, now)

	sum := decimal.Zero
	pct := decimal.Zero
	for _, cs := range stats.ExpensesByCategory {
		sum = sum.Add(cs.TotalAmount)
		pct = pct.Add(cs.Percentage)
	}
	if !sum.Equal(stats.TotalSpent) {
		t.Fatalf("category totals %s != total spent %s", sum, stats.TotalSpent)
	}
	// Percentages are rounded to 2 places, allow a small tolerance around 100.
	if pct.Sub(amt("100")).Abs().GreaterThan(amt("0.05")) {
		t.Fatalf("percentages sum to %s, want ~100", pct)
	}
}

func TestComputeMonthlyStatsEmpty(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	stats := ComputeMonthlyStats(nil, testCategories(), 2024, 3, now)

	if !stats.TotalSpent.IsZero() {
		t.Fatalf("total spent = %s, want 0", stats.TotalSpent)
	}
	if !stats.DailyAverage.IsZero() {
		t.Fatalf("daily average = %s, want 0", stats.DailyAverage)
	}
	if len(stats.ExpensesByCategory) != 0 {
		t.Fatalf("expected no category stats, got %d", len(stats.ExpensesByCategory))
	}
	if stats.TopCategory != nil {
		t.Fatalf("expected no top category, got %+v", stats.TopCategory)
	}
}

func TestComputeMonthlyStatsCurrentMonthDivisor(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("100.00"), CategoryID: 1, Date: NewDate(2024, 3, 2)},
	}
	// Mid-month "now": divide by days elapsed (10), not days in month (31).
	now := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	stats := ComputeMonthlyStats(expenses, testCategories(), 2024, 3, now)
	if !stats.DailyAverage.Equal(amt("10.00")) {
		t.Fatalf("daily average = %s, want 10.00", stats.DailyAverage)
	}
}

func TestComputeMonthlyStatsTieBreakByID(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("50.00"), CategoryID: 3, Date: NewDate(2024, 3, 1)},
		{ID: 2, Amount: amt("50.00"), CategoryID: 1, Date: NewDate(2024, 3, 2)},
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := ComputeMonthlyStats(expenses, testCategories(), 2024, 3, now)

	if stats.ExpensesByCategory[0].CategoryID != 1 {
		t.Fatalf("tie should break by ascending id, got %d first", stats.ExpensesByCategory[0].CategoryID)
	}
	if stats.TopCategory.CategoryID != 1 {
		t.Fatalf("top category id = %d, want 1", stats.TopCategory.CategoryID)
	}
}

func TestComputeMonthlyStatsUnknownCategory(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("9.99"), CategoryID: 42, CategoryName: "mystery", Date: NewDate(2024, 3, 1)},
		{ID: 2, Amount: amt("1.01"), CategoryID: 99, Date: NewDate(2024, 3, 1)},
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := ComputeMonthlyStats(expenses, testCategories(), 2024, 3, now)

	if !stats.TotalSpent.Equal(amt("11.00")) {
		t.Fatalf("total spent = %s, want 11.00", stats.TotalSpent)
	}
	// Unresolvable ids fall back to the denormalized name, blank when absent.
	if stats.ExpensesByCategory[0].CategoryName != "mystery" {
		t.Fatalf("expected denormalized name, got %q", stats.ExpensesByCategory[0].CategoryName)
	}
	if stats.ExpensesByCategory[1].CategoryName != "" {
		t.Fatalf("expected blank name for unknown category, got %q", stats.ExpensesByCategory[1].CategoryName)
	}
}

func TestComputeDailyBreakdown(t *testing.T) {
	expenses := []Expense{
		{ID: 1, Amount: amt("3.00"), CategoryID: 1, Date: NewDate(2024, 3, 10)},
		{ID: 2, Amount: amt("7.00"), CategoryID: 2, Date: NewDate(2024, 3, 2)},
		{ID: 3, Amount: amt("5.00"), CategoryID: 1, Date: NewDate(2024, 3, 10)},
	}
	days := ComputeDailyBreakdown(expenses)

	if len(days) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(days))
	}
	if days[0].Date.Day() != 2 || days[1].Date.Day() != 10 {
		t.Fatalf("groups not in ascending date order: %v, %v", days[0].Date, days[1].Date)
	}
	if !days[1].TotalAmount.Equal(amt("8.00")) {
		t.Fatalf("day total = %s, want 8.00", days[1].TotalAmount)
	}
	if len(days[1].Expenses) != 2 {
		t.Fatalf("expected 2 expenses on day 10, got %d", len(days[1].Expenses))
	}
}

func TestComputeDailyBreakdownEmpty(t *testing.T) {
	if days := ComputeDailyBreakdown(nil); len(days) != 0 {
		t.Fatalf("expected empty breakdown, got %d groups", len(days))
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 2, 29}, // leap
		{2023, 2, 28},
		{2024, 3, 31},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

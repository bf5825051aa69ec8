package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryStat is a derived per-category aggregate for one period.
type CategoryStat struct {
	CategoryID    int64           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryColor string          `json:"categoryColor"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Percentage    decimal.Decimal `json:"percentage"`
	Count         int             `json:"transactionCount"`
}

// MonthlyStats summarizes one month of spending.
type MonthlyStats struct {
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	DailyAverage       decimal.Decimal `json:"dailyAverage"`
	ExpensesByCategory []CategoryStat  `json:"expensesByCategory"`
	TopCategory        *CategoryStat   `json:"topCategory,omitempty"`
}

// DailyExpenses groups one day's expenses with their sum.
type DailyExpenses struct {
	Date        Date            `json:"date"`
	Expenses    []Expense       `json:"expenses"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeMonthlyStats aggregates the expenses of a single month.
//
// The caller supplies expenses already filtered to the target month plus the
// category registry for name/color resolution. Expenses whose category is
// absent from the registry fall back to their denormalized fields and render
// blank when those are empty too; partial data never fails the aggregation.
//
// The daily average divides by the days elapsed so far when (year, month) is
// now's month, and by the full day count otherwise. now is an explicit
// argument so the function stays a pure transformation of its inputs.
//
// The category list is ordered by descending total, ties by ascending
// category id. TopCategory is the first entry, nil when there are no
// expenses. Empty input yields a zero-valued result, not an error.
func ComputeMonthlyStats(expenses []Expense, categories []Category, year, month int, now time.Time) MonthlyStats {
	stats := MonthlyStats{
		Year:         year,
		Month:        month,
		TotalSpent:   decimal.Zero,
		DailyAverage: decimal.Zero,
	}

	registry := make(map[int64]Category, len(categories))
	for _, c := range categories {
		registry[c.ID] = c
	}

	totals := make(map[int64]*CategoryStat)
	for _, e := range expenses {
		stats.TotalSpent = stats.TotalSpent.Add(e.Amount)

		cs, ok := totals[e.CategoryID]
		if !ok {
			cs = &CategoryStat{
				CategoryID:  e.CategoryID,
				TotalAmount: decimal.Zero,
			}
			if c, known := registry[e.CategoryID]; known {
				cs.CategoryName = c.Name
				cs.CategoryColor = c.Color
			} else {
				cs.CategoryName = e.CategoryName
				cs.CategoryColor = e.CategoryColor
			}
			totals[e.CategoryID] = cs
		}
		cs.TotalAmount = cs.TotalAmount.Add(e.Amount)
		cs.Count++
	}

	stats.DailyAverage = dailyAverage(stats.TotalSpent, year, month, now)

	stats.ExpensesByCategory = make([]CategoryStat, 0, len(totals))
	for _, cs := range totals {
		if stats.TotalSpent.IsPositive() {
			cs.Percentage = cs.TotalAmount.Div(stats.TotalSpent).Mul(oneHundred).Round(2)
		} else {
			cs.Percentage = decimal.Zero
		}
		stats.ExpensesByCategory = append(stats.ExpensesByCategory, *cs)
	}
	sort.Slice(stats.ExpensesByCategory, func(i, j int) bool {
		a, b := stats.ExpensesByCategory[i], stats.ExpensesByCategory[j]
		if !a.TotalAmount.Equal(b.TotalAmount) {
			return a.TotalAmount.GreaterThan(b.TotalAmount)
		}
		return a.CategoryID < b.CategoryID
	})

	if len(stats.ExpensesByCategory) > 0 {
		top := stats.ExpensesByCategory[0]
		stats.TopCategory = &top
	}

	return stats
}

// dailyAverage divides total by the days elapsed in the current month, or by
// the month's full day count for past and future months.
func dailyAverage(total decimal.Decimal, year, month int, now time.Time) decimal.Decimal {
	days := DaysInMonth(year, month)
	if year == now.Year() && month == int(now.Month()) {
		days = now.Day()
	}
	if days < 1 || total.IsZero() {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days))).Round(2)
}

// DaysInMonth returns the day count of the given month, honoring leap years.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ComputeDailyBreakdown groups a multi-day expense collection by calendar
// date. Groups are ordered by ascending date; each carries the day's expenses
// and their sum.
func ComputeDailyBreakdown(expenses []Expense) []DailyExpenses {
	byDay := make(map[string]*DailyExpenses)
	for _, e := range expenses {
		key := e.Date.Key()
		day, ok := byDay[key]
		if !ok {
			day = &DailyExpenses{Date: e.Date, TotalAmount: decimal.Zero}
			byDay[key] = day
		}
		day.Expenses = append(day.Expenses, e)
		day.TotalAmount = day.TotalAmount.Add(e.Amount)
	}

	out := make([]DailyExpenses, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

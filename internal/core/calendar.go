package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GridCells is the fixed size of the calendar grid: six full weeks, so the
// layout never reflows between months.
const GridCells = 42

// DayCategoryTotal is one category's subtotal within a single day cell.
// Totals are keyed by category id, never by name; the first-seen display
// name and color for an id win.
type DayCategoryTotal struct {
	CategoryID    int64           `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryColor string          `json:"categoryColor"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// DayCell is one entry of the 42-slot calendar grid.
type DayCell struct {
	Date        Date               `json:"date"`
	OtherMonth  bool               `json:"isOtherMonth"`
	Expenses    []Expense          `json:"expenses"`
	ByCategory  []DayCategoryTotal `json:"byCategory"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
}

// ProjectMonth maps a reference month onto a 42-cell grid.
//
// Weeks start on Monday: the raw weekday (Sunday=0..Saturday=6) of the 1st is
// remapped via (weekday+6)%7, giving the number of leading cells borrowed
// from the previous month. Trailing cells from the following month pad the
// grid to exactly 42 entries. Leading and trailing cells carry
// OtherMonth=true.
//
// Each cell collects the input expenses falling on its calendar day, compared
// at day granularity. The projection is a pure function: calling it twice
// with the same inputs yields the same grid.
func ProjectMonth(year, month int, expenses []Expense) []DayCell {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) + 6) % 7
	start := DateOf(first).AddDays(-lead)

	byDay := make(map[string][]Expense)
	for _, e := range expenses {
		key := e.Date.Key()
		byDay[key] = append(byDay[key], e)
	}

	cells := make([]DayCell, GridCells)
	for i := range cells {
		date := start.AddDays(i)
		dayExpenses := byDay[date.Key()]

		cell := DayCell{
			Date:        date,
			OtherMonth:  date.Year() != year || date.Month() != month,
			Expenses:    dayExpenses,
			TotalAmount: decimal.Zero,
		}
		for _, e := range dayExpenses {
			cell.TotalAmount = cell.TotalAmount.Add(e.Amount)
		}
		cell.ByCategory = dayCategoryTotals(dayExpenses)
		cells[i] = cell
	}
	return cells
}

// dayCategoryTotals groups one day's expenses by category id. The result is
// ordered by ascending id for stable output.
func dayCategoryTotals(expenses []Expense) []DayCategoryTotal {
	if len(expenses) == 0 {
		return nil
	}
	totals := make(map[int64]*DayCategoryTotal)
	for _, e := range expenses {
		ct, ok := totals[e.CategoryID]
		if !ok {
			ct = &DayCategoryTotal{
				CategoryID:    e.CategoryID,
				CategoryName:  e.CategoryName,
				CategoryColor: e.CategoryColor,
				TotalAmount:   decimal.Zero,
			}
			totals[e.CategoryID] = ct
		}
		ct.TotalAmount = ct.TotalAmount.Add(e.Amount)
	}

	out := make([]DayCategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

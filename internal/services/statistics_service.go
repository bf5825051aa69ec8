package services

import (
	"context"
	"fmt"
	"time"

	"nomoney/internal/core"
	"nomoney/internal/storage"
)

// StatisticsService fetches a month of expenses and hands it to the pure
// aggregation and calendar code. The clock is injectable so the day-elapsed
// divisor of the current month is testable.
type StatisticsService struct {
	storage *storage.Repository
	now     func() time.Time
}

func NewStatisticsService(storage *storage.Repository) *StatisticsService {
	return &StatisticsService{
		storage: storage,
		now:     time.Now,
	}
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month: %d", month)
	}
	if year < 1970 || year > 9999 {
		return fmt.Errorf("invalid year: %d", year)
	}
	return nil
}

// MonthlyStats returns the aggregate view of one month.
func (s *StatisticsService) MonthlyStats(ctx context.Context, year, month int) (core.MonthlyStats, error) {
	if err := validateMonth(year, month); err != nil {
		return core.MonthlyStats{}, err
	}
	expenses, err := s.storage.ListExpensesByMonth(ctx, year, month)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	categories, err := s.storage.ListCategories(ctx)
	if err != nil {
		return core.MonthlyStats{}, err
	}
	return core.ComputeMonthlyStats(expenses, categories, year, month, s.now()), nil
}

// DailyBreakdown returns one month's expenses grouped per day, ascending.
func (s *StatisticsService) DailyBreakdown(ctx context.Context, year, month int) ([]core.DailyExpenses, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	expenses, err := s.storage.ListExpensesByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return core.ComputeDailyBreakdown(expenses), nil
}

// CalendarGrid returns the 42-cell month grid with the month's expenses
// assigned to their days. Leading and trailing cells from adjacent months
// stay empty.
func (s *StatisticsService) CalendarGrid(ctx context.Context, year, month int) ([]core.DayCell, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	expenses, err := s.storage.ListExpensesByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return core.ProjectMonth(year, month, expenses), nil
}

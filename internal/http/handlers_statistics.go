package http

import (
	"net/http"
	"strconv"

	"nomoney/internal/core"
)

func pathYearMonth(r *http.Request) (year, month int, ok bool) {
	year, errY := strconv.Atoi(r.PathValue("year"))
	month, errM := strconv.Atoi(r.PathValue("month"))
	if errY != nil || errM != nil || month < 1 || month > 12 || year < 1970 || year > 9999 {
		return 0, 0, false
	}
	return year, month, true
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathYearMonth(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := monthKey(year, month)
	if stats, found := s.statsCache.Get(key); found {
		respondJSON(w, http.StatusOK, stats)
		return
	}

	stats, err := s.stats.MonthlyStats(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.statsCache.Set(key, stats)
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDailyBreakdown(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathYearMonth(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := monthKey(year, month)
	if days, found := s.dailyCache.Get(key); found {
		respondJSON(w, http.StatusOK, days)
		return
	}

	days, err := s.stats.DailyBreakdown(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if days == nil {
		days = []core.DailyExpenses{}
	}
	s.dailyCache.Set(key, days)
	respondJSON(w, http.StatusOK, days)
}

func (s *Server) handleCalendarGrid(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathYearMonth(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	key := monthKey(year, month)
	if cells, found := s.calendarCache.Get(key); found {
		respondJSON(w, http.StatusOK, cells)
		return
	}

	cells, err := s.stats.CalendarGrid(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.calendarCache.Set(key, cells)
	respondJSON(w, http.StatusOK, cells)
}

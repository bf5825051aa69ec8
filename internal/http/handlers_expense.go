package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"nomoney/internal/core"
)

// expenseRequest is the mutation payload. Amount accepts both JSON numbers
// and strings; dates accept "2006-01-02" and RFC 3339.
type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"categoryId"`
	Date        core.Date       `json:"date"`
}

func (req expenseRequest) toExpense(id int64) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	expense, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleListExpensesByDate(w http.ResponseWriter, r *http.Request) {
	var date core.Date
	if err := date.UnmarshalJSON([]byte(`"` + r.PathValue("date") + `"`)); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	expenses, err := s.expenses.ListExpensesByDate(r.Context(), date)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), req.toExpense(0))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateMonth(created.Date)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The previous date's month needs invalidation too when the expense
	// moves between months.
	previous, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), req.toExpense(id))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateMonth(previous.Date)
	s.invalidateMonth(updated.Date)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	existing, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateMonth(existing.Date)
	respondJSON(w, http.StatusNoContent, nil)
}

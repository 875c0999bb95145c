package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type createExpenseRequest struct {
	UserID    uuid.UUID  `json:"user_id"`
	Category  string     `json:"category"`
	Amount    string     `json:"amount"`
	Note      string     `json:"note"`
	CreatedAt *time.Time `json:"created_at"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := parseMonthParams(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	expenses, err := s.store.ListExpensesByMonth(r.Context(), params.Year, params.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		unprocessable(w, "invalid amount")
		return
	}

	// Unknown category names are created on the fly.
	category, err := s.categories.Resolve(r.Context(), sanitizeText(req.Category))
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense := core.Expense{
		UserID:     req.UserID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: cents},
		Note:       sanitizeText(req.Note),
	}
	if req.CreatedAt != nil {
		expense.CreatedAt = *req.CreatedAt
	}

	saved, err := s.entries.CreateExpense(r.Context(), expense)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(saved.CreatedAt.Year(), saved.CreatedAt.Month())
	writeJSON(w, http.StatusCreated, toExpenseJSON(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.entries.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(expense.CreatedAt.Year(), expense.CreatedAt.Month())
	w.WriteHeader(http.StatusNoContent)
}

type createIncomeRequest struct {
	UserID    uuid.UUID  `json:"user_id"`
	Amount    string     `json:"amount"`
	Cadence   string     `json:"cadence"`
	Note      string     `json:"note"`
	CreatedAt *time.Time `json:"created_at"`
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	params, err := parseMonthParams(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	entries, err := s.store.ListIncomeByMonth(r.Context(), params.Year, params.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]incomeJSON, 0, len(entries))
	for _, i := range entries {
		out = append(out, toIncomeJSON(i))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		unprocessable(w, "invalid amount")
		return
	}
	cadence, err := services.ParseIncomeCadence(req.Cadence)
	if err != nil {
		unprocessable(w, err.Error())
		return
	}

	income := core.Income{
		UserID: req.UserID,
		Amount: core.Money{Cents: cents},
		Note:   sanitizeText(req.Note),
	}
	if req.CreatedAt != nil {
		income.CreatedAt = *req.CreatedAt
	}

	saved, err := s.entries.CreateIncome(r.Context(), income, cadence)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// New income changes every later month too through the evergreen
	// fallback, so targeted invalidation is not enough here.
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, toIncomeJSON(saved))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.entries.DeleteIncome(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

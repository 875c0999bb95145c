package http

import (
	"net/http"

	"bilancio/internal/core"
)

type categoryRequest struct {
	Name          string  `json:"name"`
	Color         string  `json:"color"`
	MonthlyBudget *string `json:"monthly_budget"`
	// BudgetPeriod lets a client editing the budget while viewing a daily,
	// weekly or yearly summary send the figure in that period; it is
	// converted back to the monthly amount before storage.
	BudgetPeriod   *string `json:"budget_period,omitempty"`
	RecurringOnly  bool    `json:"recurring_only"`
	LargeOnly      bool    `json:"large_only"`
	LinkedToNormal bool    `json:"linked_to_normal"`
}

func (req categoryRequest) toCategory() (core.Category, error) {
	c := core.Category{
		Name:           sanitizeText(req.Name),
		Color:          sanitizeText(req.Color),
		RecurringOnly:  req.RecurringOnly,
		LargeOnly:      req.LargeOnly,
		LinkedToNormal: req.LinkedToNormal,
	}
	if req.MonthlyBudget != nil {
		cents, err := core.ParseDecimalToCents(*req.MonthlyBudget)
		if err != nil {
			return core.Category{}, err
		}
		amount := core.Money{Cents: cents}.Decimal()
		if req.BudgetPeriod != nil {
			period, err := core.ParsePeriod(*req.BudgetPeriod)
			if err != nil {
				return core.Category{}, err
			}
			amount = period.ToMonthly(amount)
		}
		budget := core.MoneyFromDecimal(amount)
		c.MonthlyBudget = &budget
	}
	return c, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	category, err := req.toCategory()
	if err != nil {
		unprocessable(w, err.Error())
		return
	}

	saved, err := s.categories.Create(r.Context(), category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, toCategoryJSON(saved))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	category, err := req.toCategory()
	if err != nil {
		unprocessable(w, err.Error())
		return
	}
	category.ID = id

	if err := s.categories.Update(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, toCategoryJSON(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

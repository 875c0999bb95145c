package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type recurringRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Category   string    `json:"category"`
	Amount     string    `json:"amount"`
	DayOfMonth int       `json:"day_of_month"`
	Note       string    `json:"note"`
	IsActive   *bool     `json:"is_active"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	definitions, err := s.recurring.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]recurringJSON, 0, len(definitions))
	for _, re := range definitions {
		out = append(out, toRecurringJSON(re))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	definition, err := s.recurringFromRequest(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.recurring.Create(r.Context(), definition)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, toRecurringJSON(saved))
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	definition, err := s.recurring.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringJSON(definition))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	definition, err := s.recurringFromRequest(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	definition.ID = id
	if req.IsActive != nil {
		definition.IsActive = *req.IsActive
	} else {
		definition.IsActive = true
	}

	if err := s.recurring.Update(r.Context(), definition); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.recurring.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, toRecurringJSON(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	// Deleting a definition also removes its materialized installments.
	if err := s.recurring.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recurringFromRequest(r *http.Request, req recurringRequest) (core.RecurringExpense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringExpense{}, core.ErrInvalidAmount
	}
	category, err := s.categories.Resolve(r.Context(), sanitizeText(req.Category))
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{
		UserID:     req.UserID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: cents},
		DayOfMonth: req.DayOfMonth,
		Note:       sanitizeText(req.Note),
	}, nil
}

type largeRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Category    string    `json:"category"`
	TotalAmount string    `json:"total_amount"`
	DayOfMonth  int       `json:"day_of_month"`
	Note        string    `json:"note"`
	IsActive    *bool     `json:"is_active"`
}

func (s *Server) handleListLarge(w http.ResponseWriter, r *http.Request) {
	definitions, err := s.large.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]largeJSON, 0, len(definitions))
	for _, le := range definitions {
		out = append(out, toLargeJSON(le))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLarge(w http.ResponseWriter, r *http.Request) {
	var req largeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	definition, err := s.largeFromRequest(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.large.Create(r.Context(), definition)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, toLargeJSON(saved))
}

func (s *Server) handleGetLarge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	definition, err := s.large.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLargeJSON(definition))
}

func (s *Server) handleUpdateLarge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var req largeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	definition, err := s.largeFromRequest(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	definition.ID = id
	if req.IsActive != nil {
		definition.IsActive = *req.IsActive
	} else {
		definition.IsActive = true
	}

	if err := s.large.Update(r.Context(), definition); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.large.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, toLargeJSON(updated))
}

func (s *Server) handleDeleteLarge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.large.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) largeFromRequest(r *http.Request, req largeRequest) (core.LargeExpense, error) {
	cents, err := core.ParseDecimalToCents(req.TotalAmount)
	if err != nil {
		return core.LargeExpense{}, core.ErrInvalidAmount
	}
	category, err := s.categories.Resolve(r.Context(), sanitizeText(req.Category))
	if err != nil {
		return core.LargeExpense{}, err
	}
	return core.LargeExpense{
		UserID:      req.UserID,
		CategoryID:  category.ID,
		TotalAmount: core.Money{Cents: cents},
		DayOfMonth:  req.DayOfMonth,
		Note:        sanitizeText(req.Note),
	}, nil
}

// handleMaterialize runs both materializers on demand. The recurring worker
// does the same thing on a schedule.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	recurringCount, err := s.recurring.Materialize(r.Context(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	largeCount, err := s.large.Materialize(r.Context(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(now.Year(), now.Month())
	writeJSON(w, http.StatusOK, map[string]int{
		"recurring_installments": recurringCount,
		"large_installments":     largeCount,
	})
}

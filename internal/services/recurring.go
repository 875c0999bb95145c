package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/records"
)

// RecurringService manages recurring expense definitions and materializes
// their monthly installments.
type RecurringService struct {
	store   records.Store
	entries *EntryService
}

func NewRecurringService(store records.Store, entries *EntryService) *RecurringService {
	return &RecurringService{
		store:   store,
		entries: entries,
	}
}

func (s *RecurringService) Create(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	re.IsActive = true
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	return s.store.CreateRecurring(ctx, re)
}

func (s *RecurringService) Get(ctx context.Context, id uuid.UUID) (core.RecurringExpense, error) {
	return s.store.GetRecurring(ctx, id)
}

func (s *RecurringService) List(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.store.ListRecurring(ctx)
}

// Update saves the definition. Deactivating it also removes the installments
// it generated, so a paused subscription disappears from past summaries the
// same way a deleted one does.
func (s *RecurringService) Update(ctx context.Context, re core.RecurringExpense) error {
	current, err := s.store.GetRecurring(ctx, re.ID)
	if err != nil {
		return err
	}
	if err := re.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateRecurring(ctx, re); err != nil {
		return err
	}

	if current.IsActive && !re.IsActive {
		if err := s.store.DeleteBySourceDefinition(ctx, re.ID); err != nil {
			return fmt.Errorf("remove installments: %w", err)
		}
		slog.InfoContext(ctx, "Recurring expense deactivated, installments removed",
			"recurring_id", re.ID)
	}
	return nil
}

// Delete removes the definition together with every installment it generated.
func (s *RecurringService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBySourceDefinition(ctx, id); err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return s.store.DeleteRecurring(ctx, id)
}

// Materialize creates installments for every active definition that is due at
// now. A failing definition is logged and skipped so one bad row cannot stall
// the rest. Returns the number of installments created.
func (s *RecurringService) Materialize(ctx context.Context, now time.Time) (int, error) {
	defs, err := s.store.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring expenses: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"total_active", len(defs),
		"processing_date", now.Format("2006-01-02"))

	created := 0

	for _, re := range defs {
		if !InstallmentDue(re.LastGeneratedAt, now, re.DayOfMonth) {
			continue
		}

		// Second guard against double generation: the definition may have
		// been processed by another worker since we listed it.
		exists, err := s.store.HasInstallmentForMonth(ctx, re.ID, now.Year(), now.Month())
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check existing installment",
				"recurring_id", re.ID,
				"error", err)
			continue
		}
		if exists {
			continue
		}

		defID := re.ID
		_, err = s.entries.CreateExpense(ctx, core.Expense{
			UserID:             re.UserID,
			CategoryID:         re.CategoryID,
			Amount:             re.Amount,
			Note:               core.RecurringNote(re.Note),
			SourceDefinitionID: &defID,
			CreatedAt:          InstallmentDate(now, re.DayOfMonth),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create installment from recurring definition",
				"recurring_id", re.ID,
				"error", err)
			continue
		}

		if err := s.store.MarkRecurringGenerated(ctx, re.ID, now); err != nil {
			// Installment exists; the month guard covers the next run
			slog.ErrorContext(ctx, "Failed to update last generation date",
				"recurring_id", re.ID,
				"error", err)
		}

		created++
		slog.InfoContext(ctx, "Created installment from recurring definition",
			"recurring_id", re.ID,
			"amount_cents", re.Amount.Cents,
			"day_of_month", re.DayOfMonth)
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"created", created,
		"total_checked", len(defs))

	return created, nil
}

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

// LargeService manages large expense definitions: one-off purchases amortized
// over twelve monthly installments.
type LargeService struct {
	store   records.Store
	entries *EntryService
}

func NewLargeService(store records.Store, entries *EntryService) *LargeService {
	return &LargeService{
		store:   store,
		entries: entries,
	}
}

// Create derives the monthly installment from the total and activates the
// definition. The installment is rounded up to a whole currency unit.
func (s *LargeService) Create(ctx context.Context, le core.LargeExpense) (core.LargeExpense, error) {
	le.MonthlyAmount = core.LargeMonthlyAmount(le.TotalAmount)
	le.IsActive = true
	if err := le.Validate(); err != nil {
		return core.LargeExpense{}, err
	}
	return s.store.CreateLarge(ctx, le)
}

func (s *LargeService) Get(ctx context.Context, id uuid.UUID) (core.LargeExpense, error) {
	return s.store.GetLarge(ctx, id)
}

func (s *LargeService) List(ctx context.Context) ([]core.LargeExpense, error) {
	return s.store.ListLarge(ctx)
}

// Update recomputes the monthly installment when the total changed. A changed
// total also drops the installments generated so far; the next materialization
// pass regenerates them at the new amount instead of correcting rows in place.
func (s *LargeService) Update(ctx context.Context, le core.LargeExpense) error {
	current, err := s.store.GetLarge(ctx, le.ID)
	if err != nil {
		return err
	}

	le.MonthlyAmount = core.LargeMonthlyAmount(le.TotalAmount)
	if err := le.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateLarge(ctx, le); err != nil {
		return err
	}

	switch {
	case current.TotalAmount.Cents != le.TotalAmount.Cents:
		if err := s.store.DeleteBySourceDefinition(ctx, le.ID); err != nil {
			return fmt.Errorf("reset installments: %w", err)
		}
		slog.InfoContext(ctx, "Large expense total changed, installments reset",
			"large_id", le.ID,
			"total_cents", le.TotalAmount.Cents,
			"monthly_cents", le.MonthlyAmount.Cents)
	case current.IsActive && !le.IsActive:
		if err := s.store.DeleteBySourceDefinition(ctx, le.ID); err != nil {
			return fmt.Errorf("remove installments: %w", err)
		}
		slog.InfoContext(ctx, "Large expense deactivated, installments removed",
			"large_id", le.ID)
	}
	return nil
}

// Delete removes the definition together with every installment it generated.
func (s *LargeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBySourceDefinition(ctx, id); err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return s.store.DeleteLarge(ctx, id)
}

// Materialize creates installments for every active definition that is due at
// now, and deactivates definitions that have completed their schedule.
// Returns the number of installments created.
func (s *LargeService) Materialize(ctx context.Context, now time.Time) (int, error) {
	defs, err := s.store.ListActiveLarge(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active large expenses: %w", err)
	}

	slog.InfoContext(ctx, "Processing large expenses",
		"total_active", len(defs),
		"processing_date", now.Format("2006-01-02"))

	created := 0

	for _, le := range defs {
		count, err := s.store.CountInstallments(ctx, le.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to count installments",
				"large_id", le.ID,
				"error", err)
			continue
		}
		if count >= core.AmortizationMonths {
			if err := s.store.DeactivateLarge(ctx, le.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate completed large expense",
					"large_id", le.ID,
					"error", err)
			} else {
				slog.InfoContext(ctx, "Large expense schedule complete", "large_id", le.ID)
			}
			continue
		}

		if target := core.ClampDayOfMonth(now.Year(), now.Month(), le.DayOfMonth); now.Day() < target {
			continue
		}

		exists, err := s.store.HasInstallmentForMonth(ctx, le.ID, now.Year(), now.Month())
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check existing installment",
				"large_id", le.ID,
				"error", err)
			continue
		}
		if exists {
			continue
		}

		defID := le.ID
		_, err = s.entries.CreateExpense(ctx, core.Expense{
			UserID:             le.UserID,
			CategoryID:         le.CategoryID,
			Amount:             le.MonthlyAmount,
			Note:               core.LargeNote(le.Note),
			SourceDefinitionID: &defID,
			CreatedAt:          InstallmentDate(now, le.DayOfMonth),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create installment from large definition",
				"large_id", le.ID,
				"error", err)
			continue
		}

		created++
		slog.InfoContext(ctx, "Created installment from large definition",
			"large_id", le.ID,
			"amount_cents", le.MonthlyAmount.Cents,
			"installment", count+1)

		if count+1 >= core.AmortizationMonths {
			if err := s.store.DeactivateLarge(ctx, le.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate completed large expense",
					"large_id", le.ID,
					"error", err)
			}
		}
	}

	slog.InfoContext(ctx, "Large expense processing complete",
		"created", created,
		"total_checked", len(defs))

	return created, nil
}

// ExpireOld deactivates definitions created more than a year ago and removes
// their installments. The amortization window is over for those; whatever is
// left of the schedule should not keep generating. Returns the number of
// definitions expired.
func (s *LargeService) ExpireOld(ctx context.Context, now time.Time) (int, error) {
	defs, err := s.store.ListActiveLarge(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active large expenses: %w", err)
	}

	cutoff := now.AddDate(0, -core.AmortizationMonths, 0)
	expired := 0
	for _, le := range defs {
		if !le.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.store.DeleteBySourceDefinition(ctx, le.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to purge installments of expired large expense",
				"large_id", le.ID,
				"error", err)
			continue
		}
		if err := s.store.DeactivateLarge(ctx, le.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to deactivate expired large expense",
				"large_id", le.ID,
				"error", err)
			continue
		}
		expired++
		slog.InfoContext(ctx, "Expired large expense",
			"large_id", le.ID,
			"created_at", le.CreatedAt.Format("2006-01-02"))
	}
	return expired, nil
}

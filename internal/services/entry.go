package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/records"
)

// IncomeCadence selects how an income amount is interpreted at write time.
// Bi-weekly amounts are doubled so the stored figure is always monthly.
type IncomeCadence string

const (
	CadenceMonthly  IncomeCadence = "monthly"
	CadenceBiWeekly IncomeCadence = "biweekly"
)

func ParseIncomeCadence(s string) (IncomeCadence, error) {
	switch IncomeCadence(s) {
	case CadenceMonthly, "":
		return CadenceMonthly, nil
	case CadenceBiWeekly:
		return CadenceBiWeekly, nil
	default:
		return "", fmt.Errorf("unknown income cadence: %q", s)
	}
}

// EntryService orchestrates expense and income writes across storage and the
// export queue.
type EntryService struct {
	store      records.Store
	amqpClient *amqp.Client
}

func NewEntryService(store records.Store, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CreateExpense saves an expense locally and publishes an export message.
// The export publish is best-effort; a queue failure never fails the write.
func (s *EntryService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", saved.ID,
		"amount_cents", saved.Amount.Cents,
		"category_id", saved.CategoryID)

	s.publishSync(ctx, saved.ID)
	return saved, nil
}

func (s *EntryService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// CreateIncome normalizes the amount to a monthly figure and saves it. A
// bi-weekly entry is doubled and, when no note was given, annotated with the
// amount as entered so the original figure is not lost.
func (s *EntryService) CreateIncome(ctx context.Context, i core.Income, cadence IncomeCadence) (core.Income, error) {
	if cadence == CadenceBiWeekly {
		if i.Note == "" {
			i.Note = fmt.Sprintf("Bi-weekly: $%s", i.Amount.Decimal().StringFixed(2))
		}
		i.Amount = core.Money{Cents: i.Amount.Cents * 2}
	}
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	saved, err := s.store.CreateIncome(ctx, i)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", saved.ID,
		"amount_cents", saved.Amount.Cents,
		"cadence", cadence)

	return saved, nil
}

func (s *EntryService) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return nil
}

func (s *EntryService) publishSync(ctx context.Context, id uuid.UUID) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishExpenseSync(ctx, id); err != nil {
		// Expense is saved locally; the export can be replayed later
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

// Close releases both storage and queue connections.
func (s *EntryService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}

	return nil
}

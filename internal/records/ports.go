package records

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// Ports for the persistence layer. Implementations live in internal/storage;
// services depend only on these interfaces.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id uuid.UUID) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id uuid.UUID) error
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error)
		// GetCategoryByName matches case-insensitively.
		GetCategoryByName(ctx context.Context, name string) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id uuid.UUID) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
		ListExpensesByMonth(ctx context.Context, year int, month time.Month) ([]core.Expense, error)
		ListExpensesByYear(ctx context.Context, year int) ([]core.Expense, error)
		DeleteExpense(ctx context.Context, id uuid.UUID) error
		// HasInstallmentForMonth reports whether an installment generated from
		// the given definition already exists in the given month.
		HasInstallmentForMonth(ctx context.Context, definitionID uuid.UUID, year int, month time.Month) (bool, error)
		// CountInstallments returns how many installments a definition has
		// generated so far.
		CountInstallments(ctx context.Context, definitionID uuid.UUID) (int, error)
		DeleteBySourceDefinition(ctx context.Context, definitionID uuid.UUID) error
	}

	IncomeStore interface {
		CreateIncome(ctx context.Context, i core.Income) (core.Income, error)
		ListIncomeByMonth(ctx context.Context, year int, month time.Month) ([]core.Income, error)
		// LatestIncomePerUser returns each user's most recent income entry,
		// regardless of month. Used as the evergreen fallback when the viewed
		// month has no entries of its own.
		LatestIncomePerUser(ctx context.Context) ([]core.Income, error)
		DeleteIncome(ctx context.Context, id uuid.UUID) error
	}

	RecurringStore interface {
		CreateRecurring(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error)
		GetRecurring(ctx context.Context, id uuid.UUID) (core.RecurringExpense, error)
		ListRecurring(ctx context.Context) ([]core.RecurringExpense, error)
		ListActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error)
		UpdateRecurring(ctx context.Context, re core.RecurringExpense) error
		MarkRecurringGenerated(ctx context.Context, id uuid.UUID, at time.Time) error
		DeleteRecurring(ctx context.Context, id uuid.UUID) error
	}

	LargeStore interface {
		CreateLarge(ctx context.Context, le core.LargeExpense) (core.LargeExpense, error)
		GetLarge(ctx context.Context, id uuid.UUID) (core.LargeExpense, error)
		ListLarge(ctx context.Context) ([]core.LargeExpense, error)
		ListActiveLarge(ctx context.Context) ([]core.LargeExpense, error)
		UpdateLarge(ctx context.Context, le core.LargeExpense) error
		DeactivateLarge(ctx context.Context, id uuid.UUID) error
		DeleteLarge(ctx context.Context, id uuid.UUID) error
	}
)

// Store is the full persistence surface, implemented by both the SQLite
// repository and the in-memory store used in tests.
type Store interface {
	UserStore
	CategoryStore
	ExpenseStore
	IncomeStore
	RecurringStore
	LargeStore
	Close() error
}

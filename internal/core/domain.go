package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxNoteLength bounds free-text notes on expenses, income and definitions.
	MaxNoteLength = 200

	// AmortizationMonths is the fixed installment count for large expenses.
	AmortizationMonths = 12
)

// Notes tagged onto materialized installment rows. Kept for display
// compatibility with manually entered expenses; the authoritative link to the
// owning definition is Expense.SourceDefinitionID.
const (
	recurringNoteSuffix = " (Auto-generated)"
	largeNoteSuffix     = " (Monthly portion)"

	RecurringInstallmentNote = "Recurring expense" + recurringNoteSuffix
	LargeInstallmentNote     = "Large expense" + largeNoteSuffix
)

// RecurringNote builds the note for a materialized recurring installment:
// the definition's own note plus the suffix, or the bare sentinel when the
// definition has no note.
func RecurringNote(definitionNote string) string {
	return taggedNote(definitionNote, recurringNoteSuffix, RecurringInstallmentNote)
}

// LargeNote builds the note for a materialized large-expense installment.
func LargeNote(definitionNote string) string {
	return taggedNote(definitionNote, largeNoteSuffix, LargeInstallmentNote)
}

func taggedNote(note, suffix, fallback string) string {
	if note == "" {
		return fallback
	}
	// The composed note must still pass validateNote.
	if len(note)+len(suffix) > MaxNoteLength {
		note = note[:MaxNoteLength-len(suffix)]
	}
	return note + suffix
}

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrEmptyName         = errors.New("empty name")
	ErrUnknownPeriod     = errors.New("unknown period")
	ErrNotFound          = errors.New("not found")
	ErrCategoryInUse     = errors.New("category has active definitions")
)

type (
	User struct {
		ID    uuid.UUID
		Name  string
		Color string
	}

	// Category classifies expenses. MonthlyBudget, when set, is always a
	// per-month figure; other periods are derived on read, never stored.
	Category struct {
		ID             uuid.UUID
		Name           string
		Color          string
		MonthlyBudget  *Money
		RecurringOnly  bool
		LargeOnly      bool
		LinkedToNormal bool
	}

	Expense struct {
		ID         uuid.UUID
		UserID     uuid.UUID
		CategoryID uuid.UUID
		Amount     Money
		Note       string
		// SourceDefinitionID is set on materialized installments and points at
		// the recurring or large expense definition that generated the row.
		SourceDefinitionID *uuid.UUID
		CreatedAt          time.Time
	}

	// Income is always stored as a monthly equivalent; bi-weekly entries are
	// doubled at write time.
	Income struct {
		ID        uuid.UUID
		UserID    uuid.UUID
		Amount    Money
		Note      string
		CreatedAt time.Time
	}

	// RecurringExpense materializes one Expense of Amount every month on
	// DayOfMonth while active.
	RecurringExpense struct {
		ID              uuid.UUID
		UserID          uuid.UUID
		CategoryID      uuid.UUID
		Amount          Money
		DayOfMonth      int
		Note            string
		IsActive        bool
		LastGeneratedAt *time.Time
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// LargeExpense amortizes TotalAmount over twelve monthly installments of
	// MonthlyAmount, generated on DayOfMonth.
	LargeExpense struct {
		ID            uuid.UUID
		UserID        uuid.UUID
		CategoryID    uuid.UUID
		TotalAmount   Money
		MonthlyAmount Money
		DayOfMonth    int
		Note          string
		IsActive      bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

func validateNote(note string) error {
	if len(note) > MaxNoteLength {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func validateDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDayOfMonth
	}
	return nil
}

func (u User) Validate() error {
	return validateName(u.Name)
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if c.MonthlyBudget != nil {
		if err := c.MonthlyBudget.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if e.UserID == uuid.Nil {
		return errors.New("missing user")
	}
	if e.CategoryID == uuid.Nil {
		return errors.New("missing category")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return validateNote(e.Note)
}

func (i Income) Validate() error {
	if i.UserID == uuid.Nil {
		return errors.New("missing user")
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return validateNote(i.Note)
}

func (re RecurringExpense) Validate() error {
	if re.UserID == uuid.Nil {
		return errors.New("missing user")
	}
	if re.CategoryID == uuid.Nil {
		return errors.New("missing category")
	}
	if err := re.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDayOfMonth(re.DayOfMonth); err != nil {
		return err
	}
	return validateNote(re.Note)
}

func (le LargeExpense) Validate() error {
	if le.UserID == uuid.Nil {
		return errors.New("missing user")
	}
	if le.CategoryID == uuid.Nil {
		return errors.New("missing category")
	}
	if err := le.TotalAmount.Validate(); err != nil {
		return err
	}
	if err := validateDayOfMonth(le.DayOfMonth); err != nil {
		return err
	}
	return validateNote(le.Note)
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayOfMonth resolves a definition's day-of-month against a concrete
// month, clamping day 31 in a 30-day month (and 29/30/31 in February) to the
// month's last valid day.
func ClampDayOfMonth(year int, month time.Month, day int) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// SameMonth reports whether two instants fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

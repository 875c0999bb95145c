package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func newTestFixture(t *testing.T) (*storage.MemoryStore, *EntryService, core.User, core.Category) {
	t.Helper()
	store := storage.NewMemoryStore()
	entries := NewEntryService(store, nil)

	user, err := store.CreateUser(context.Background(), core.User{Name: "Dana"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	cat, err := store.CreateCategory(context.Background(), core.Category{Name: "Rent"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return store, entries, user, cat
}

func TestRecurringMaterialize(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	def, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 90000},
		DayOfMonth: 15,
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	// Before the target day nothing happens
	created, err := svc.Materialize(ctx, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected 0 installments before target day, got %d", created)
	}

	// On the target day one installment appears
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	created, err = svc.Materialize(ctx, now)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 installment, got %d", created)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.March)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.Amount.Cents != 90000 {
		t.Errorf("amount = %d, want 90000", e.Amount.Cents)
	}
	if e.Note != core.RecurringInstallmentNote {
		t.Errorf("note = %q, want %q", e.Note, core.RecurringInstallmentNote)
	}
	if e.SourceDefinitionID == nil || *e.SourceDefinitionID != def.ID {
		t.Errorf("source definition not linked")
	}
	if e.CreatedAt.Day() != 15 {
		t.Errorf("installment dated day %d, want 15", e.CreatedAt.Day())
	}
}

func TestRecurringMaterializeAtMostOncePerMonth(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	if _, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 5000},
		DayOfMonth: 1,
	}); err != nil {
		t.Fatalf("create definition: %v", err)
	}

	for day := 1; day <= 5; day++ {
		now := time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
		if _, err := svc.Materialize(ctx, now); err != nil {
			t.Fatalf("materialize day %d: %v", day, err)
		}
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.June)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected exactly 1 installment after repeated runs, got %d", len(expenses))
	}

	// A new month generates again
	if _, err := svc.Materialize(ctx, time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("materialize next month: %v", err)
	}
	expenses, err = store.ListExpensesByMonth(ctx, 2024, time.July)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 installment in july, got %d", len(expenses))
	}
}

func TestRecurringMaterializeClampsFebruary(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	if _, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 2500},
		DayOfMonth: 31,
	}); err != nil {
		t.Fatalf("create definition: %v", err)
	}

	created, err := svc.Materialize(ctx, time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected day 31 to clamp to feb 28, created = %d", created)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2023, time.February)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].CreatedAt.Day() != 28 {
		t.Fatalf("expected installment dated feb 28, got %+v", expenses)
	}
}

func TestRecurringDeleteRemovesInstallments(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	def, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 1000},
		DayOfMonth: 1,
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if _, err := svc.Materialize(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	if err := svc.Delete(ctx, def.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.May)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("expected installments removed with definition, got %d", len(expenses))
	}
}

func TestRecurringDeactivateRemovesInstallments(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	def, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 1000},
		DayOfMonth: 1,
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if _, err := svc.Materialize(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	def.IsActive = false
	if err := svc.Update(ctx, def); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.May)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Fatalf("expected installments removed on deactivation, got %d", len(expenses))
	}

	// The definition itself survives and can be reactivated.
	got, err := svc.Get(ctx, def.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Error("definition should be inactive")
	}
}

func TestRecurringMaterializeCarriesDefinitionNote(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewRecurringService(store, entries)

	_, err := svc.Create(ctx, core.RecurringExpense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 1999},
		DayOfMonth: 1,
		Note:       "Netflix",
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	if _, err := svc.Materialize(ctx, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.May)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	if expenses[0].Note != "Netflix (Auto-generated)" {
		t.Errorf("note = %q, want Netflix (Auto-generated)", expenses[0].Note)
	}
}

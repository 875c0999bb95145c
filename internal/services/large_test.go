package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestLargeCreateDerivesMonthlyAmount(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewLargeService(store, entries)

	le, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 160000},
		DayOfMonth:  10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if le.MonthlyAmount.Cents != 13400 {
		t.Fatalf("monthly amount = %d, want 13400", le.MonthlyAmount.Cents)
	}
	if !le.IsActive {
		t.Fatal("expected new definition to be active")
	}
}

func TestLargeMaterializeFullSchedule(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewLargeService(store, entries)

	def, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 120000},
		DayOfMonth:  5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Run past the end of the schedule; only 12 installments may exist
	start := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	for m := 0; m < 15; m++ {
		now := start.AddDate(0, m, 0)
		if _, err := svc.Materialize(ctx, now); err != nil {
			t.Fatalf("materialize month %d: %v", m, err)
		}
	}

	count, err := store.CountInstallments(ctx, def.ID)
	if err != nil {
		t.Fatalf("count installments: %v", err)
	}
	if count != core.AmortizationMonths {
		t.Fatalf("installments = %d, want %d", count, core.AmortizationMonths)
	}

	got, err := store.GetLarge(ctx, def.ID)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected definition deactivated after full schedule")
	}
}

func TestLargeMaterializeAtMostOncePerMonth(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewLargeService(store, entries)

	def, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 60000},
		DayOfMonth:  1,
		Note:        "New laptop",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for day := 1; day <= 4; day++ {
		now := time.Date(2024, 9, day, 0, 0, 0, 0, time.UTC)
		if _, err := svc.Materialize(ctx, now); err != nil {
			t.Fatalf("materialize: %v", err)
		}
	}

	count, err := store.CountInstallments(ctx, def.ID)
	if err != nil {
		t.Fatalf("count installments: %v", err)
	}
	if count != 1 {
		t.Fatalf("installments = %d, want 1", count)
	}

	expenses, err := store.ListExpensesByMonth(ctx, 2024, time.September)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if expenses[0].Note != "New laptop (Monthly portion)" {
		t.Errorf("note = %q, want New laptop (Monthly portion)", expenses[0].Note)
	}
}

func TestLargeUpdateResetsInstallmentsOnTotalChange(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewLargeService(store, entries)

	le, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 120000},
		DayOfMonth:  1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Materialize(ctx, now); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	count, _ := store.CountInstallments(ctx, le.ID)
	if count != 1 {
		t.Fatalf("installments = %d, want 1", count)
	}

	// Changing the total drops what was generated so the next pass starts
	// over at the new monthly amount.
	le.TotalAmount = core.Money{Cents: 240000}
	if err := svc.Update(ctx, le); err != nil {
		t.Fatalf("update: %v", err)
	}
	count, _ = store.CountInstallments(ctx, le.ID)
	if count != 0 {
		t.Fatalf("installments after total change = %d, want 0", count)
	}
	updated, _ := svc.Get(ctx, le.ID)
	if updated.MonthlyAmount.Cents != 20000 {
		t.Errorf("monthly amount = %d, want 20000", updated.MonthlyAmount.Cents)
	}

	// An update that keeps the total leaves installments alone.
	if _, err := svc.Materialize(ctx, now); err != nil {
		t.Fatalf("rematerialize: %v", err)
	}
	updated.Note = "new laptop"
	if err := svc.Update(ctx, updated); err != nil {
		t.Fatalf("note update: %v", err)
	}
	count, _ = store.CountInstallments(ctx, le.ID)
	if count != 1 {
		t.Fatalf("installments after note update = %d, want 1", count)
	}
}

func TestLargeExpireOld(t *testing.T) {
	ctx := context.Background()
	store, entries, user, cat := newTestFixture(t)
	svc := NewLargeService(store, entries)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	stale, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 120000},
		DayOfMonth:  1,
		CreatedAt:   now.AddDate(0, -14, 0),
	})
	if err != nil {
		t.Fatalf("create stale: %v", err)
	}
	fresh, err := svc.Create(ctx, core.LargeExpense{
		UserID:      user.ID,
		CategoryID:  cat.ID,
		TotalAmount: core.Money{Cents: 60000},
		DayOfMonth:  1,
		CreatedAt:   now.AddDate(0, -2, 0),
	})
	if err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	expired, err := svc.ExpireOld(ctx, now)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	got, _ := svc.Get(ctx, stale.ID)
	if got.IsActive {
		t.Error("stale definition should be inactive")
	}
	got, _ = svc.Get(ctx, fresh.ID)
	if !got.IsActive {
		t.Error("fresh definition should stay active")
	}
}

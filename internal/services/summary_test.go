package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestMonthSummaryPeriods(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	cat, _ := store.CreateCategory(ctx, core.Category{
		Name:          "Groceries",
		MonthlyBudget: &core.Money{Cents: 30000},
	})
	store.CreateExpense(ctx, core.Expense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 12000},
		CreatedAt:  time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	})

	tests := []struct {
		period     core.Period
		wantBudget string
		wantSpent  string
	}{
		{core.PeriodMonth, "300", "120"},
		{core.PeriodDay, "10", "4"},
		{core.PeriodWeek, "75", "30"},
		{core.PeriodYear, "3600", "1440"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			sum, err := svc.MonthSummary(ctx, 2024, time.May, tt.period)
			if err != nil {
				t.Fatalf("summary: %v", err)
			}
			if len(sum.Categories) != 1 {
				t.Fatalf("expected 1 category, got %d", len(sum.Categories))
			}
			c := sum.Categories[0]
			if c.Budget == nil || !c.Budget.Equal(mustDecimal(t, tt.wantBudget)) {
				t.Errorf("budget = %v, want %s", c.Budget, tt.wantBudget)
			}
			if !c.Spent.Equal(mustDecimal(t, tt.wantSpent)) {
				t.Errorf("spent = %s, want %s", c.Spent, tt.wantSpent)
			}
			// Percentage left is period-independent
			if c.PercentageLeft == nil || !c.PercentageLeft.Equal(mustDecimal(t, "60")) {
				t.Errorf("percentage left = %v, want 60", c.PercentageLeft)
			}
		})
	}
}

func TestMonthSummaryBudgetlessCategory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	cat, _ := store.CreateCategory(ctx, core.Category{Name: "Misc"})
	store.CreateExpense(ctx, core.Expense{
		UserID:     user.ID,
		CategoryID: cat.ID,
		Amount:     core.Money{Cents: 500},
		CreatedAt:  time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})

	sum, err := svc.MonthSummary(ctx, 2024, time.May, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	c := sum.Categories[0]
	if c.Budget != nil {
		t.Errorf("budget should stay absent, got %v", c.Budget)
	}
	if c.Remaining != nil || c.PercentageLeft != nil {
		t.Errorf("remaining and percentage must be absent without a budget")
	}
	if !c.Spent.Equal(mustDecimal(t, "5")) {
		t.Errorf("spent = %s, want 5", c.Spent)
	}
}

func TestMonthSummaryMergesCategoriesByName(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	first, _ := store.CreateCategory(ctx, core.Category{
		Name:          "Groceries",
		MonthlyBudget: &core.Money{Cents: 20000},
	})
	second, _ := store.CreateCategory(ctx, core.Category{
		Name:          "groceries",
		MonthlyBudget: &core.Money{Cents: 99900},
		RecurringOnly: true,
	})

	store.CreateExpense(ctx, core.Expense{
		UserID: user.ID, CategoryID: first.ID,
		Amount:    core.Money{Cents: 3000},
		CreatedAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	store.CreateExpense(ctx, core.Expense{
		UserID: user.ID, CategoryID: second.ID,
		Amount:    core.Money{Cents: 2000},
		CreatedAt: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
	})

	sum, err := svc.MonthSummary(ctx, 2024, time.May, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Categories) != 1 {
		t.Fatalf("expected merged single category, got %d", len(sum.Categories))
	}
	c := sum.Categories[0]
	if !c.Spent.Equal(mustDecimal(t, "50")) {
		t.Errorf("merged spent = %s, want 50", c.Spent)
	}
	// First encountered budget wins; ListCategories orders by name, so the
	// capital G row comes first.
	if c.Budget == nil || !c.Budget.Equal(mustDecimal(t, "200")) {
		t.Errorf("merged budget = %v, want 200", c.Budget)
	}
	if len(sum.Diagnostics) != 1 {
		t.Fatalf("expected 1 merge diagnostic, got %d", len(sum.Diagnostics))
	}
	d := sum.Diagnostics[0]
	if d.KeptBudgetCents != 20000 || d.IgnoredBudgetCents != 99900 {
		t.Errorf("diagnostic = %+v, want kept 20000 ignored 99900", d)
	}
}

func TestMonthSummaryOrderingAndTotals(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	dana, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	remy, _ := store.CreateUser(ctx, core.User{Name: "Remy"})
	rent, _ := store.CreateCategory(ctx, core.Category{
		Name:          "Rent",
		MonthlyBudget: &core.Money{Cents: 100000},
	})
	dining, _ := store.CreateCategory(ctx, core.Category{
		Name:          "Dining",
		MonthlyBudget: &core.Money{Cents: 20000},
	})
	store.CreateCategory(ctx, core.Category{Name: "Unused"})

	store.CreateExpense(ctx, core.Expense{
		UserID: dana.ID, CategoryID: dining.ID,
		Amount:    core.Money{Cents: 15000},
		CreatedAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	store.CreateExpense(ctx, core.Expense{
		UserID: remy.ID, CategoryID: dining.ID,
		Amount:    core.Money{Cents: 4000},
		CreatedAt: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
	})
	store.CreateExpense(ctx, core.Expense{
		UserID: dana.ID, CategoryID: rent.ID,
		Amount:    core.Money{Cents: 90000},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})

	sum, err := svc.MonthSummary(ctx, 2024, time.May, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	// Unused has no budget and no spend, so it is dropped; the rest sorts
	// by spent descending.
	if len(sum.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(sum.Categories))
	}
	if sum.Categories[0].Name != "Rent" || sum.Categories[1].Name != "Dining" {
		t.Errorf("order = [%s %s], want [Rent Dining]",
			sum.Categories[0].Name, sum.Categories[1].Name)
	}

	if !sum.TotalBudget.Equal(mustDecimal(t, "1200")) {
		t.Errorf("total budget = %s, want 1200", sum.TotalBudget)
	}
	if !sum.TotalSpent.Equal(mustDecimal(t, "1090")) {
		t.Errorf("total spent = %s, want 1090", sum.TotalSpent)
	}

	users := sum.Categories[1].Users
	if len(users) != 2 {
		t.Fatalf("expected 2 user shares for Dining, got %d", len(users))
	}
	if users[0].Name != "Dana" || !users[0].Amount.Equal(mustDecimal(t, "150")) {
		t.Errorf("top share = %s %s, want Dana 150", users[0].Name, users[0].Amount)
	}
	if users[1].Name != "Remy" || !users[1].Amount.Equal(mustDecimal(t, "40")) {
		t.Errorf("second share = %s %s, want Remy 40", users[1].Name, users[1].Amount)
	}
}

func TestMonthSummaryPercentageFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	cat, _ := store.CreateCategory(ctx, core.Category{
		Name:          "Dining",
		MonthlyBudget: &core.Money{Cents: 10000},
	})
	store.CreateExpense(ctx, core.Expense{
		UserID: user.ID, CategoryID: cat.ID,
		Amount:    core.Money{Cents: 25000},
		CreatedAt: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
	})

	sum, err := svc.MonthSummary(ctx, 2024, time.May, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	c := sum.Categories[0]
	if c.PercentageLeft == nil || !c.PercentageLeft.IsZero() {
		t.Errorf("overspent percentage = %v, want 0", c.PercentageLeft)
	}
	if c.Remaining == nil || !c.Remaining.Equal(mustDecimal(t, "-150")) {
		t.Errorf("remaining = %v, want -150", c.Remaining)
	}
}

func TestMonthSummaryIncomeFallback(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	store.CreateIncome(ctx, core.Income{
		UserID:    user.ID,
		Amount:    core.Money{Cents: 250000},
		CreatedAt: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
	})

	// March has no entries of its own: the January entry carries over
	sum, err := svc.MonthSummary(ctx, 2024, time.March, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !sum.IncomeFallback {
		t.Error("expected income fallback flag")
	}
	if !sum.TotalIncome.Equal(mustDecimal(t, "2500")) {
		t.Errorf("income = %s, want 2500", sum.TotalIncome)
	}

	// January uses its own entries
	sum, err = svc.MonthSummary(ctx, 2024, time.January, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.IncomeFallback {
		t.Error("did not expect fallback for a month with entries")
	}
}

func TestMonthSummaryAnticipatedNet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewSummaryService(store)

	user, _ := store.CreateUser(ctx, core.User{Name: "Dana"})
	cat, _ := store.CreateCategory(ctx, core.Category{Name: "Rent"})
	store.CreateIncome(ctx, core.Income{
		UserID:    user.ID,
		Amount:    core.Money{Cents: 300000},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	store.CreateRecurring(ctx, core.RecurringExpense{
		UserID: user.ID, CategoryID: cat.ID,
		Amount:     core.Money{Cents: 90000},
		DayOfMonth: 28,
		IsActive:   true,
	})

	sum, err := svc.MonthSummary(ctx, 2024, time.May, core.PeriodMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !sum.Net.Equal(mustDecimal(t, "3000")) {
		t.Errorf("net = %s, want 3000", sum.Net)
	}
	if !sum.AnticipatedNet.Equal(mustDecimal(t, "2100")) {
		t.Errorf("anticipated net = %s, want 2100", sum.AnticipatedNet)
	}
}

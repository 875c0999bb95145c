package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/records"
)

type (
	// CategorySummary is one merged category row of the monthly overview.
	// All figures are expressed in the requested period.
	CategorySummary struct {
		Name           string
		Color          string
		Budget         *decimal.Decimal
		Spent          decimal.Decimal
		Remaining      *decimal.Decimal
		PercentageLeft *decimal.Decimal
		// Users splits Spent per user, sorted by amount descending.
		Users []UserShare
	}

	// UserShare is one user's portion of a spend figure.
	UserShare struct {
		Name   string
		Amount decimal.Decimal
	}

	// MergeDiagnostic reports a budget conflict between categories merged by
	// case-insensitive name. The first budget wins; the conflict is surfaced
	// rather than treated as an error.
	MergeDiagnostic struct {
		Category           string
		KeptBudgetCents    int64
		IgnoredBudgetCents int64
	}

	// MonthSummary is the full overview for one calendar month.
	MonthSummary struct {
		Year       int
		Month      time.Month
		Period     core.Period
		Categories []CategorySummary
		// Diagnostics lists budget conflicts found while merging categories.
		Diagnostics []MergeDiagnostic

		TotalSpent decimal.Decimal
		// TotalBudget sums the merged category budgets, in the requested period.
		TotalBudget decimal.Decimal
		TotalIncome decimal.Decimal
		// IncomeFallback is set when the month had no income entries and the
		// totals fall back to each user's most recent entry.
		IncomeFallback bool
		Net            decimal.Decimal
		// AnticipatedNet additionally subtracts installments that are still
		// expected this month from active definitions.
		AnticipatedNet decimal.Decimal
	}
)

// SummaryService builds the monthly overview: per-category spend against
// budgets, normalized to the requested period, plus income totals.
type SummaryService struct {
	store records.Store
}

func NewSummaryService(store records.Store) *SummaryService {
	return &SummaryService{store: store}
}

// MonthSummary aggregates the given month. Categories sharing a name
// case-insensitively are merged into one row; the first budget encountered
// wins and a conflicting second budget is logged and ignored.
func (s *SummaryService) MonthSummary(ctx context.Context, year int, month time.Month, period core.Period) (MonthSummary, error) {
	summary := MonthSummary{
		Year:   year,
		Month:  month,
		Period: period,
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return summary, fmt.Errorf("list categories: %w", err)
	}

	expenses, err := s.store.ListExpensesByMonth(ctx, year, month)
	if err != nil {
		return summary, fmt.Errorf("list expenses: %w", err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list users: %w", err)
	}
	userNames := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	// Merge categories by case-insensitive name. Deterministic because
	// ListCategories orders by name.
	type group struct {
		summary       CategorySummary
		ids           []uuid.UUID
		monthlyBudget int64
		perUser       map[uuid.UUID]decimal.Decimal
	}
	var order []string
	groups := map[string]*group{}
	for _, c := range categories {
		key := strings.ToLower(c.Name)
		g, ok := groups[key]
		if !ok {
			g = &group{
				summary: CategorySummary{
					Name:   c.Name,
					Color:  c.Color,
					Budget: period.BudgetForPeriod(c.MonthlyBudget),
				},
				perUser: map[uuid.UUID]decimal.Decimal{},
			}
			if c.MonthlyBudget != nil {
				g.monthlyBudget = c.MonthlyBudget.Cents
			}
			groups[key] = g
			order = append(order, key)
		} else if c.MonthlyBudget != nil {
			if g.summary.Budget == nil {
				g.summary.Budget = period.BudgetForPeriod(c.MonthlyBudget)
				g.monthlyBudget = c.MonthlyBudget.Cents
			} else {
				slog.WarnContext(ctx, "Conflicting budgets for merged category, keeping first",
					"category", g.summary.Name,
					"ignored_budget_cents", c.MonthlyBudget.Cents)
				summary.Diagnostics = append(summary.Diagnostics, MergeDiagnostic{
					Category:           g.summary.Name,
					KeptBudgetCents:    g.monthlyBudget,
					IgnoredBudgetCents: c.MonthlyBudget.Cents,
				})
			}
		}
		g.ids = append(g.ids, c.ID)
	}

	groupByID := map[uuid.UUID]*group{}
	for _, g := range groups {
		for _, id := range g.ids {
			groupByID[id] = g
		}
	}

	spentMonthly := map[*group]decimal.Decimal{}
	totalMonthly := decimal.Zero
	for _, e := range expenses {
		amount := e.Amount.Decimal()
		totalMonthly = totalMonthly.Add(amount)
		g, ok := groupByID[e.CategoryID]
		if !ok {
			slog.WarnContext(ctx, "Expense references unknown category",
				"expense_id", e.ID,
				"category_id", e.CategoryID)
			continue
		}
		spentMonthly[g] = spentMonthly[g].Add(amount)
		g.perUser[e.UserID] = g.perUser[e.UserID].Add(amount)
	}

	for _, key := range order {
		g := groups[key]
		g.summary.Spent = period.FromMonthly(spentMonthly[g])
		// A category nobody budgeted or spent against is noise in the overview.
		if g.summary.Budget == nil && g.summary.Spent.IsZero() {
			continue
		}
		if g.summary.Budget != nil {
			remaining := g.summary.Budget.Sub(g.summary.Spent)
			g.summary.Remaining = &remaining
			pct := percentageLeft(remaining, *g.summary.Budget)
			g.summary.PercentageLeft = &pct
			summary.TotalBudget = summary.TotalBudget.Add(*g.summary.Budget)
		}
		for userID, amount := range g.perUser {
			g.summary.Users = append(g.summary.Users, UserShare{
				Name:   userNames[userID],
				Amount: period.FromMonthly(amount),
			})
		}
		sort.Slice(g.summary.Users, func(i, j int) bool {
			return g.summary.Users[i].Amount.GreaterThan(g.summary.Users[j].Amount)
		})
		summary.Categories = append(summary.Categories, g.summary)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if !a.Spent.Equal(b.Spent) {
			return a.Spent.GreaterThan(b.Spent)
		}
		return budgetOrZero(a.Budget).GreaterThan(budgetOrZero(b.Budget))
	})

	summary.TotalSpent = period.FromMonthly(totalMonthly)

	incomeMonthly, fallback, err := monthlyIncome(ctx, s.store, year, month)
	if err != nil {
		return summary, err
	}
	summary.TotalIncome = period.FromMonthly(incomeMonthly)
	summary.IncomeFallback = fallback
	summary.Net = summary.TotalIncome.Sub(summary.TotalSpent)

	pendingMonthly, err := s.pendingInstallments(ctx, year, month)
	if err != nil {
		return summary, err
	}
	summary.AnticipatedNet = summary.Net.Sub(period.FromMonthly(pendingMonthly))

	return summary, nil
}

func budgetOrZero(b *decimal.Decimal) decimal.Decimal {
	if b == nil {
		return decimal.Zero
	}
	return *b
}

// percentageLeft is remaining/budget as a percentage, floored at zero.
// A zero budget yields 0 rather than a division error.
func percentageLeft(remaining, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	pct := remaining.Div(budget).Mul(decimal.NewFromInt(100))
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// monthlyIncome sums the month's income entries. When the month has none it
// falls back to each user's most recent entry, so a salary recorded once
// keeps showing up in later months.
func monthlyIncome(ctx context.Context, store records.Store, year int, month time.Month) (decimal.Decimal, bool, error) {
	entries, err := store.ListIncomeByMonth(ctx, year, month)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("list income: %w", err)
	}
	fallback := false
	if len(entries) == 0 {
		entries, err = store.LatestIncomePerUser(ctx)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("latest income per user: %w", err)
		}
		fallback = len(entries) > 0
	}
	total := decimal.Zero
	for _, i := range entries {
		total = total.Add(i.Amount.Decimal())
	}
	return total, fallback, nil
}

// pendingInstallments sums the monthly amounts of active definitions that
// have not materialized in the given month yet.
func (s *SummaryService) pendingInstallments(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	total := decimal.Zero

	recurring, err := s.store.ListActiveRecurring(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list active recurring expenses: %w", err)
	}
	for _, re := range recurring {
		exists, err := s.store.HasInstallmentForMonth(ctx, re.ID, year, month)
		if err != nil {
			return decimal.Zero, fmt.Errorf("check installment: %w", err)
		}
		if !exists {
			total = total.Add(re.Amount.Decimal())
		}
	}

	large, err := s.store.ListActiveLarge(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list active large expenses: %w", err)
	}
	for _, le := range large {
		exists, err := s.store.HasInstallmentForMonth(ctx, le.ID, year, month)
		if err != nil {
			return decimal.Zero, fmt.Errorf("check installment: %w", err)
		}
		if !exists {
			total = total.Add(le.MonthlyAmount.Decimal())
		}
	}

	return total, nil
}

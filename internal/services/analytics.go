package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/records"
)

// CategoryAverage is the average monthly spend of one category over the
// months of a year that actually saw spending in that category.
type CategoryAverage struct {
	Name           string
	MonthlyAverage decimal.Decimal
	ActiveMonths   int
}

// AnalyticsService computes yearly spending statistics.
type AnalyticsService struct {
	store records.Store
}

func NewAnalyticsService(store records.Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// MonthlyAverages returns per-category averages for the given year, counting
// only elapsed months (strictly before now's month for the current year) in
// which the category had at least one expense. An empty month does not drag
// the average down; a category with no spending at all averages zero.
func (a *AnalyticsService) MonthlyAverages(ctx context.Context, year int, now time.Time) ([]CategoryAverage, error) {
	expenses, err := a.store.ListExpensesByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list expenses by year: %w", err)
	}

	categories, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	lastMonth := time.December
	if year == now.Year() {
		lastMonth = now.Month() - 1
	} else if year > now.Year() {
		lastMonth = 0
	}

	names := map[string]string{}
	for _, c := range categories {
		key := strings.ToLower(c.Name)
		if _, ok := names[key]; !ok {
			names[key] = c.Name
		}
	}
	nameByID := map[string]string{}
	for _, c := range categories {
		nameByID[c.ID.String()] = names[strings.ToLower(c.Name)]
	}

	type bucket struct {
		total  decimal.Decimal
		months map[time.Month]struct{}
	}
	buckets := map[string]*bucket{}
	for _, e := range expenses {
		if e.CreatedAt.Month() > lastMonth {
			continue
		}
		name, ok := nameByID[e.CategoryID.String()]
		if !ok {
			continue
		}
		b, ok := buckets[name]
		if !ok {
			b = &bucket{months: map[time.Month]struct{}{}}
			buckets[name] = b
		}
		b.total = b.total.Add(e.Amount.Decimal())
		b.months[e.CreatedAt.Month()] = struct{}{}
	}

	out := make([]CategoryAverage, 0, len(names))
	for _, name := range names {
		avg := CategoryAverage{Name: name}
		if b, ok := buckets[name]; ok && len(b.months) > 0 {
			avg.ActiveMonths = len(b.months)
			avg.MonthlyAverage = b.total.Div(decimal.NewFromInt(int64(len(b.months))))
		}
		out = append(out, avg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type (
	// MonthBreakdown is one month of the year overview.
	MonthBreakdown struct {
		Month    time.Month
		Income   decimal.Decimal
		Expenses decimal.Decimal
		Net      decimal.Decimal
		// IncomeFallback mirrors the summary behavior: a month without income
		// entries falls back to each user's most recent entry.
		IncomeFallback bool
		PerUser        []UserShare
		PerCategory    []UserShare
		// OverBudget lists categories whose spend exceeded their monthly budget.
		OverBudget []string
	}

	// RankedShare is one entry of a yearly ranking, with its percentage of
	// the year's total expenses.
	RankedShare struct {
		Name       string
		Amount     decimal.Decimal
		Percentage decimal.Decimal
	}

	// YearOverview is the full analytics response for one year.
	YearOverview struct {
		Year   int
		Months []MonthBreakdown
		// The averages cover only fully elapsed months that saw at least
		// one expense, so a half-recorded current month never drags them
		// down.
		AverageMonthlyIncome   decimal.Decimal
		AverageMonthlyExpenses decimal.Decimal
		AverageMonthlyNet      decimal.Decimal
		TopSpenders            []RankedShare
		TopCategories          []RankedShare
	}
)

// YearOverview breaks a year down month by month: income, expenses, net,
// per-user and per-category splits and over-budget categories, plus the
// average monthly figures and yearly spender and category rankings.
func (a *AnalyticsService) YearOverview(ctx context.Context, year int, now time.Time) (YearOverview, error) {
	overview := YearOverview{Year: year}

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return overview, fmt.Errorf("list users: %w", err)
	}
	userNames := map[uuid.UUID]string{}
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	categories, err := a.store.ListCategories(ctx)
	if err != nil {
		return overview, fmt.Errorf("list categories: %w", err)
	}
	categoryNames := map[uuid.UUID]string{}
	budgets := map[uuid.UUID]*core.Money{}
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
		budgets[c.ID] = c.MonthlyBudget
	}

	yearTotal := decimal.Zero
	spenderTotals := map[uuid.UUID]decimal.Decimal{}
	categoryTotals := map[uuid.UUID]decimal.Decimal{}

	var (
		averageBase   int64
		incomeTotal   decimal.Decimal
		expensesTotal decimal.Decimal
		netTotal      decimal.Decimal
	)

	for month := time.January; month <= time.December; month++ {
		breakdown := MonthBreakdown{Month: month}

		income, fallback, err := monthlyIncome(ctx, a.store, year, month)
		if err != nil {
			return overview, err
		}
		breakdown.Income = income
		breakdown.IncomeFallback = fallback

		expenses, err := a.store.ListExpensesByMonth(ctx, year, month)
		if err != nil {
			return overview, fmt.Errorf("list expenses: %w", err)
		}

		perUser := map[uuid.UUID]decimal.Decimal{}
		perCategory := map[uuid.UUID]decimal.Decimal{}
		for _, e := range expenses {
			amount := e.Amount.Decimal()
			breakdown.Expenses = breakdown.Expenses.Add(amount)
			perUser[e.UserID] = perUser[e.UserID].Add(amount)
			perCategory[e.CategoryID] = perCategory[e.CategoryID].Add(amount)
			yearTotal = yearTotal.Add(amount)
			spenderTotals[e.UserID] = spenderTotals[e.UserID].Add(amount)
			categoryTotals[e.CategoryID] = categoryTotals[e.CategoryID].Add(amount)
		}
		breakdown.Net = breakdown.Income.Sub(breakdown.Expenses)

		breakdown.PerUser = sharesFrom(perUser, userNames)
		breakdown.PerCategory = sharesFrom(perCategory, categoryNames)
		for id, spent := range perCategory {
			if budget := budgets[id]; budget != nil && spent.GreaterThan(budget.Decimal()) {
				breakdown.OverBudget = append(breakdown.OverBudget, categoryNames[id])
			}
		}
		sort.Strings(breakdown.OverBudget)

		elapsed := year < now.Year() || (year == now.Year() && month < now.Month())
		if elapsed && len(expenses) > 0 {
			averageBase++
			incomeTotal = incomeTotal.Add(breakdown.Income)
			expensesTotal = expensesTotal.Add(breakdown.Expenses)
			netTotal = netTotal.Add(breakdown.Net)
		}

		overview.Months = append(overview.Months, breakdown)
	}

	if averageBase > 0 {
		base := decimal.NewFromInt(averageBase)
		overview.AverageMonthlyIncome = incomeTotal.Div(base)
		overview.AverageMonthlyExpenses = expensesTotal.Div(base)
		overview.AverageMonthlyNet = netTotal.Div(base)
	}

	overview.TopSpenders = rankShares(spenderTotals, userNames, yearTotal)
	overview.TopCategories = rankShares(categoryTotals, categoryNames, yearTotal)
	return overview, nil
}

func sharesFrom(amounts map[uuid.UUID]decimal.Decimal, names map[uuid.UUID]string) []UserShare {
	shares := make([]UserShare, 0, len(amounts))
	for id, amount := range amounts {
		shares = append(shares, UserShare{Name: names[id], Amount: amount})
	}
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].Amount.Equal(shares[j].Amount) {
			return shares[i].Amount.GreaterThan(shares[j].Amount)
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// rankShares orders totals descending with each entry's percentage of the
// overall total. A zero total yields zero percentages, not a division error.
func rankShares(totals map[uuid.UUID]decimal.Decimal, names map[uuid.UUID]string, total decimal.Decimal) []RankedShare {
	ranked := make([]RankedShare, 0, len(totals))
	for id, amount := range totals {
		share := RankedShare{Name: names[id], Amount: amount}
		if !total.IsZero() {
			share.Percentage = amount.Div(total).Mul(decimal.NewFromInt(100))
		}
		ranked = append(ranked, share)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Amount.Equal(ranked[j].Amount) {
			return ranked[i].Amount.GreaterThan(ranked[j].Amount)
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// JSON views. Amounts are accepted as decimal strings ("12.34") and returned
// both as cents and as a formatted decimal string.

type userJSON struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Color: u.Color}
}

type categoryJSON struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Color          string    `json:"color,omitempty"`
	MonthlyBudget  *string   `json:"monthly_budget,omitempty"`
	RecurringOnly  bool      `json:"recurring_only,omitempty"`
	LargeOnly      bool      `json:"large_only,omitempty"`
	LinkedToNormal bool      `json:"linked_to_normal,omitempty"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	out := categoryJSON{
		ID:             c.ID,
		Name:           c.Name,
		Color:          c.Color,
		RecurringOnly:  c.RecurringOnly,
		LargeOnly:      c.LargeOnly,
		LinkedToNormal: c.LinkedToNormal,
	}
	if c.MonthlyBudget != nil {
		budget := c.MonthlyBudget.Decimal().StringFixed(2)
		out.MonthlyBudget = &budget
	}
	return out
}

type expenseJSON struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	CategoryID         uuid.UUID  `json:"category_id"`
	AmountCents        int64      `json:"amount_cents"`
	Amount             string     `json:"amount"`
	Note               string     `json:"note,omitempty"`
	SourceDefinitionID *uuid.UUID `json:"source_definition_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:                 e.ID,
		UserID:             e.UserID,
		CategoryID:         e.CategoryID,
		AmountCents:        e.Amount.Cents,
		Amount:             e.Amount.Decimal().StringFixed(2),
		Note:               e.Note,
		SourceDefinitionID: e.SourceDefinitionID,
		CreatedAt:          e.CreatedAt,
	}
}

type incomeJSON struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toIncomeJSON(i core.Income) incomeJSON {
	return incomeJSON{
		ID:          i.ID,
		UserID:      i.UserID,
		AmountCents: i.Amount.Cents,
		Amount:      i.Amount.Decimal().StringFixed(2),
		Note:        i.Note,
		CreatedAt:   i.CreatedAt,
	}
}

type recurringJSON struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	CategoryID      uuid.UUID  `json:"category_id"`
	AmountCents     int64      `json:"amount_cents"`
	Amount          string     `json:"amount"`
	DayOfMonth      int        `json:"day_of_month"`
	Note            string     `json:"note,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastGeneratedAt *time.Time `json:"last_generated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toRecurringJSON(re core.RecurringExpense) recurringJSON {
	return recurringJSON{
		ID:              re.ID,
		UserID:          re.UserID,
		CategoryID:      re.CategoryID,
		AmountCents:     re.Amount.Cents,
		Amount:          re.Amount.Decimal().StringFixed(2),
		DayOfMonth:      re.DayOfMonth,
		Note:            re.Note,
		IsActive:        re.IsActive,
		LastGeneratedAt: re.LastGeneratedAt,
		CreatedAt:       re.CreatedAt,
		UpdatedAt:       re.UpdatedAt,
	}
}

type largeJSON struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	CategoryID         uuid.UUID `json:"category_id"`
	TotalAmountCents   int64     `json:"total_amount_cents"`
	TotalAmount        string    `json:"total_amount"`
	MonthlyAmountCents int64     `json:"monthly_amount_cents"`
	MonthlyAmount      string    `json:"monthly_amount"`
	DayOfMonth         int       `json:"day_of_month"`
	Note               string    `json:"note,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toLargeJSON(le core.LargeExpense) largeJSON {
	return largeJSON{
		ID:                 le.ID,
		UserID:             le.UserID,
		CategoryID:         le.CategoryID,
		TotalAmountCents:   le.TotalAmount.Cents,
		TotalAmount:        le.TotalAmount.Decimal().StringFixed(2),
		MonthlyAmountCents: le.MonthlyAmount.Cents,
		MonthlyAmount:      le.MonthlyAmount.Decimal().StringFixed(2),
		DayOfMonth:         le.DayOfMonth,
		Note:               le.Note,
		IsActive:           le.IsActive,
		CreatedAt:          le.CreatedAt,
		UpdatedAt:          le.UpdatedAt,
	}
}

type userShareJSON struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type categorySummaryJSON struct {
	Name           string          `json:"name"`
	Color          string          `json:"color,omitempty"`
	Budget         *string         `json:"budget,omitempty"`
	Spent          string          `json:"spent"`
	Remaining      *string         `json:"remaining,omitempty"`
	PercentageLeft *string         `json:"percentage_left,omitempty"`
	Users          []userShareJSON `json:"users,omitempty"`
}

type mergeDiagnosticJSON struct {
	Category           string `json:"category"`
	KeptBudgetCents    int64  `json:"kept_budget_cents"`
	IgnoredBudgetCents int64  `json:"ignored_budget_cents"`
}

type summaryJSON struct {
	Year           int                   `json:"year"`
	Month          int                   `json:"month"`
	Period         string                `json:"period"`
	Categories     []categorySummaryJSON `json:"categories"`
	Diagnostics    []mergeDiagnosticJSON `json:"diagnostics,omitempty"`
	TotalSpent     string                `json:"total_spent"`
	TotalBudget    string                `json:"total_budget"`
	TotalIncome    string                `json:"total_income"`
	IncomeFallback bool                  `json:"income_fallback"`
	Net            string                `json:"net"`
	AnticipatedNet string                `json:"anticipated_net"`
}

func toSummaryJSON(ms services.MonthSummary) summaryJSON {
	out := summaryJSON{
		Year:           ms.Year,
		Month:          int(ms.Month),
		Period:         string(ms.Period),
		Categories:     make([]categorySummaryJSON, 0, len(ms.Categories)),
		TotalSpent:     ms.TotalSpent.StringFixed(2),
		TotalBudget:    ms.TotalBudget.StringFixed(2),
		TotalIncome:    ms.TotalIncome.StringFixed(2),
		IncomeFallback: ms.IncomeFallback,
		Net:            ms.Net.StringFixed(2),
		AnticipatedNet: ms.AnticipatedNet.StringFixed(2),
	}
	for _, c := range ms.Categories {
		out.Categories = append(out.Categories, categorySummaryJSON{
			Name:           c.Name,
			Color:          c.Color,
			Budget:         decimalString(c.Budget),
			Spent:          c.Spent.StringFixed(2),
			Remaining:      decimalString(c.Remaining),
			PercentageLeft: decimalString(c.PercentageLeft),
			Users:          toUserShares(c.Users),
		})
	}
	for _, d := range ms.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, mergeDiagnosticJSON(d))
	}
	return out
}

func toUserShares(shares []services.UserShare) []userShareJSON {
	if len(shares) == 0 {
		return nil
	}
	out := make([]userShareJSON, 0, len(shares))
	for _, sh := range shares {
		out = append(out, userShareJSON{Name: sh.Name, Amount: sh.Amount.StringFixed(2)})
	}
	return out
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

type averageJSON struct {
	Name           string `json:"name"`
	MonthlyAverage string `json:"monthly_average"`
	ActiveMonths   int    `json:"active_months"`
}

func toAverageJSON(a services.CategoryAverage) averageJSON {
	return averageJSON{
		Name:           a.Name,
		MonthlyAverage: a.MonthlyAverage.StringFixed(2),
		ActiveMonths:   a.ActiveMonths,
	}
}

type monthBreakdownJSON struct {
	Month          int             `json:"month"`
	Income         string          `json:"income"`
	Expenses       string          `json:"expenses"`
	Net            string          `json:"net"`
	IncomeFallback bool            `json:"income_fallback"`
	PerUser        []userShareJSON `json:"per_user,omitempty"`
	PerCategory    []userShareJSON `json:"per_category,omitempty"`
	OverBudget     []string        `json:"over_budget,omitempty"`
}

type rankedShareJSON struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

type yearOverviewJSON struct {
	Year                   int                  `json:"year"`
	Months                 []monthBreakdownJSON `json:"months"`
	AverageMonthlyIncome   string               `json:"average_monthly_income"`
	AverageMonthlyExpenses string               `json:"average_monthly_expenses"`
	AverageMonthlyNet      string               `json:"average_monthly_net"`
	TopSpenders            []rankedShareJSON    `json:"top_spenders"`
	TopCategories          []rankedShareJSON    `json:"top_categories"`
}

func toYearOverviewJSON(o services.YearOverview) yearOverviewJSON {
	out := yearOverviewJSON{
		Year:                   o.Year,
		Months:                 make([]monthBreakdownJSON, 0, len(o.Months)),
		AverageMonthlyIncome:   o.AverageMonthlyIncome.StringFixed(2),
		AverageMonthlyExpenses: o.AverageMonthlyExpenses.StringFixed(2),
		AverageMonthlyNet:      o.AverageMonthlyNet.StringFixed(2),
		TopSpenders:            toRankedShares(o.TopSpenders),
		TopCategories:          toRankedShares(o.TopCategories),
	}
	for _, m := range o.Months {
		out.Months = append(out.Months, monthBreakdownJSON{
			Month:          int(m.Month),
			Income:         m.Income.StringFixed(2),
			Expenses:       m.Expenses.StringFixed(2),
			Net:            m.Net.StringFixed(2),
			IncomeFallback: m.IncomeFallback,
			PerUser:        toUserShares(m.PerUser),
			PerCategory:    toUserShares(m.PerCategory),
			OverBudget:     m.OverBudget,
		})
	}
	return out
}

func toRankedShares(shares []services.RankedShare) []rankedShareJSON {
	out := make([]rankedShareJSON, 0, len(shares))
	for _, sh := range shares {
		out = append(out, rankedShareJSON{
			Name:       sh.Name,
			Amount:     sh.Amount.StringFixed(2),
			Percentage: sh.Percentage.StringFixed(2),
		})
	}
	return out
}

package core

import (
	"github.com/shopspring/decimal"
)

// Period is a budget display granularity. Budgets are stored monthly and
// converted to the requested period on read.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Conversion uses fixed nominal factors rather than calendar lengths: a month
// is 30 days and 4 weeks regardless of the actual month. The factors are
// exact rationals, so converting to a period and back returns the original
// monthly figure.
var (
	daysPerMonth  = decimal.NewFromInt(30)
	weeksPerMonth = decimal.NewFromInt(4)
	monthsPerYear = decimal.NewFromInt(12)
)

// Periods lists every supported period.
func Periods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}
}

// ParsePeriod validates a period string. The empty string defaults to month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	case "":
		return PeriodMonth, nil
	default:
		return "", ErrUnknownPeriod
	}
}

// FromMonthly converts a monthly amount to this period.
func (p Period) FromMonthly(monthly decimal.Decimal) decimal.Decimal {
	switch p {
	case PeriodDay:
		return monthly.DivRound(daysPerMonth, 10)
	case PeriodWeek:
		return monthly.Div(weeksPerMonth)
	case PeriodYear:
		return monthly.Mul(monthsPerYear)
	default:
		return monthly
	}
}

// ToMonthly converts an amount expressed in this period back to a monthly
// figure, inverting FromMonthly.
func (p Period) ToMonthly(amount decimal.Decimal) decimal.Decimal {
	switch p {
	case PeriodDay:
		return amount.Mul(daysPerMonth)
	case PeriodWeek:
		return amount.Mul(weeksPerMonth)
	case PeriodYear:
		return amount.DivRound(monthsPerYear, 10)
	default:
		return amount
	}
}

// BudgetForPeriod converts an optional monthly budget to the given period.
// An absent budget stays absent; it never collapses to zero.
func (p Period) BudgetForPeriod(monthly *Money) *decimal.Decimal {
	if monthly == nil {
		return nil
	}
	v := p.FromMonthly(monthly.Decimal())
	return &v
}

// LargeMonthlyAmount splits a large expense total into twelve monthly
// installments, rounding up to a whole currency unit so the schedule never
// undershoots the total. A 1600 total yields installments of 134, not 133.33.
func LargeMonthlyAmount(total Money) Money {
	units := total.Decimal().Div(decimal.NewFromInt(AmortizationMonths)).Ceil()
	return MoneyFromDecimal(units)
}

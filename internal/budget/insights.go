package budget

import (
	"math"
	"strings"
	"time"

	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

// Insights are the ratio KPIs of a month. Every ratio with a non-positive
// denominator is 0.
type Insights struct {
	Income          float64 `json:"income"`
	Expenses        float64 `json:"expenses"`
	LivingCosts     float64 `json:"living_costs"`
	Cashflow        float64 `json:"cashflow"`
	SavingsRate     float64 `json:"savings_rate"`
	DebtToIncome    float64 `json:"debt_to_income"`
	EmergencyMonths float64 `json:"emergency_months"`
	NetWorth        float64 `json:"net_worth"`
	GoalProgress    float64 `json:"goal_progress"`
}

// ComputeInsights reads the month as: expenses are every outflow (fixed,
// variable and debt payments), living costs are fixed plus variable, debt rows
// are payments whose budget is the outstanding liability, savings rows are
// assets and goals (actual is the current balance, budget the target).
//
//	cashflow = income - expenses
func ComputeInsights(rec MonthRecord) Insights {
	income := Sum(rec.Income, FieldActual)
	living := finite(Sum(rec.Fixed, FieldActual) + Sum(rec.Variable, FieldActual))
	payments := Sum(rec.Debt, FieldActual)
	expenses := finite(living + payments)

	in := Insights{
		Income:      income,
		Expenses:    expenses,
		LivingCosts: living,
		Cashflow:    finite(income - expenses),
	}

	in.SavingsRate = math.Max(0, ratio(in.Cashflow, income)*100)
	in.DebtToIncome = ratio(payments, income) * 100
	in.EmergencyMonths = ratio(emergencyFund(rec.Savings), living)
	in.NetWorth = finite(Sum(rec.Savings, FieldActual) - Sum(rec.Debt, FieldBudget))

	var current, target float64
	for _, it := range rec.Savings {
		goal := money.ParseAmount(it.Budget)
		if goal <= 0 {
			continue
		}

		current += money.ParseAmount(it.Actual)
		target += goal
	}

	current, target = finite(current), finite(target)

	in.GoalProgress = ratio(current, target) * 100

	return in
}

// emergencyFund is the balance of the first savings row named like an emergency fund.
func emergencyFund(savings []LineItem) float64 {
	for _, it := range savings {
		if strings.Contains(strings.ToLower(it.Name), "emergency") {
			return money.ParseAmount(it.Actual)
		}
	}

	return 0
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}

	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}

	return r
}

// TodayBudget spreads what is left of the planned spending over the remaining days.
type TodayBudget struct {
	Planned  float64 `json:"planned"`
	Actual   float64 `json:"actual"`
	DaysLeft int     `json:"days_left"`
	PerDay   float64 `json:"per_day"`
}

// ComputeTodayBudget counts today as a day left when month is the month of now.
// Planned and actual cover the spending sections: debt, variable and fixed.
func ComputeTodayBudget(rec MonthRecord, month string, now time.Time) TodayBudget {
	var tb TodayBudget
	for _, sec := range []Section{SectionDebt, SectionVariable, SectionFixed} {
		tb.Planned += Sum(rec.Section(sec), FieldBudget)
		tb.Actual += Sum(rec.Section(sec), FieldActual)
	}

	days := DaysInMonth(month)
	tb.DaysLeft = days

	if month == now.Format("2006-01") {
		tb.DaysLeft = days - now.Day() + 1
	}

	tb.Planned, tb.Actual = finite(tb.Planned), finite(tb.Actual)
	tb.PerDay = finite((tb.Planned - tb.Actual) / float64(max(1, tb.DaysLeft)))

	return tb
}

// DaysInMonth returns the length of a YYYY-MM month, or 0 for an invalid key.
func DaysInMonth(month string) int {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0
	}

	return t.AddDate(0, 1, -1).Day()
}

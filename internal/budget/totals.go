package budget

import (
	"math"

	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

// Amounts pairs what was spent or earned with what was planned.
type Amounts struct {
	Actual float64 `json:"actual"`
	Budget float64 `json:"budget"`
}

func (a Amounts) add(b Amounts) Amounts {
	return Amounts{Actual: finite(a.Actual + b.Actual), Budget: finite(a.Budget + b.Budget)}
}

func (a Amounts) sub(b Amounts) Amounts {
	return Amounts{Actual: finite(a.Actual - b.Actual), Budget: finite(a.Budget - b.Budget)}
}

// finite maps an overflowed aggregate (±Inf, NaN) to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}

// Totals is derived from a MonthRecord and never stored as the source of truth.
type Totals struct {
	Sections      map[Section]Amounts `json:"sections"`
	TotalExpenses Amounts             `json:"total_expenses"`
	Remaining     Amounts             `json:"remaining"`
}

// Sum adds up field over items, reading each value through money.ParseAmount.
// A sum that overflows is 0.
func Sum(items []LineItem, field Field) float64 {
	var total float64
	for _, it := range items {
		total += money.ParseAmount(it.Get(field))
	}

	return finite(total)
}

func sectionAmounts(items []LineItem) Amounts {
	return Amounts{Actual: Sum(items, FieldActual), Budget: Sum(items, FieldBudget)}
}

// ComputeTotals derives the section sums and the month aggregates:
//
//	total expenses = debt + variable + fixed
//	remaining      = income - total expenses - savings
func ComputeTotals(rec MonthRecord) Totals {
	t := Totals{Sections: make(map[Section]Amounts, len(Sections))}
	for _, sec := range Sections {
		t.Sections[sec] = sectionAmounts(rec.Section(sec))
	}

	t.TotalExpenses = t.Sections[SectionDebt].
		add(t.Sections[SectionVariable]).
		add(t.Sections[SectionFixed])
	t.Remaining = t.Sections[SectionIncome].
		sub(t.TotalExpenses).
		sub(t.Sections[SectionSavings])

	return t
}

// PercentUsed is the row's actual as a share of its budget, "" without a budget.
func (li LineItem) PercentUsed() string {
	return money.FormatPercent(money.ParseAmount(li.Actual), money.ParseAmount(li.Budget))
}

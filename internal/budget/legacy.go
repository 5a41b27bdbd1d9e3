package budget

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

// legacyItem is a row of the variable-length schemas (v2, v3). The id only ever
// identified a row on screen and is dropped on migration.
type legacyItem struct {
	ID     string
	Name   string
	Amount float64
}

// v2Month is the {in, out, savings} schema.
type v2Month struct {
	In      []legacyItem
	Out     []legacyItem
	Savings []legacyItem
}

// v3Month is the scalar-income schema with four category budgets.
type v3Month struct {
	Income   float64
	Budgets  v3Budgets
	Fixed    []legacyItem
	Variable []legacyItem
	Savings  []legacyItem
	Debt     []legacyItem
}

type v3Budgets struct {
	Fixed    float64
	Variable float64
	Savings  float64
	Debt     float64
}

func decodeV2(raw json.RawMessage) v2Month {
	obj := objectOf(raw)

	return v2Month{
		In:      legacyItemsOf(obj["in"]),
		Out:     legacyItemsOf(obj["out"]),
		Savings: legacyItemsOf(obj["savings"]),
	}
}

func decodeV3(raw json.RawMessage) v3Month {
	obj := objectOf(raw)
	budgets := objectOf(obj["budgets"])

	return v3Month{
		Income: numberOf(obj["income"]),
		Budgets: v3Budgets{
			Fixed:    numberOf(budgets["fixed"]),
			Variable: numberOf(budgets["variable"]),
			Savings:  numberOf(budgets["savings"]),
			Debt:     numberOf(budgets["debt"]),
		},
		Fixed:    legacyItemsOf(obj["fixed"]),
		Variable: legacyItemsOf(obj["variable"]),
		Savings:  legacyItemsOf(obj["savings"]),
		Debt:     legacyItemsOf(obj["debt"]),
	}
}

// v2ToV3 collapses the income rows into the scalar income. Income row names are lost.
func v2ToV3(m v2Month) v3Month {
	var income float64
	for _, it := range m.In {
		income += it.Amount
	}

	return v3Month{
		Income:   income,
		Variable: m.Out,
		Savings:  m.Savings,
	}
}

// v3ToV4 spreads the v3 month over the fixed-row grid. A category budget lands on
// the first row of its section.
func v3ToV4(m v3Month) MonthRecord {
	var rec MonthRecord
	if m.Income != 0 {
		rec.Income = []LineItem{{Name: "Income", Actual: amountText(m.Income)}}
	}

	rec.Fixed = budgetedRows("Fixed", m.Fixed, m.Budgets.Fixed)
	rec.Variable = budgetedRows("Variable", m.Variable, m.Budgets.Variable)
	rec.Savings = budgetedRows("Savings", m.Savings, m.Budgets.Savings)
	rec.Debt = budgetedRows("Debt", m.Debt, m.Budgets.Debt)

	return rec
}

func budgetedRows(label string, items []legacyItem, budget float64) []LineItem {
	rows := make([]LineItem, 0, len(items))
	for _, it := range items {
		rows = append(rows, LineItem{Name: it.Name, Actual: amountText(it.Amount)})
	}

	if budget == 0 {
		return rows
	}

	if len(rows) == 0 {
		rows = append(rows, LineItem{Name: label})
	}

	rows[0].Budget = amountText(budget)

	return rows
}

func amountText(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func legacyItemsOf(raw json.RawMessage) []legacyItem {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	items := make([]legacyItem, 0, len(elems))
	for _, e := range elems {
		obj := objectOf(e)
		if obj == nil {
			continue
		}

		items = append(items, legacyItem{
			ID:     textOf(obj["id"]),
			Name:   textOf(obj["name"]),
			Amount: numberOf(obj["amount"]),
		})
	}

	return items
}

// numberOf reads a JSON number, or a string through money.ParseAmount. Anything
// else, including null, reads as 0.
func numberOf(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return money.ParseAmount(strings.TrimSpace(s))
	}

	return 0
}

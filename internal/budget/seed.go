package budget

// Seed returns the example month shown the first time a month is opened.
func Seed() MonthRecord {
	return Normalize(MonthRecord{
		Income: []LineItem{
			{Name: "Salary", Day: "1", Actual: "6500", Budget: "6500"},
		},
		Savings: []LineItem{
			{Name: "Emergency Fund", Day: "5", Actual: "900", Budget: "900"},
		},
		Debt: []LineItem{
			{Name: "Credit Card", Day: "15", Actual: "700", Budget: "700"},
		},
		Variable: []LineItem{
			{Name: "Groceries", Actual: "600", Budget: "650"},
		},
		Fixed: []LineItem{
			{Name: "Rent", Day: "1", Actual: "2400", Budget: "2400"},
		},
	})
}

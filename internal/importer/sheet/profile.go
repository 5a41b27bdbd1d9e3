package sheet

// Profile describes the columns of one spreadsheet layout. Adding a layout is
// adding a Profile to profiles.
type Profile struct {
	Name       string
	MonthCol   string
	SectionCol string
	NameCol    string
	DayCol     string // optional
	ActualCol  string
	BudgetCol  string // optional
}

// requiredCols returns the column names that must be present for the profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.MonthCol, p.SectionCol, p.NameCol, p.ActualCol}
}

// profiles is tried in order. More specific layouts come first.
var profiles = []Profile{
	{
		Name:       "grid",
		MonthCol:   "month",
		SectionCol: "section",
		NameCol:    "name",
		DayCol:     "day",
		ActualCol:  "actual",
		BudgetCol:  "budget",
	},
	{
		Name:       "ledger",
		MonthCol:   "month",
		SectionCol: "section",
		NameCol:    "name",
		ActualCol:  "amount",
	},
}

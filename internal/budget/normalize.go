package budget

import "github.com/google/uuid"

// Normalize returns rec with every section holding exactly Rows rows. Longer
// sections lose their overflow for good; shorter ones are padded with blank rows.
// Rows that already have an identity keep it, so Normalize is idempotent.
func Normalize(rec MonthRecord) MonthRecord {
	var out MonthRecord
	for _, sec := range Sections {
		*out.rows(sec) = normalizeRows(rec.Section(sec))
	}

	return out
}

func normalizeRows(in []LineItem) []LineItem {
	out := make([]LineItem, Rows)
	copy(out, in)

	for i := range out {
		if out[i].ID == uuid.Nil {
			out[i].ID = uuid.New()
		}
	}

	return out
}

// BlankRow returns an empty row with a fresh identity.
func BlankRow() LineItem {
	return LineItem{ID: uuid.New()}
}

// NewRow is what an "add" without further input writes into a section.
func NewRow(s Section) LineItem {
	switch s {
	case SectionIncome:
		return LineItem{Name: "New income", Actual: "0"}
	case SectionSavings:
		return LineItem{Name: "New savings", Actual: "0"}
	case SectionDebt:
		return LineItem{Name: "New debt", Actual: "0"}
	}

	return LineItem{Name: "New expense", Actual: "0"}
}

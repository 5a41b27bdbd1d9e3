package months

import (
	"github.com/google/uuid"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

type rowResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Day     string    `json:"day"`
	Actual  string    `json:"actual"`
	Budget  string    `json:"budget"`
	Percent string    `json:"percent,omitempty"`
}

type monthResponse struct {
	Month    string                           `json:"month"`
	Sections map[budget.Section][]rowResponse `json:"sections"`
	Totals   budget.Totals                    `json:"totals"`
}

type totalsResponse struct {
	Month  string        `json:"month"`
	Totals budget.Totals `json:"totals"`
}

type appendResponse struct {
	ID     uuid.UUID     `json:"id"`
	Totals budget.Totals `json:"totals"`
}

type quickAddResponse struct {
	ID      uuid.UUID      `json:"id"`
	Section budget.Section `json:"section"`
	Field   budget.Field   `json:"field"`
	Row     rowResponse    `json:"row"`
	Totals  budget.Totals  `json:"totals"`
}

func toRowResponse(li budget.LineItem) rowResponse {
	return rowResponse{
		ID:      li.ID,
		Name:    li.Name,
		Day:     li.Day,
		Actual:  li.Actual,
		Budget:  li.Budget,
		Percent: li.PercentUsed(),
	}
}

func toRowResponseList(items []budget.LineItem) []rowResponse {
	resp := make([]rowResponse, len(items))
	for i, li := range items {
		resp[i] = toRowResponse(li)
	}

	return resp
}

func toMonthResponse(month string, rec budget.MonthRecord) monthResponse {
	resp := monthResponse{
		Month:    month,
		Sections: make(map[budget.Section][]rowResponse, len(budget.Sections)),
		Totals:   budget.ComputeTotals(rec),
	}

	for _, sec := range budget.Sections {
		resp.Sections[sec] = toRowResponseList(rec.Section(sec))
	}

	return resp
}

package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

// MonthRange is a predefined or custom span of months.
type MonthRange int

const (
	RangeThisMonth MonthRange = iota
	RangeLastMonth
	RangeLastThree
	RangeThisYear
	RangeAll
	RangeCustom
)

func (r MonthRange) String() string {
	switch r {
	case RangeThisMonth:
		return "This Month"
	case RangeLastMonth:
		return "Last Month"
	case RangeLastThree:
		return "Last 3 Months"
	case RangeThisYear:
		return "This Year"
	case RangeAll:
		return "All Time"
	case RangeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// Bounds returns the first and last month key of r relative to now. RangeAll and
// RangeCustom have open bounds.
func (r MonthRange) Bounds(now time.Time) (string, string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := func(t time.Time) string { return t.Format("2006-01") }

	switch r {
	case RangeThisMonth:
		return key(first), key(first)
	case RangeLastMonth:
		last := first.AddDate(0, -1, 0)
		return key(last), key(last)
	case RangeLastThree:
		return key(first.AddDate(0, -2, 0)), key(first)
	case RangeThisYear:
		return fmt.Sprintf("%d-01", now.Year()), key(first)
	}

	return "", ""
}

// MonthRangeSelectedMsg carries the chosen bounds; empty bounds are open.
type MonthRangeSelectedMsg struct {
	From string
	To   string
}

type rangeState int

const (
	rangeStateSelect rangeState = iota
	rangeStateCustom
)

// MonthRangePicker selects a span of months.
type MonthRangePicker struct {
	state    rangeState
	selected MonthRange
	now      func() time.Time

	fromInput  textinput.Model
	toInput    textinput.Model
	focusIndex int

	err error
}

func NewMonthRangePicker(now func() time.Time) MonthRangePicker {
	fi := textinput.New()
	fi.Placeholder = "YYYY-MM"
	fi.CharLimit = 7
	fi.Width = 9
	fi.Prompt = "From: "

	ti := textinput.New()
	ti.Placeholder = "YYYY-MM"
	ti.CharLimit = 7
	ti.Width = 9
	ti.Prompt = "To:   "

	return MonthRangePicker{
		state:     rangeStateSelect,
		selected:  RangeThisMonth,
		now:       now,
		fromInput: fi,
		toInput:   ti,
	}
}

func (m MonthRangePicker) Update(msg tea.Msg) (MonthRangePicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case rangeStateSelect:
			return m.updateSelect(key)
		case rangeStateCustom:
			if next, cmd, handled := m.updateCustom(key); handled {
				return next, cmd
			}
		}
	}

	if m.state == rangeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m MonthRangePicker) updateSelect(msg tea.KeyMsg) (MonthRangePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > RangeThisMonth {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < RangeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == RangeCustom {
			m.state = rangeStateCustom
			m.focusIndex = 0
			m.fromInput.Focus()

			return m, textinput.Blink
		}

		from, to := m.selected.Bounds(m.now())

		return m, func() tea.Msg { return MonthRangeSelectedMsg{From: from, To: to} }
	}

	return m, nil
}

func (m MonthRangePicker) updateCustom(msg tea.KeyMsg) (MonthRangePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.fromInput.Blur()
		m.toInput.Blur()

		if m.focusIndex == 0 {
			m.fromInput.Focus()
		} else {
			m.toInput.Focus()
		}

		return m, textinput.Blink, true

	case "enter":
		from, to, err := parseBounds(m.fromInput.Value(), m.toInput.Value())
		if err != nil {
			m.err = err
			return m, nil, true
		}

		m.err = nil

		return m, func() tea.Msg { return MonthRangeSelectedMsg{From: from, To: to} }, true

	case "esc":
		m.state = rangeStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

// parseBounds validates custom bounds; either may be left empty.
func parseBounds(from, to string) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}

		if _, err := budget.ParseMonth(v, time.Time{}); err != nil {
			return "", "", fmt.Errorf("invalid month %q (YYYY-MM)", v)
		}
	}

	if from != "" && to != "" && from > to {
		return "", "", fmt.Errorf("%s is after %s", from, to)
	}

	return from, to, nil
}

func (m MonthRangePicker) updateInputs(msg tea.Msg) (MonthRangePicker, tea.Cmd) {
	var cmds []tea.Cmd

	var c tea.Cmd

	m.fromInput, c = m.fromInput.Update(msg)
	cmds = append(cmds, c)
	m.toInput, c = m.toInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m MonthRangePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle.Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == rangeStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.fromInput.View(),
			m.toInput.View(),
			errStr,
		)
	}

	var sb strings.Builder

	sb.WriteString("Select Months:\n\n")

	for r := RangeThisMonth; r <= RangeCustom; r++ {
		cursor := " "
		if m.selected == r {
			cursor = ">"
		}

		fmt.Fprintf(&sb, "%s %s\n", cursor, r)
	}

	sb.WriteString("\n(Enter to select, Esc to back)")

	return sb.String() + errStr
}

// IsSelecting reports whether the picker is on the preset list.
func (m MonthRangePicker) IsSelecting() bool {
	return m.state == rangeStateSelect
}

func (m *MonthRangePicker) Reset() {
	m.state = rangeStateSelect
	m.selected = RangeThisMonth
	m.err = nil
	m.fromInput.SetValue("")
	m.toInput.SetValue("")
}

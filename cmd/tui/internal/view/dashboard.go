package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

type dashState int

const (
	dashStateBrowse dashState = iota
	dashStateEdit
	dashStateQuickAdd
)

// rowForm holds huh bindings; it lives on the heap so the bindings survive
// model copies.
type rowForm struct {
	id     uuid.UUID
	orig   budget.LineItem
	name   string
	day    string
	actual string
	budget string
}

func (f *rowForm) changes() map[budget.Field]string {
	out := make(map[budget.Field]string)

	next := budget.LineItem{Name: f.name, Day: f.day, Actual: f.actual, Budget: f.budget}
	for _, field := range budget.Fields {
		if v := next.Get(field); v != f.orig.Get(field) {
			out[field] = v
		}
	}

	return out
}

type DashboardModel struct {
	CommonModel
	svc      *budget.Service
	classify *quickadd.Classifier
	money    *money.Formatter

	state      dashState
	month      string
	sectionIdx int
	rows       []budget.LineItem

	totals   budget.Totals
	insights budget.Insights
	today    budget.TodayBudget
	refresh  *totalsRefresh

	table table.Model
	form  *huh.Form
	edit  *rowForm
	quick textinput.Model

	status string
	err    error
}

func NewDashboardModel(svc *budget.Service, classify *quickadd.Classifier, formatter *money.Formatter, delay time.Duration) DashboardModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Day", Width: 5},
		{Title: "Actual", Width: 14},
		{Title: "Budget", Width: 14},
		{Title: "%", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(budget.Rows+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	qi := textinput.New()
	qi.Placeholder = "coffee 4.50, salary 3000, rent budget 1200"
	qi.Prompt = "Quick add: "
	qi.Width = 50

	return DashboardModel{
		svc:      svc,
		classify: classify,
		money:    formatter,
		month:    svc.CurrentMonth(),
		table:    t,
		quick:    qi,
		refresh:  newTotalsRefresh(delay),
	}
}

func (m DashboardModel) Title() string { return "Monthly Dashboard" }

func (m DashboardModel) ShortHelp() string {
	switch m.state {
	case dashStateEdit:
		return "Navigate form | Esc: cancel"
	case dashStateQuickAdd:
		return "Enter: add | Esc: cancel"
	}

	return "Esc: back | [/]: month | Tab: section | e: edit | a: add | x: delete | q: quick add | r: refresh"
}

func (m DashboardModel) section() budget.Section {
	return budget.Sections[m.sectionIdx]
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loadRowsCmd(), m.loadTotalsCmd(), m.refresh.Wait())
}

// Close stops the pending totals refresh.
func (m DashboardModel) Close() {
	m.refresh.Stop()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRowsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.month = msg.month
		m.rows = msg.rows
		m.refreshTable()

		return m, nil

	case loadTotalsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading totals: %v", msg.err)
			return m, nil
		}

		m.totals = msg.totals
		m.insights = msg.insights
		m.today = msg.today

		return m, nil

	case refreshTotalsMsg:
		return m, tea.Batch(m.loadTotalsCmd(), m.refresh.Wait())

	case mutateMsg:
		m.state = dashStateBrowse
		m.form = nil
		m.edit = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error saving: %v", msg.err))
		} else {
			m.status = msg.status
			m.refresh.Trigger()
		}

		return m, m.loadRowsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil
	}

	switch m.state {
	case dashStateEdit:
		return m.updateEdit(msg)
	case dashStateQuickAdd:
		return m.updateQuickAdd(msg)
	}

	return m.updateBrowse(msg)
}

func (m DashboardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			if m.refresh.Flush() {
				return m, m.loadRowsCmd()
			}

			return m, tea.Batch(m.loadRowsCmd(), m.loadTotalsCmd())
		case "[":
			return m.shiftMonth(-1)
		case "]":
			return m.shiftMonth(1)
		case "tab", "right":
			m.sectionIdx = (m.sectionIdx + 1) % len(budget.Sections)
			return m, m.loadRowsCmd()
		case "shift+tab", "left":
			m.sectionIdx = (m.sectionIdx + len(budget.Sections) - 1) % len(budget.Sections)
			return m, m.loadRowsCmd()
		case "e", "enter":
			return m.enterEditMode()
		case "a":
			return m, m.appendCmd(budget.NewRow(m.section()), m.section())
		case "x":
			if row, ok := m.selectedRow(); ok {
				return m, m.deleteCmd(row.ID)
			}
		case "q":
			m.state = dashStateQuickAdd
			m.quick.SetValue("")
			m.table.Blur()

			return m, m.quick.Focus()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DashboardModel) shiftMonth(delta int) (tea.Model, tea.Cmd) {
	t, err := time.Parse("2006-01", m.month)
	if err != nil {
		return m, nil
	}

	m.month = t.AddDate(0, delta, 0).Format("2006-01")
	m.refresh.Trigger()

	return m, m.loadRowsCmd()
}

func (m DashboardModel) selectedRow() (budget.LineItem, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return budget.LineItem{}, false
	}

	return m.rows[idx], true
}

func (m DashboardModel) enterEditMode() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}

	m.edit = &rowForm{
		id:     row.ID,
		orig:   row,
		name:   row.Name,
		day:    row.Day,
		actual: row.Actual,
		budget: row.Budget,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("name").Title("Name").Value(&m.edit.name),
			huh.NewInput().Key("day").Title("Day").Placeholder("1-31").Value(&m.edit.day),
			huh.NewInput().Key("actual").Title("Actual").Value(&m.edit.actual),
			huh.NewInput().Key("budget").Title("Budget").Value(&m.edit.budget),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dashStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m DashboardModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = dashStateBrowse
		m.form = nil
		m.edit = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd(m.edit)
}

func (m DashboardModel) updateQuickAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.state = dashStateBrowse
			m.quick.Blur()
			m.table.Focus()

			return m, nil
		case tea.KeyEnter:
			entry, err := m.classify.Classify(m.quick.Value())
			if err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}

			m.quick.Blur()

			return m, m.appendCmd(entry.Row(), entry.Section)
		}
	}

	var cmd tea.Cmd
	m.quick, cmd = m.quick.Update(msg)

	return m, cmd
}

func (m DashboardModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tabs := make([]string, 0, len(budget.Sections))
	for i, sec := range budget.Sections {
		label := string(sec)
		if i == m.sectionIdx {
			label = activeStyle("[" + label + "]")
		}

		tabs = append(tabs, label)
	}

	header := fmt.Sprintf("Month: %s  |  %s", activeStyle(m.month), strings.Join(tabs, " "))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		panelBorder.Render(m.table.View()),
	)

	side := m.totalsView()

	if m.state == dashStateEdit && m.form != nil {
		side = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Edit Row\n\n%s", m.form.View()))
	}

	content = lipgloss.JoinHorizontal(lipgloss.Top, content, side)

	if m.state == dashStateQuickAdd {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", m.quick.View())
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DashboardModel) totalsView() string {
	var sb strings.Builder

	sb.WriteString("Totals (actual / budget)\n\n")

	for _, sec := range budget.Sections {
		a := m.totals.Sections[sec]
		fmt.Fprintf(&sb, "%-10s %s / %s\n", sec, m.money.Money(a.Actual), m.money.Money(a.Budget))
	}

	fmt.Fprintf(&sb, "\n%-10s %s / %s\n", "expenses",
		m.money.Money(m.totals.TotalExpenses.Actual), m.money.Money(m.totals.TotalExpenses.Budget))

	remaining := m.money.Money(m.totals.Remaining.Actual)
	if m.totals.Remaining.Actual < 0 {
		remaining = errorStyle.Render(remaining)
	} else {
		remaining = goodStyle.Render(remaining)
	}

	fmt.Fprintf(&sb, "%-10s %s / %s\n", "remaining", remaining, m.money.Money(m.totals.Remaining.Budget))

	in := m.insights
	fmt.Fprintf(&sb, "\nCashflow      %s\n", m.money.Money(in.Cashflow))
	fmt.Fprintf(&sb, "Savings rate  %.1f%%\n", in.SavingsRate)
	fmt.Fprintf(&sb, "Debt/income   %.1f%%\n", in.DebtToIncome)
	fmt.Fprintf(&sb, "Emergency     %.1f months\n", in.EmergencyMonths)
	fmt.Fprintf(&sb, "Net worth     %s\n", m.money.Money(in.NetWorth))
	fmt.Fprintf(&sb, "Goals         %.0f%%\n", in.GoalProgress)

	fmt.Fprintf(&sb, "\nToday: %s/day for %d days", m.money.Money(m.today.PerDay), m.today.DaysLeft)

	return lipgloss.NewStyle().Padding(0, 2).Render(sb.String())
}

func (m *DashboardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, li := range m.rows {
		rows = append(rows, table.Row{li.Name, li.Day, li.Actual, li.Budget, li.PercentUsed()})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRowsMsg struct {
	month string
	rows  []budget.LineItem
	err   error
}

type loadTotalsMsg struct {
	totals   budget.Totals
	insights budget.Insights
	today    budget.TodayBudget
	err      error
}

type mutateMsg struct {
	status string
	err    error
}

// Commands

func (m DashboardModel) loadRowsCmd() tea.Cmd {
	svc, month, section := m.svc, m.month, m.section()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rows, err := svc.Rows(ctx, month, section)

		return loadRowsMsg{month: month, rows: rows, err: err}
	}
}

func (m DashboardModel) loadTotalsCmd() tea.Cmd {
	svc, month := m.svc, m.month

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		totals, err := svc.Totals(ctx, month)
		if err != nil {
			return loadTotalsMsg{err: err}
		}

		insights, err := svc.Insights(ctx, month)
		if err != nil {
			return loadTotalsMsg{err: err}
		}

		today, err := svc.TodayBudget(ctx, month)
		if err != nil {
			return loadTotalsMsg{err: err}
		}

		return loadTotalsMsg{totals: totals, insights: insights, today: today}
	}
}

func (m DashboardModel) saveCmd(edit *rowForm) tea.Cmd {
	svc, month, section := m.svc, m.month, m.section()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		changes := edit.changes()
		for _, field := range budget.Fields {
			v, ok := changes[field]
			if !ok {
				continue
			}

			if _, err := svc.SetField(ctx, month, section, edit.id, field, v); err != nil {
				return mutateMsg{err: err}
			}
		}

		return mutateMsg{status: fmt.Sprintf("Saved %d field(s)", len(changes))}
	}
}

func (m DashboardModel) appendCmd(row budget.LineItem, section budget.Section) tea.Cmd {
	svc, month := m.svc, m.month

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, _, err := svc.AppendRow(ctx, month, section, row)
		if errors.Is(err, budget.ErrSectionFull) {
			return mutateMsg{err: fmt.Errorf("%s is full (%d rows)", section, budget.Rows)}
		}

		if err != nil {
			return mutateMsg{err: err}
		}

		return mutateMsg{status: fmt.Sprintf("Added %q to %s", row.Name, section)}
	}
}

func (m DashboardModel) deleteCmd(id uuid.UUID) tea.Cmd {
	svc, month, section := m.svc, m.month, m.section()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := svc.DeleteRow(ctx, month, section, id); err != nil {
			return mutateMsg{err: err}
		}

		return mutateMsg{status: "Row deleted"}
	}
}

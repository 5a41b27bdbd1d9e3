package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const dbTimeout = 5 * time.Second

// Screen is implemented by every TUI screen.
type Screen interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// Frame renders a screen under its title with its key help below.
func Frame(s Screen) string {
	title := lipgloss.NewStyle().Bold(true).PaddingLeft(1).Render(s.Title())
	help := faintStyle.PaddingLeft(1).Render(s.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, s.View(), help)
}

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// DbCtx returns a context with a standard timeout for storage operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	panelBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

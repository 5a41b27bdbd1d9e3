package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange_Bounds(t *testing.T) {
	now := time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		r        MonthRange
		wantFrom string
		wantTo   string
	}{
		{"this month", RangeThisMonth, "2024-02", "2024-02"},
		{"last month crosses year", RangeLastMonth, "2024-01", "2024-01"},
		{"last three", RangeLastThree, "2023-12", "2024-02"},
		{"this year", RangeThisYear, "2024-01", "2024-02"},
		{"all time", RangeAll, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := tt.r.Bounds(now)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"both", "2024-01", "2024-03", false},
		{"open start", "", "2024-03", false},
		{"open both", "", "", false},
		{"bad month", "2024-13", "", true},
		{"reversed", "2024-05", "2024-03", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseBounds(tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestMonthRangePicker_SelectPreset(t *testing.T) {
	now := func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	p := NewMonthRangePicker(now)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(MonthRangeSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, MonthRangeSelectedMsg{From: "2024-05", To: "2024-05"}, msg)
	assert.True(t, p.IsSelecting())
}

func TestMonthRangePicker_CustomRejectsBadInput(t *testing.T) {
	p := NewMonthRangePicker(time.Now)

	for range int(RangeCustom) {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, p.IsSelecting())

	p.fromInput.SetValue("2024-99")
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, p.err)

	p.fromInput.SetValue("2024-01")
	_, cmd = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, MonthRangeSelectedMsg{From: "2024-01"}, cmd())
}

func TestTotalsRefresh_CoalescesTriggers(t *testing.T) {
	r := newTotalsRefresh(10 * time.Millisecond)
	defer r.Stop()

	for range 5 {
		r.Trigger()
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- r.Wait()() }()

	select {
	case msg := <-done:
		assert.Equal(t, refreshTotalsMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("refresh never fired")
	}

	assert.Empty(t, r.ch)
}

func TestTotalsRefresh_StopReleasesWait(t *testing.T) {
	r := newTotalsRefresh(time.Hour)
	r.Trigger()

	done := make(chan tea.Msg, 1)
	go func() { done <- r.Wait()() }()

	r.Stop()
	r.Stop()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("wait still blocked after stop")
	}
}

func TestTotalsRefresh_FlushDeliversPending(t *testing.T) {
	r := newTotalsRefresh(time.Hour)
	defer r.Stop()

	assert.False(t, r.Flush())

	r.Trigger()
	require.True(t, r.Flush())
	assert.Equal(t, refreshTotalsMsg{}, r.Wait()())
}

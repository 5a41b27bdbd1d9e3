package view

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/OrrForeshop/finance-dashboard/internal/debounce"
)

// totalsRefresh turns bursts of edits into one totals reload. The debounced
// callback only signals a channel; the program reads it through a tea.Cmd.
type totalsRefresh struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
	d    *debounce.Debouncer
}

type refreshTotalsMsg struct{}

func newTotalsRefresh(delay time.Duration) *totalsRefresh {
	ch := make(chan struct{}, 1)

	return &totalsRefresh{
		ch:   ch,
		done: make(chan struct{}),
		d: debounce.New(delay, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}),
	}
}

func (r *totalsRefresh) Trigger() {
	r.d.Trigger()
}

// Flush delivers a pending refresh now. It reports whether one was pending.
func (r *totalsRefresh) Flush() bool {
	return r.d.Flush()
}

// Stop cancels pending refreshes and releases any Wait in flight.
func (r *totalsRefresh) Stop() {
	r.d.Stop()
	r.once.Do(func() { close(r.done) })
}

// Wait blocks until the next debounced signal. After Stop it yields no message.
func (r *totalsRefresh) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-r.ch:
			return refreshTotalsMsg{}
		case <-r.done:
			return nil
		}
	}
}

// Package metrics exposes service activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

const namespace = "finance_dashboard"

// Recorder implements budget.Recorder.
type Recorder struct {
	gatherer prometheus.Gatherer

	loads       *prometheus.CounterVec
	saves       prometheus.Counter
	rowChanges  *prometheus.CounterVec
	lastSavedAt prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_loads_total",
			Help:      "Document loads by outcome.",
		}, []string{"outcome"}),
		saves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_total",
			Help:      "Successful document saves.",
		}),
		rowChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_changes_total",
			Help:      "Row edits by section and operation.",
		}, []string{"section", "op"}),
		lastSavedAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "document_last_saved_timestamp_seconds",
			Help:      "Unix time of the last successful save.",
		}),
	}
}

func (r *Recorder) DocumentLoaded(outcome budget.Outcome) {
	r.loads.WithLabelValues(outcome.String()).Inc()
}

func (r *Recorder) DocumentSaved() {
	r.saves.Inc()
	r.lastSavedAt.SetToCurrentTime()
}

func (r *Recorder) RowChanged(section budget.Section, op string) {
	r.rowChanges.WithLabelValues(string(section), op).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

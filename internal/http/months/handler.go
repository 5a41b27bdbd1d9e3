package months

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

type Handler struct {
	svc      *budget.Service
	classify func(text string) (quickadd.Entry, error)
}

func NewHandler(svc *budget.Service, classifier *quickadd.Classifier) *Handler {
	return &Handler{svc: svc, classify: classifier.Classify}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{month}", h.get)
	r.Get("/{month}/totals", h.totals)
	r.Get("/{month}/insights", h.insights)
	r.Get("/{month}/today", h.today)
	r.Post("/{month}/quick-add", h.quickAdd)

	r.Route("/{month}/sections/{section}/rows", func(r chi.Router) {
		r.Get("/", h.listRows)
		r.Post("/", h.appendRow)
		r.Patch("/{row}", h.setField)
		r.Delete("/{row}", h.deleteRow)
	})
}

// month resolves the {month} parameter; "current" is the service clock's month.
func (h *Handler) month(r *http.Request) string {
	m := chi.URLParam(r, "month")
	if m == "current" {
		return h.svc.CurrentMonth()
	}

	return m
}

func section(r *http.Request) (budget.Section, error) {
	return budget.ParseSection(chi.URLParam(r, "section"))
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, budget.ErrInvalidMonth),
		errors.Is(err, budget.ErrUnknownSection),
		errors.Is(err, budget.ErrUnknownField),
		errors.Is(err, quickadd.ErrNoAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, budget.ErrSectionFull):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON encodes v before sending the status so an encoding failure is a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	month := h.month(r)

	rec, err := h.svc.Month(r.Context(), month)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMonthResponse(month, rec))
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	month := h.month(r)

	totals, err := h.svc.Totals(r.Context(), month)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, totalsResponse{Month: month, Totals: totals})
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	ins, err := h.svc.Insights(r.Context(), h.month(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ins)
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	today, err := h.svc.TodayBudget(r.Context(), h.month(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, today)
}

func (h *Handler) listRows(w http.ResponseWriter, r *http.Request) {
	sec, err := section(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.svc.Rows(r.Context(), h.month(r), sec)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRowResponseList(rows))
}

type appendRowRequest struct {
	Name   *string `json:"name,omitempty"`
	Day    string  `json:"day"`
	Actual string  `json:"actual"`
	Budget string  `json:"budget"`
}

func (h *Handler) appendRow(w http.ResponseWriter, r *http.Request) {
	sec, err := section(r)
	if err != nil {
		writeError(w, err)
		return
	}

	row := budget.NewRow(sec)

	// An empty body appends the section's default row.
	var req appendRowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		row = budget.LineItem{Name: *req.Name, Day: req.Day, Actual: req.Actual, Budget: req.Budget}
	}

	id, totals, err := h.svc.AppendRow(r.Context(), h.month(r), sec, row)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appendResponse{ID: id, Totals: totals})
}

type setFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) setField(w http.ResponseWriter, r *http.Request) {
	sec, err := section(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return
	}

	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	field, err := budget.ParseField(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}

	month := h.month(r)

	totals, err := h.svc.SetField(r.Context(), month, sec, id, field, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, totalsResponse{Month: month, Totals: totals})
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request) {
	sec, err := section(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row id", http.StatusBadRequest)
		return
	}

	if _, err := h.svc.DeleteRow(r.Context(), h.month(r), sec, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type quickAddRequest struct {
	Text string `json:"text"`
}

func (h *Handler) quickAdd(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.classify(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	row := entry.Row()

	id, totals, err := h.svc.AppendRow(r.Context(), h.month(r), entry.Section, row)
	if err != nil {
		writeError(w, err)
		return
	}

	row.ID = id

	writeJSON(w, http.StatusCreated, quickAddResponse{
		ID:      id,
		Section: entry.Section,
		Field:   entry.Field,
		Row:     toRowResponse(row),
		Totals:  totals,
	})
}

package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/export"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
	r.Get("/summary", h.summary)
}

// filter reads the optional from/to month bounds.
func filter(r *http.Request) (export.Filter, error) {
	f := export.Filter{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}

	for _, m := range []string{f.From, f.To} {
		if m == "" {
			continue
		}

		if _, err := budget.ParseMonth(m, time.Time{}); err != nil {
			return export.Filter{}, err
		}
	}

	return f, nil
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.svc.Files(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"finance-dashboard_%s.zip\"", now.Format("20060102")))

	if err := export.WriteZip(w, files, now); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.svc.Summarize(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(summary)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

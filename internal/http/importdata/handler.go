package importdata

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/importer"
)

// maxUpload bounds the multipart form held in memory.
const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
	budgetSvc *budget.Service
}

func NewHandler(importSvc *importer.Service, budgetSvc *budget.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		budgetSvc: budgetSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
}

// upload takes a multipart "file" and an optional "format" (backup or sheet).
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := importer.Format(r.FormValue("format"))

	res, err := h.importSvc.Parse(format, header.Filename, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sum, err := h.importSvc.Apply(r.Context(), h.budgetSvc, res)
	if err != nil {
		slog.Error("import failed", "file", header.Filename, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(sum); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

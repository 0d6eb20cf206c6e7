package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/export"
	"github.com/erazemk/popis/internal/imaging"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

// ChromebooksHandler handles the chromebook catalogue and its labels.
type ChromebooksHandler struct {
	DB     *sql.DB
	Prefix string
}

type createChromebookRequest struct {
	Code            string `json:"chromebook_id"`
	Model           string `json:"model"`
	Manufacturer    string `json:"manufacturer"`
	SerialNumber    string `json:"serial_number"`
	PatrimonyNumber string `json:"patrimony_number"`
	Location        string `json:"location"`
	Condition       string `json:"condition"`
	Status          string `json:"status"`
}

// List handles GET /api/chromebooks.
func (h *ChromebooksHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidChromebookStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	chromebooks, err := store.ListChromebooks(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list chromebooks", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list chromebooks")
		return
	}
	if chromebooks == nil {
		chromebooks = []model.Chromebook{}
	}
	jsonResponse(w, http.StatusOK, chromebooks)
}

// Create handles POST /api/chromebooks.
func (h *ChromebooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChromebookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := audit.Normalize(req.Code, h.Prefix)
	if code == "" {
		jsonError(w, http.StatusBadRequest, "chromebook_id required")
		return
	}
	if req.Status != "" && !model.ValidChromebookStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	c, err := store.CreateChromebook(r.Context(), h.DB, model.Chromebook{
		Code:            code,
		Model:           strings.TrimSpace(req.Model),
		Manufacturer:    strings.TrimSpace(req.Manufacturer),
		SerialNumber:    strings.TrimSpace(req.SerialNumber),
		PatrimonyNumber: strings.TrimSpace(req.PatrimonyNumber),
		Location:        strings.TrimSpace(req.Location),
		Condition:       strings.TrimSpace(req.Condition),
		Status:          req.Status,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			jsonError(w, http.StatusConflict, fmt.Sprintf("chromebook %s already exists", code))
			return
		}
		slog.Error("failed to create chromebook", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create chromebook")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("chromebook created", "user", claims.Username, "code", c.Code)
	jsonResponse(w, http.StatusCreated, c)
}

type placementRequest struct {
	Location  *string `json:"location"`
	Condition *string `json:"condition"`
}

// Get handles GET /api/chromebooks/{id}.
func (h *ChromebooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// UpdatePlacement handles PUT /api/chromebooks/{id}/placement. It brings the
// catalogue in line with where an audit actually found a device. Omitted
// fields keep their current value.
func (h *ChromebooksHandler) UpdatePlacement(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req placementRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location == nil && req.Condition == nil {
		jsonError(w, http.StatusBadRequest, "location or condition required")
		return
	}

	location, condition := c.Location, c.Condition
	if req.Location != nil {
		location = strings.TrimSpace(*req.Location)
	}
	if req.Condition != nil {
		condition = strings.TrimSpace(*req.Condition)
	}

	if err := store.UpdateChromebookPlacement(r.Context(), h.DB, c.ID, location, condition); err != nil {
		slog.Error("failed to update chromebook placement", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update chromebook")
		return
	}

	updated, err := store.GetChromebook(r.Context(), h.DB, c.ID)
	if err != nil || updated == nil {
		slog.Error("failed to reload chromebook", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update chromebook")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("chromebook placement updated", "user", claims.Username, "code", c.Code,
		"location", updated.Location, "condition", updated.Condition)
	jsonResponse(w, http.StatusOK, updated)
}

// Label handles GET /api/chromebooks/{id}/label.png.
func (h *ChromebooksHandler) Label(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	data, err := imaging.Label(c.Code, size)
	if err != nil {
		slog.Error("failed to render label", "code", c.Code, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render label")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(data)
}

// LabelSheet handles GET /api/chromebooks/labels.pdf.
func (h *ChromebooksHandler) LabelSheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !model.ValidChromebookStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	chromebooks, err := store.ListChromebooks(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list chromebooks", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list chromebooks")
		return
	}
	if location := q.Get("location"); location != "" {
		filtered := chromebooks[:0]
		for _, c := range chromebooks {
			if c.Location == location {
				filtered = append(filtered, c)
			}
		}
		chromebooks = filtered
	}

	data, err := export.LabelSheetPDF(chromebooks, export.DefaultLabelLayout)
	if err != nil {
		slog.Error("failed to render label sheet", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render label sheet")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="labels.pdf"`)
	w.Write(data)
}

func (h *ChromebooksHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Chromebook, bool) {
	id := r.PathValue("id")
	c, err := store.GetChromebook(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get chromebook", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get chromebook")
		return nil, false
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "chromebook not found")
		return nil, false
	}
	return c, true
}

package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/export"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

// AuditsHandler handles audit sessions, counting and reports.
type AuditsHandler struct {
	DB       *sql.DB
	Location *time.Location
	engines  *engineRegistry
}

type startAuditRequest struct {
	Name string `json:"name"`
}

type activeAuditResponse struct {
	Audit  *model.AuditSession `json:"audit"`
	Report audit.Report        `json:"report"`
}

type countRequest struct {
	Token      string `json:"token"`
	ScanMethod string `json:"scan_method"`
	Location   string `json:"location"`
	Condition  string `json:"condition"`
}

type locationRequest struct {
	Location string `json:"location"`
}

type conditionRequest struct {
	Condition string `json:"condition"`
}

// List handles GET /api/audits.
func (h *AuditsHandler) List(w http.ResponseWriter, r *http.Request) {
	audits, err := store.ListAudits(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list audits", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list audits")
		return
	}
	if audits == nil {
		audits = []model.AuditSession{}
	}
	jsonResponse(w, http.StatusOK, audits)
}

// Start handles POST /api/audits. An audit already in progress for the
// caller is returned with 200 instead of starting a second one.
func (h *AuditsHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req startAuditRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, resumed, err := h.engines.start(r.Context(), req.Name, claims.UserID)
	if err != nil {
		auditError(w, "start", err)
		return
	}

	session := e.Session()
	if resumed {
		jsonResponse(w, http.StatusOK, session)
		return
	}
	slog.Info("audit started", "user", claims.Username, "audit", session.ID, "name", session.Name,
		"expected", len(e.Inventory()))
	jsonResponse(w, http.StatusCreated, session)
}

// Active handles GET /api/audits/active.
func (h *AuditsHandler) Active(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	// A count in flight keeps the current snapshot.
	if err := e.Refresh(r.Context()); err != nil && !errors.Is(err, audit.ErrBusy) {
		auditError(w, "refresh inventory", err)
		return
	}
	report, err := e.Report()
	if err != nil {
		auditError(w, "report", err)
		return
	}
	jsonResponse(w, http.StatusOK, activeAuditResponse{Audit: e.Session(), Report: report})
}

// Get handles GET /api/audits/{id}.
func (h *AuditsHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := store.GetAudit(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get audit", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get audit")
		return
	}
	if a == nil {
		jsonError(w, http.StatusNotFound, "audit not found")
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Delete handles DELETE /api/audits/{id}. An audit open in an engine is
// deleted through it so the engine is disposed too.
func (h *AuditsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var err error
	if e := h.engines.lookupBySession(id); e != nil {
		err = e.Delete(r.Context())
		h.engines.evict()
	} else {
		err = audit.Delete(r.Context(), &store.Repo{DB: h.DB}, id)
	}
	if err != nil {
		auditError(w, "delete", err)
		return
	}

	slog.Info("audit deleted", "user", claims.Username, "audit", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "audit deleted"})
}

// Count handles POST /api/audits/active/items.
func (h *AuditsHandler) Count(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req countRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := e.Count(r.Context(), audit.CountRequest{
		Token:     req.Token,
		Method:    req.ScanMethod,
		CountedBy: claims.UserID,
		Location:  req.Location,
		Condition: req.Condition,
	})
	if err != nil {
		auditError(w, "count", err)
		return
	}

	slog.Info("item counted", "user", claims.Username, "audit", item.AuditID, "code", item.Code,
		"method", item.ScanMethod, "counted", len(e.Items()))
	jsonResponse(w, http.StatusCreated, item)
}

// Items handles GET /api/audits/active/items. Query parameters location,
// method, search, from and to narrow the list; from and to are RFC 3339.
func (h *AuditsHandler) Items(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	c := audit.Criteria{
		Location:   q.Get("location"),
		ScanMethod: q.Get("method"),
		Search:     q.Get("search"),
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &c.From}, {"to", &c.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: expected RFC 3339 time", p.name))
			return
		}
		*p.dst = t
	}

	items, err := e.Filter(c)
	if err != nil {
		auditError(w, "filter", err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// RemoveItem handles DELETE /api/audits/active/items/{id}.
func (h *AuditsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := e.Remove(r.Context(), id); err != nil {
		auditError(w, "remove", err)
		return
	}

	slog.Info("counted item removed", "user", claims.Username, "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item removed"})
}

// UpdateLocation handles PUT /api/audits/active/items/{id}/location.
func (h *AuditsHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := e.UpdateLocation(r.Context(), r.PathValue("id"), req.Location)
	if err != nil {
		auditError(w, "update location", err)
		return
	}

	slog.Info("counted item location corrected", "user", claims.Username, "code", item.Code,
		"expected", item.Expected.Location, "found", item.LocationFound)
	jsonResponse(w, http.StatusOK, item)
}

// UpdateCondition handles PUT /api/audits/active/items/{id}/condition.
func (h *AuditsHandler) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req conditionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := e.UpdateCondition(r.Context(), r.PathValue("id"), req.Condition)
	if err != nil {
		auditError(w, "update condition", err)
		return
	}

	slog.Info("counted item condition corrected", "user", claims.Username, "code", item.Code,
		"expected", item.Expected.Condition, "found", item.ConditionFound)
	jsonResponse(w, http.StatusOK, item)
}

// Complete handles POST /api/audits/active/complete.
func (h *AuditsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	report, err := e.Complete(r.Context())
	if err != nil {
		auditError(w, "complete", err)
		return
	}
	h.engines.evict()

	slog.Info("audit completed", "user", claims.Username, "audit", report.Audit.ID,
		"counted", report.Summary.TotalCounted, "expected", report.Summary.TotalExpected,
		"missing", len(report.Discrepancies.Missing))
	jsonResponse(w, http.StatusOK, report)
}

// Report handles GET /api/audits/{id}/report.
func (h *AuditsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, _, ok := h.report(w, r, false)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// ReportCSV handles GET /api/audits/{id}/report.csv.
func (h *AuditsHandler) ReportCSV(w http.ResponseWriter, r *http.Request) {
	report, items, ok := h.report(w, r, true)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReportCSV(&buf, report, items, h.Location); err != nil {
		slog.Error("failed to render report csv", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(report.Audit, "csv"))
	w.Write(buf.Bytes())
}

// ReportPDF handles GET /api/audits/{id}/report.pdf.
func (h *AuditsHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	report, items, ok := h.report(w, r, true)
	if !ok {
		return
	}

	data, err := export.ReportPDF(report, items, h.Location)
	if err != nil {
		slog.Error("failed to render report pdf", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(report.Audit, "pdf"))
	w.Write(data)
}

// engine resolves the caller's active audit engine, writing the error
// response itself when there is none.
func (h *AuditsHandler) engine(w http.ResponseWriter, r *http.Request) (*audit.Engine, bool) {
	claims := GetClaims(r.Context())
	e, err := h.engines.active(r.Context(), claims.UserID)
	if err != nil {
		auditError(w, "load active audit", err)
		return nil, false
	}
	return e, true
}

func (h *AuditsHandler) report(w http.ResponseWriter, r *http.Request, withItems bool) (audit.Report, []model.CountedItem, bool) {
	id := r.PathValue("id")
	repo := &store.Repo{DB: h.DB}

	report, err := audit.ReportFor(r.Context(), repo, id, h.Location, time.Now())
	if err != nil {
		auditError(w, "report", err)
		return audit.Report{}, nil, false
	}
	if !withItems {
		return report, nil, true
	}

	items, err := repo.ListAuditItems(r.Context(), id)
	if err != nil {
		slog.Error("failed to list audit items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list audit items")
		return audit.Report{}, nil, false
	}
	return report, items, true
}

// attachment builds a Content-Disposition value named after the audit.
func attachment(a model.AuditSession, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, a.Name)
	if name == "" {
		name = "audit"
	}
	return fmt.Sprintf(`attachment; filename="%s-%s.%s"`, name, a.StartedAt.Format("2006-01-02"), ext)
}

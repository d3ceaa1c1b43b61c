package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/cache"
	"github.com/quitanda/lossprev/internal/ingestion"
	"github.com/quitanda/lossprev/internal/reconcile"
	"github.com/quitanda/lossprev/internal/report"
	"github.com/quitanda/lossprev/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	eventRepo  *repository.LossEventRepo
	reasonRepo *repository.IgnoredReasonRepo
	ingestSvc  *ingestion.Service
	reportSvc  *report.Service
	reconSvc   *reconcile.Service
	cache      *cache.FileCache
	log        *logrus.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithField("err", err).Error("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func tenantOrDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

// --- ImportFile ---

func (h *Handlers) ImportFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	batch := ingestion.Batch{
		Tenant:        tenantOrDefault(r.FormValue("tenant")),
		Lote:          r.FormValue("lote"),
		PeriodoInicio: parseDate(r.FormValue("periodo_inicio")),
		PeriodoFim:    parseDate(r.FormValue("periodo_fim")),
	}

	summary, err := h.ingestSvc.ImportFile(data, batch)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// --- LossReport ---

func (h *Handlers) LossReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := parseDate(q.Get("from"))
	to := parseDate(q.Get("to"))
	if from.IsZero() || to.IsZero() {
		h.writeError(w, http.StatusBadRequest, "from and to are required (YYYY-MM-DD)")
		return
	}

	filter := report.Filter{
		Tenant:  tenantOrDefault(q.Get("tenant")),
		From:    from,
		To:      to.Add(24*time.Hour - time.Second),
		Motivo:  q.Get("motivo"),
		Produto: q.Get("produto"),
		Tipo:    q.Get("tipo"),
		Page:    parseIntDefault(q.Get("page"), 1),
		Limit:   parseIntDefault(q.Get("limit"), report.DefaultPageSize),
	}

	rpt, err := h.reportSvc.Aggregate(filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, rpt)
}

// --- Lots ---

func (h *Handlers) ListLots(w http.ResponseWriter, r *http.Request) {
	tenant := tenantOrDefault(r.URL.Query().Get("tenant"))

	lots, err := h.eventRepo.ListLots(tenant)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"lotes": lots,
		"total": len(lots),
	})
}

func (h *Handlers) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lote := chi.URLParam(r, "lote")
	if lote == "" {
		h.writeError(w, http.StatusBadRequest, "lote is required")
		return
	}
	tenant := tenantOrDefault(r.URL.Query().Get("tenant"))

	deleted, err := h.eventRepo.DeleteLot(tenant, lote)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deleted == 0 {
		h.writeError(w, http.StatusNotFound, "lote not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"lote":     lote,
		"removidos": deleted,
	})
}

// --- Ignored reasons ---

type toggleRequest struct {
	Tenant string `json:"tenant"`
	Motivo string `json:"motivo"`
}

func (h *Handlers) ToggleReason(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Motivo == "" {
		h.writeError(w, http.StatusBadRequest, "motivo is required")
		return
	}

	ignorado, err := h.reasonRepo.Toggle(tenantOrDefault(req.Tenant), req.Motivo)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"motivo":   req.Motivo,
		"ignorado": ignorado,
	})
}

func (h *Handlers) ListIgnoredReasons(w http.ResponseWriter, r *http.Request) {
	tenant := tenantOrDefault(r.URL.Query().Get("tenant"))

	reasons, err := h.reasonRepo.ListIgnored(tenant)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"motivos": reasons,
		"total":   len(reasons),
	})
}

// --- MonthlyLosses ---

func (h *Handlers) MonthlyLosses(w http.ResponseWriter, r *http.Request) {
	idx := h.reconSvc.MonthlyLosses(r.Context())
	h.writeJSON(w, http.StatusOK, idx)
}

// --- ClearCache ---

func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")

	var err error
	if key != "" {
		err = h.cache.Clear(key)
	} else {
		err = h.cache.ClearAll()
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

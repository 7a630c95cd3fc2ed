// Package httpapi serves the cached patients listing over HTTP, proxies
// record writes to the record API, and exposes cache state and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	cache "github.com/krisalay/paginated-query-cache/api"
	"github.com/krisalay/paginated-query-cache/recordapi"
)

// PatientWriter is the write side of the record API.
type PatientWriter interface {
	CreatePatient(ctx context.Context, p recordapi.Patient) (recordapi.Patient, error)
	UpdatePatient(ctx context.Context, id int, p recordapi.Patient) (recordapi.Patient, error)
	DeletePatient(ctx context.Context, id int) error
}

type Handler struct {
	cache    cache.Cache
	records  PatientWriter
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

func NewHandler(c cache.Cache, records PatientWriter, gatherer prometheus.Gatherer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{cache: c, records: records, gatherer: gatherer, log: log}
}

// Router builds the chi router for all endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.listPatients)
		r.Post("/", h.createPatient)
		r.Put("/{id}", h.updatePatient)
		r.Delete("/{id}", h.deletePatient)
	})

	r.Get("/cache", h.cacheState)
	r.Delete("/cache", h.invalidateCache)

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.cache.FetchWithCache(r.Context(), q)
	if err != nil {
		h.log.Warn("list patients failed", zap.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var p recordapi.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.records.CreatePatient(r.Context(), p)
	if err != nil {
		h.log.Warn("create patient failed", zap.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var p recordapi.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.records.UpdatePatient(r.Context(), id, p)
	if err != nil {
		h.log.Warn("update patient failed", zap.Int("id", id), zap.Error(err))
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.records.DeletePatient(r.Context(), id); err != nil {
		h.log.Warn("delete patient failed", zap.Int("id", id), zap.Error(err))
		writeUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cacheState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"size": h.cache.CurrentSize()})
}

func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	h.cache.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := chi.URLParam(r, "id")
	id, err := strconv.Atoi(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeUpstreamError passes a record API status through and maps anything
// else (timeouts, refused connections) to 502.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var se *recordapi.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		writeError(w, se.Code, err)
		return
	}
	writeError(w, http.StatusBadGateway, err)
}

package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/domain"
	"github.com/openmkt/extdex/internal/domain/search/query"
	healthuc "github.com/openmkt/extdex/internal/usecase/health"
	searchuc "github.com/openmkt/extdex/internal/usecase/search"
)

// errorCode identifies an error category in API responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeInvalidQuery      errorCode = "invalid_query"
	codeNotFound          errorCode = "not_found"
	codeSearchUnavailable errorCode = "search_unavailable"
	codeInternal          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchResponse struct {
	Offset       int     `json:"offset"`
	TotalSize    int64   `json:"totalSize"`
	ExtensionIDs []int64 `json:"extensionIds"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrExtensionNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
	}
	return s
}

// Register mounts all API routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.SearchExtensions)
		r.Route("/internal/extensions/{id}", func(r chi.Router) {
			r.Post("/changed", s.ExtensionChanged)
			r.Post("/removed", s.ExtensionRemoved)
		})
		r.Post("/admin/search/rebuild", s.RebuildIndex)
	})
}

// SearchExtensions handles GET /api/v1/search.
func (s *Server) SearchExtensions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	size, err := intParam(params, "size", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "size must be an integer")
		return
	}
	offset, err := intParam(params, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "offset must be an integer")
		return
	}
	includeAllVersions, err := boolParam(params, "includeAllVersions")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "includeAllVersions must be a boolean")
		return
	}

	opts, err := query.New(
		params.Get("query"),
		params.Get("category"),
		size,
		offset,
		params.Get("sortOrder"),
		params.Get("sortBy"),
		includeAllVersions,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), opts, query.PageOf(opts))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ids := page.IDs()
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Offset:       opts.Offset(),
		TotalSize:    page.Total(),
		ExtensionIDs: ids,
	})
}

// ExtensionChanged handles POST /api/v1/internal/extensions/{id}/changed.
// The registry calls it after publishing, reviewing or any other change
// that affects how an extension ranks.
func (s *Server) ExtensionChanged(w http.ResponseWriter, r *http.Request) {
	id, ok := s.extensionID(w, r)
	if !ok {
		return
	}
	if err := s.search.ExtensionChanged(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtensionRemoved handles POST /api/v1/internal/extensions/{id}/removed.
func (s *Server) ExtensionRemoved(w http.ResponseWriter, r *http.Request) {
	id, ok := s.extensionID(w, r)
	if !ok {
		return
	}
	if err := s.search.ExtensionRemoved(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RebuildIndex handles POST /api/v1/admin/search/rebuild. With ?hard=true
// the index is dropped and recreated instead of overwritten in place.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	hard, err := boolParam(r.URL.Query(), "hard")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "hard must be a boolean")
		return
	}
	if err := s.search.Rebuild(r.Context(), hard); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) extensionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "extension id must be a positive integer")
		return 0, false
	}
	return id, true
}

// handleDomainError maps a domain error to an HTTP response.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func intParam(params url.Values, name string, def int) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func boolParam(params url.Values, name string) (bool, error) {
	raw := params.Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrExtensionNotFound,
		domain.ErrNotFound,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

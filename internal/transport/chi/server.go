// Package chi implements the HTTP API over the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
	domdoc "github.com/gutwell/ragcore/internal/domain/document"
	collectionuc "github.com/gutwell/ragcore/internal/usecase/collection"
	healthuc "github.com/gutwell/ragcore/internal/usecase/health"
	"github.com/gutwell/ragcore/internal/usecase/ingest"
	"github.com/gutwell/ragcore/internal/usecase/retrieve"
)

const maxIngestBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the retrieval API.
type Server struct {
	collections   *collectionuc.Service
	ingester      *ingest.Service
	retriever     *retrieve.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	ingester *ingest.Service,
	retriever *retrieve.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections: collections,
		ingester:    ingester,
		retriever:   retriever,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrInvalidCollection, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeInvalidDocument),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeModelUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
	}
	return s
}

// Routes mounts all API routes on a fresh router. Middleware (auth,
// logging, metrics, recoverer) is attached by the caller.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/collections", func(r chi.Router) {
		r.Post("/", s.CreateCollection)
		r.Get("/", s.ListCollections)

		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", s.GetCollection)
			r.Delete("/", s.DeleteCollection)
			r.Get("/stats", s.CollectionStats)
			r.Post("/clear", s.ClearCollection)
			r.Post("/documents", s.IngestDocuments)
			r.Post("/rebuild", s.RebuildCollection)
			r.Post("/query", s.Query)
		})
	})
}

// CreateCollection handles POST /api/v1/collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Collection name is required")
		return
	}

	col, err := s.collections.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, collectionToResponse(col))
}

// ListCollections handles GET /api/v1/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionResponse, len(cols))
	for i, c := range cols {
		items[i] = collectionToResponse(c)
	}

	writeJSON(w, http.StatusOK, collectionListResponse{Items: items, Total: len(items)})
}

// GetCollection handles GET /api/v1/collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.collections.Get(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, collectionToResponse(col))
}

// DeleteCollection handles DELETE /api/v1/collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), chi.URLParam(r, "collection")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CollectionStats handles GET /api/v1/collections/{collection}/stats.
func (s *Server) CollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.collections.Stats(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalChunks:  stats.TotalChunks,
		Sources:      stats.Sources,
		ContentTypes: stats.ContentTypes,
	})
}

// ClearCollection handles POST /api/v1/collections/{collection}/clear.
func (s *Server) ClearCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Clear(r.Context(), chi.URLParam(r, "collection")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IngestDocuments handles POST /api/v1/collections/{collection}/documents.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.decodeDocuments(w, r)
	if !ok {
		return
	}

	report, err := s.ingester.IngestBatch(r.Context(), chi.URLParam(r, "collection"), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// RebuildCollection handles POST /api/v1/collections/{collection}/rebuild.
// Drops all indexed chunks and re-ingests the supplied documents.
func (s *Server) RebuildCollection(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.decodeDocuments(w, r)
	if !ok {
		return
	}

	report, err := s.ingester.Rebuild(r.Context(), chi.URLParam(r, "collection"), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

func (s *Server) decodeDocuments(w http.ResponseWriter, r *http.Request) ([]domdoc.Document, bool) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}

	if len(req.Documents) == 0 || len(req.Documents) > maxIngestBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxIngestBatchSize))
		return nil, false
	}

	docs := make([]domdoc.Document, 0, len(req.Documents))
	for _, p := range req.Documents {
		doc, err := p.toDocument()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDocument, err.Error())
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}

// Query handles POST /api/v1/collections/{collection}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Query text is required")
		return
	}

	answer, err := s.retriever.Query(r.Context(), chi.URLParam(r, "collection"), req.Query, retrieve.Params{
		MaxChunks:          req.MaxChunks,
		MinRelevance:       req.MinRelevance,
		DiversityThreshold: req.DiversityThreshold,
		MaxContextChars:    req.MaxContextChars,
		Source:             req.Source,
		ContentType:        req.ContentType,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]resultItem, len(answer.Results))
	for i, res := range answer.Results {
		items[i] = resultToItem(res)
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Context: answer.Context,
		Results: items,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string)
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidCollection,
		domain.ErrInvalidDocument,
		domain.ErrDimensionMismatch,
		domain.ErrModelUnavailable,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

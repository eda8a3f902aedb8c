// Package chi hosts the HTTP API over the chunk store.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/petra-io/petra/internal/engine"
	"github.com/petra-io/petra/internal/health"
	"github.com/petra-io/petra/internal/index"
	"github.com/petra-io/petra/internal/store"
)

// Error response codes.
const (
	codeBadRequest    = "bad_request"
	codeMissingQuery  = "missing_query"
	codeEngineError   = "engine_error"
	codeInternalError = "internal_error"
)

// Server wires the store services into HTTP handlers.
type Server struct {
	store          *store.Service
	index          *index.Service
	health         *health.Service
	logger         *zap.Logger
	maxImportBatch int
}

// NewServer creates an HTTP API server.
func NewServer(st *store.Service, idx *index.Service, hc *health.Service, logger *zap.Logger) *Server {
	return &Server{
		store:          st,
		index:          idx,
		health:         hc,
		logger:         logger,
		maxImportBatch: 200,
	}
}

// WithMaxImportBatch limits how many chunks one import request may carry.
func (s *Server) WithMaxImportBatch(n int) *Server {
	if n > 0 {
		s.maxImportBatch = n
	}
	return s
}

// Routes mounts all handlers on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/store", s.SearchChunks)
	r.Post("/store", s.ImportChunks)
	r.Delete("/store", s.DeleteChunks)
	r.Get("/store/count", s.CountChunks)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// --- Request and response shapes ---

type searchRequest struct {
	Query        engine.Mapping `json:"query,omitempty"`
	PostFilter   engine.Mapping `json:"post_filter,omitempty"`
	Aggregations engine.Mapping `json:"aggregations,omitempty"`
	Parameters   engine.Mapping `json:"parameters,omitempty"`
}

func (r searchRequest) toEngine() *engine.SearchRequest {
	return &engine.SearchRequest{
		Query:        r.Query,
		PostFilter:   r.PostFilter,
		Aggregations: r.Aggregations,
		Parameters:   r.Parameters,
	}
}

type searchResponse struct {
	Took         int                        `json:"took"`
	TimedOut     bool                       `json:"timed_out"`
	Total        int64                      `json:"total"`
	Hits         []hitResponse              `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
}

type hitResponse struct {
	ID     string          `json:"id"`
	Source json.RawMessage `json:"source"`
}

type importRequest struct {
	Chunks []chunkRequest `json:"chunks"`
}

type chunkRequest struct {
	ID       string          `json:"id"`
	Geometry json.RawMessage `json:"geometry"`
	Tags     []string        `json:"tags,omitempty"`
	Path     string          `json:"path"`
	Start    int64           `json:"start"`
	End      int64           `json:"end"`
}

type importResponse struct {
	ImportID string       `json:"import_id"`
	Indexed  int          `json:"indexed"`
	Failed   []failedItem `json:"failed,omitempty"`
}

type failedItem struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Handlers ---

// SearchChunks handles GET /store.
func (s *Server) SearchChunks(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.store.Search(r.Context(), req.toEngine())
	if err != nil {
		s.handleEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchToResponse(result))
}

// CountChunks handles GET /store/count.
func (s *Server) CountChunks(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	n, err := s.store.Count(r.Context(), req.Query)
	if err != nil {
		s.handleEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// ImportChunks handles POST /store.
func (s *Server) ImportChunks(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Chunks) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "no chunks given")
		return
	}
	if len(req.Chunks) > s.maxImportBatch {
		writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "too many chunks in one import")
		return
	}

	chunks := make([]index.Chunk, len(req.Chunks))
	for i, c := range req.Chunks {
		chunks[i] = index.Chunk{
			ID:       c.ID,
			Geometry: c.Geometry,
			Tags:     c.Tags,
			Path:     c.Path,
			Start:    c.Start,
			End:      c.End,
		}
	}

	importID, result, err := s.index.Add(r.Context(), chunks)
	if err != nil {
		s.handleEngineError(w, err)
		return
	}

	resp := importResponse{ImportID: importID, Indexed: len(chunks)}
	for _, it := range result.Items {
		if it.HasError() {
			resp.Indexed--
			resp.Failed = append(resp.Failed, failedItem{
				ID:     it.ID,
				Type:   it.Error.Type,
				Reason: it.Error.Reason,
			})
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// DeleteChunks handles DELETE /store.
func (s *Server) DeleteChunks(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	deleted, err := s.store.DeleteByQuery(r.Context(), req.toEngine())
	if err != nil {
		s.handleEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

// decodeBody parses an optional JSON body into v. An empty body is allowed.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
	return false
}

func searchToResponse(result *engine.SearchResult) searchResponse {
	resp := searchResponse{
		Took:         result.Took,
		TimedOut:     result.TimedOut,
		Total:        result.Total,
		Hits:         make([]hitResponse, len(result.Hits)),
		Aggregations: result.Aggregations,
	}
	for i, h := range result.Hits {
		resp.Hits[i] = hitResponse{ID: h.ID, Source: h.Source}
	}
	return resp
}

func (s *Server) handleEngineError(w http.ResponseWriter, err error) {
	s.logger.Warn("engine error", zap.Error(err))

	if errors.Is(err, engine.ErrMissingPredicate) {
		writeError(w, http.StatusBadRequest, codeMissingQuery, "at least one of query and post_filter is required")
		return
	}

	var engErr *engine.EngineError
	if errors.As(err, &engErr) {
		status := http.StatusBadGateway
		if engErr.Status >= 400 && engErr.Status < 500 {
			status = http.StatusBadRequest
		}
		writeError(w, status, codeEngineError, engErr.Type+": "+engErr.Reason)
		return
	}

	var transErr *engine.TransportError
	if errors.As(err, &transErr) {
		writeError(w, http.StatusBadGateway, codeEngineError, "engine unreachable")
		return
	}

	var scrollErr *engine.ScrollExpiredError
	if errors.As(err, &scrollErr) {
		writeError(w, http.StatusGone, codeEngineError, "scroll cursor expired")
		return
	}

	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

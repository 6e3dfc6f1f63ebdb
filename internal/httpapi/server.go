// Package httpapi exposes the workflow service over HTTP.
//
// Routes:
//
//	POST /graph/create             register a definition, returns {"graph_id"}
//	POST /graph/run                run a graph synchronously
//	GET  /graph/state/{run_id}     stored run record
//	GET  /graph/state/{run_id}/steps  per-node state history
//	GET  /graph/list               registered graphs
//	GET  /healthz                  liveness
//	GET  /metrics                  Prometheus exposition, when enabled
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dshills/graphflow/graph"
	"github.com/dshills/graphflow/graph/store"
	"github.com/dshills/graphflow/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error codes used by the API on top of the engine's codes.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeGraphNotFound = "GRAPH_NOT_FOUND"
	CodeRunNotFound   = "RUN_NOT_FOUND"
	CodeInternal      = "INTERNAL"
)

// Options configures optional routes.
type Options struct {
	// Gatherer backs the metrics route; nil disables it.
	Gatherer prometheus.Gatherer
	// MetricsPath defaults to /metrics.
	MetricsPath string
}

// Server routes HTTP requests to a service.Service.
type Server struct {
	svc    *service.Service
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New builds the router.
func New(svc *service.Service, logger zerolog.Logger, opts Options) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /graph/create", s.handleCreate)
	s.mux.HandleFunc("POST /graph/run", s.handleRun)
	s.mux.HandleFunc("GET /graph/state/{run_id}", s.handleState)
	s.mux.HandleFunc("GET /graph/state/{run_id}/steps", s.handleSteps)
	s.mux.HandleFunc("GET /graph/list", s.handleList)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

// Handler returns the router wrapped in recovery and access logging.
func (s *Server) Handler() http.Handler {
	return accessLog(s.logger, recoverer(s.logger, s.mux))
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateResponse is returned by POST /graph/create.
type CreateResponse struct {
	GraphID string `json:"graph_id"`
}

// RunRequest is the body of POST /graph/run.
type RunRequest struct {
	GraphID      string         `json:"graph_id"`
	InitialState map[string]any `json:"initial_state"`
}

// RunResponse is returned by POST /graph/run. Error is set only when the
// run failed.
type RunResponse struct {
	RunID      string         `json:"run_id"`
	FinalState map[string]any `json:"final_state"`
	Log        []string       `json:"log"`
	Status     graph.Status   `json:"status"`
	Error      *ErrorDetail   `json:"error,omitempty"`
}

// ListResponse is returned by GET /graph/list.
type ListResponse struct {
	Graphs []service.GraphInfo `json:"graphs"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	def, err := graph.ParseDefinition(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, graph.CodeInvalidDefinition, err.Error())
		return
	}
	id, err := s.svc.CreateGraph(def)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateResponse{GraphID: id})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid run request: "+err.Error())
		return
	}
	if req.GraphID == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "graph_id is required")
		return
	}

	rs, err := s.svc.Run(r.Context(), req.GraphID, req.InitialState)
	if rs == nil {
		s.writeServiceError(w, err)
		return
	}

	resp := RunResponse{
		RunID:      rs.RunID,
		FinalState: rs.State,
		Log:        rs.Log,
		Status:     rs.Status,
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
		resp.Error = &ErrorDetail{Code: graph.ErrorCode(err), Message: err.Error()}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	rs, err := s.svc.GetRun(r.Context(), r.PathValue("run_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.svc.GetSteps(r.Context(), r.PathValue("run_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if steps == nil {
		steps = []store.StepRecord{}
	}
	writeJSON(w, http.StatusOK, steps)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ListResponse{Graphs: s.svc.ListGraphs()})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGraphNotFound):
		writeError(w, http.StatusNotFound, CodeGraphNotFound, err.Error())
	case errors.Is(err, service.ErrRunNotFound):
		writeError(w, http.StatusNotFound, CodeRunNotFound, err.Error())
	case errors.Is(err, graph.ErrInvalidDefinition):
		writeError(w, http.StatusBadRequest, graph.CodeInvalidDefinition, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/foundation/kinematic/value"
	"github.com/msto63/kinematics/internal/evaluator/service"
	"github.com/msto63/kinematics/internal/evaluator/store"
	"github.com/msto63/kinematics/pkg/core/health"
	"github.com/msto63/kinematics/pkg/core/logging"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

// EvaluateRequest is the JSON body of POST /v1/evaluate. Either Program
// (one entry per line) or Source (newline separated) must be set.
type EvaluateRequest struct {
	Program   []string               `json:"program,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Variables map[string]interface{} `json:"variables,omitempty"`
	Record    bool                   `json:"record,omitempty"`
}

// EvaluateResponse is the JSON result of an evaluation
type EvaluateResponse struct {
	RunID      string                 `json:"run_id"`
	Variables  map[string]value.Value `json:"variables"`
	DurationMS float64                `json:"duration_ms"`
	Cached     bool                   `json:"cached"`
}

// RunsResponse is the JSON result of GET /v1/runs
type RunsResponse struct {
	Runs  []*store.Run `json:"runs"`
	Total int          `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// toServiceRequest validates and converts the JSON request
func (r *EvaluateRequest) toServiceRequest() (*service.Request, error) {
	lines := r.Program
	if len(lines) == 0 && r.Source != "" {
		lines = kinematic.SplitLines(r.Source)
	}
	vars, err := bindings.Normalize(r.Variables)
	if err != nil {
		return nil, err
	}
	return &service.Request{Program: lines, Variables: vars, Record: r.Record}, nil
}

func newEvaluateResponse(resp *service.Response) EvaluateResponse {
	return EvaluateResponse{
		RunID:      resp.RunID,
		Variables:  resp.Variables,
		DurationMS: float64(resp.Duration.Microseconds()) / 1000,
		Cached:     resp.Cached,
	}
}

// Handler serves the HTTP API
type Handler struct {
	service *service.Service
	health  *health.Registry
	logger  *logging.Logger
	mux     *http.ServeMux
}

// NewHandler creates the HTTP handler with all routes registered
func NewHandler(svc *service.Service, registry *health.Registry) *Handler {
	h := &Handler{
		service: svc,
		health:  registry,
		logger:  logging.New("evaluator-http"),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/evaluate", h.handleEvaluate)
	h.mux.HandleFunc("GET /v1/runs", h.handleRuns)
	h.mux.HandleFunc("GET /v1/runs/{id}", h.handleRun)
	h.mux.HandleFunc("GET /v1/stats", h.handleStats)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.Handle("GET /v1/ws", NewWebSocketHandler(svc))

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, mdwerror.Wrap(err, "invalid request body").WithCode(mdwerror.CodeInvalidInput))
		return
	}

	svcReq, err := req.toServiceRequest()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.service.Evaluate(r.Context(), svcReq)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newEvaluateResponse(resp))
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		ProgramHash: q.Get("program"),
		ErrorsOnly:  q.Get("errors") == "true",
		Limit:       50,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, mdwerror.Newf("invalid limit %q", v).WithCode(mdwerror.CodeInvalidInput))
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, mdwerror.Newf("invalid offset %q", v).WithCode(mdwerror.CodeInvalidInput))
			return
		}
		filter.Offset = n
	}
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			h.writeError(w, mdwerror.Newf("invalid since %q", v).WithCode(mdwerror.CodeInvalidInput))
			return
		}
		filter.Since = time.Now().Add(-d)
	}

	runs, err := h.service.ListRuns(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}

	h.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Stats(r.Context()))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.CheckWithTimeout(5 * time.Second)

	statusCode := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeJSON(w, statusCode, report)
}

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  code.String(),
	}
	var coded *mdwerror.Error
	if errors.As(err, &coded) && len(coded.Details()) > 0 {
		resp.Details = coded.Details()
	}
	h.logger.LogError(err)
	h.writeJSON(w, code.HTTPStatus(), resp)
}

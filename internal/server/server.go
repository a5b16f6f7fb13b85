// Package server exposes the sample-preparation solvers over HTTP as JSON
// endpoints, with Prometheus metrics on /metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/alexshd/xrayprep"
	"github.com/alexshd/xrayprep/internal/plan"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls the HTTP API.
type Config struct {
	// Defaults applied to requests that carry no overrides.
	Thresholds  xrayprep.SuitabilityThresholds
	Feasibility xrayprep.FeasibilityConfig

	// Workers for /v1/assess (0 = GOMAXPROCS).
	Workers int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// HistoryCapacity bounds the undo trail built by /v1/gas.
	HistoryCapacity int
}

// DefaultConfig returns the library defaults and a 1 MiB body limit.
func DefaultConfig() Config {
	return Config{
		Thresholds:      xrayprep.DefaultSuitabilityThresholds(),
		Feasibility:     xrayprep.DefaultFeasibilityConfig(),
		MaxBodyBytes:    1 << 20,
		HistoryCapacity: 100,
	}
}

// Server holds the handler dependencies.
type Server struct {
	cfg     Config
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *Metrics
}

// New creates a server whose metrics are registered on reg and served from
// it.
func New(cfg Config, log *slog.Logger, reg *prometheus.Registry) *Server {
	return &Server{cfg: cfg, log: log, reg: reg, metrics: NewMetrics(reg)}
}

// NewHandler is New(cfg, log, reg).Handler().
func NewHandler(cfg Config, log *slog.Logger, reg *prometheus.Registry) http.Handler {
	return New(cfg, log, reg).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(instrument(s.metrics, s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(s.cfg.MaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/mix", s.handleMix)
		r.Post("/target", s.handleTarget)
		r.Post("/feasible", s.handleFeasible)
		r.Post("/assess", s.handleAssess)
		r.Post("/gas", s.handleGas)
	})
	return r
}

// MixRequest is the body of POST /v1/mix.
type MixRequest struct {
	SampleEdgeStep  float64 `json:"sample_edge_step"`
	DiluentEdgeStep float64 `json:"diluent_edge_step"`
	TotalMass       float64 `json:"total_mass"`
	Area            float64 `json:"area"`
	TargetEdgeStep  float64 `json:"target_edge_step"`
}

// MixResponse reports a solved mixture.
type MixResponse struct {
	SampleMass        float64 `json:"sample_mass"`
	DiluentMass       float64 `json:"diluent_mass"`
	SampleFractionPct float64 `json:"sample_fraction_pct"`
	AchievedEdgeStep  float64 `json:"achieved_edge_step"`
	Physical          bool    `json:"physical"`
}

func mixResponse(r xrayprep.MixResult) MixResponse {
	return MixResponse{
		SampleMass:        r.SampleMass,
		DiluentMass:       r.DiluentMass,
		SampleFractionPct: r.SampleFractionPct,
		AchievedEdgeStep:  r.AchievedEdgeStep,
		Physical:          r.Physical(),
	}
}

func (s *Server) handleMix(w http.ResponseWriter, r *http.Request) {
	var req MixRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := xrayprep.SolveMix(xrayprep.MixInputs(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mixResponse(res))
}

// TargetRequest is the body of POST /v1/target.
type TargetRequest struct {
	Sample           plan.Coefficients `json:"sample"`
	Diluent          plan.Coefficients `json:"diluent"`
	TotalMass        float64           `json:"total_mass"`
	Area             float64           `json:"area"`
	TargetAbsorption float64           `json:"target_absorption"`
}

// TargetResponse reports the suggested edge step and its mixture.
type TargetResponse struct {
	EdgeStep          float64     `json:"edge_step"`
	Mix               MixResponse `json:"mix"`
	AbsorptionBelow   float64     `json:"absorption_below"`
	AbsorptionAbove   float64     `json:"absorption_above"`
	TransmissionBelow float64     `json:"transmission_below"`
	TransmissionAbove float64     `json:"transmission_above"`
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := xrayprep.SuggestTargetEdgeStep(xrayprep.TargetAbsorptionInput{
		Sample:           xrayprep.Attenuation(req.Sample),
		Diluent:          xrayprep.Attenuation(req.Diluent),
		TotalMass:        req.TotalMass,
		Area:             req.Area,
		TargetAbsorption: req.TargetAbsorption,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TargetResponse{
		EdgeStep:          p.EdgeStep,
		Mix:               mixResponse(p.Mix),
		AbsorptionBelow:   p.Metrics.AbsorptionBelow,
		AbsorptionAbove:   p.Metrics.AbsorptionAbove,
		TransmissionBelow: p.Metrics.TransmissionBelow,
		TransmissionAbove: p.Metrics.TransmissionAbove,
	})
}

// FeasibleRequest is the body of POST /v1/feasible.
type FeasibleRequest struct {
	Min       float64            `json:"min"`
	Max       float64            `json:"max"`
	Evaluator plan.EvaluatorSpec `json:"evaluator"`
	Config    plan.Feasibility   `json:"config"`
}

// FeasibleResponse mirrors xrayprep.FeasibilityResult. Values that may be
// NaN are pointers and omitted when NaN.
type FeasibleResponse struct {
	Feasible          bool     `json:"feasible"`
	Value             *float64 `json:"value,omitempty"`
	AchievedValue     *float64 `json:"achieved_value,omitempty"`
	Iterations        int      `json:"iterations"`
	Converged         bool     `json:"converged"`
	Note              string   `json:"note,omitempty"`
	Reason            string   `json:"reason,omitempty"`
	BestValue         *float64 `json:"best_value,omitempty"`
	BestAchievedValue *float64 `json:"best_achieved_value,omitempty"`
}

func feasibleResponse(r xrayprep.FeasibilityResult) FeasibleResponse {
	out := FeasibleResponse{
		Feasible:   r.Feasible,
		Iterations: r.Iterations,
		Converged:  r.Converged,
		Note:       r.Note,
		Reason:     r.Reason,
	}
	if r.Feasible {
		out.Value = finite(r.Value)
		out.AchievedValue = finite(r.AchievedValue)
	} else {
		out.BestValue = finite(r.BestValue)
		out.BestAchievedValue = finite(r.BestAchievedValue)
	}
	return out
}

func (s *Server) handleFeasible(w http.ResponseWriter, r *http.Request) {
	var req FeasibleRequest
	if !s.decode(w, r, &req) {
		return
	}
	eval, err := plan.BuildEvaluator(req.Evaluator)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := xrayprep.SolveMaxFeasible(xrayprep.FeasibilityQuery{
		Min:               req.Min,
		Max:               req.Max,
		Evaluate:          eval,
		FeasibilityConfig: req.Config.Apply(s.cfg.Feasibility),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.Iterations.Observe(float64(res.Iterations))
	writeJSON(w, http.StatusOK, feasibleResponse(res))
}

// AssessRequest is the body of POST /v1/assess.
type AssessRequest struct {
	Candidates []plan.CandidateSpec `json:"candidates"`
	Thresholds plan.Thresholds      `json:"thresholds"`
}

// AssessmentResponse is one classified candidate.
type AssessmentResponse struct {
	Name            string       `json:"name"`
	Mix             *MixResponse `json:"mix,omitempty"`
	AbsorptionAbove *float64     `json:"absorption_above,omitempty"`
	Retained        *float64     `json:"retained,omitempty"`
	Transmission    string       `json:"transmission"`
	Fluorescence    string       `json:"fluorescence"`
	Summary         string       `json:"summary"`
	Suitable        bool         `json:"suitable"`
	Error           string       `json:"error,omitempty"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if !s.decode(w, r, &req) {
		return
	}
	p := plan.Plan{Candidates: req.Candidates}
	candidates, err := p.BuildCandidates()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	results, err := xrayprep.AssessCandidates(r.Context(), candidates, xrayprep.AssessConfig{
		Workers:    s.cfg.Workers,
		Thresholds: req.Thresholds.Apply(s.cfg.Thresholds),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]AssessmentResponse, len(results))
	for i, a := range results {
		out[i] = s.assessmentResponse(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": out})
}

func (s *Server) assessmentResponse(a xrayprep.Assessment) AssessmentResponse {
	out := AssessmentResponse{
		Name:         a.Candidate.Name,
		Transmission: a.Transmission.Label,
		Fluorescence: a.Fluorescence.Label,
		Summary:      a.Summary,
		Suitable:     a.Suitable(),
		Retained:     finite(a.Retained),
	}
	switch {
	case a.Err != nil:
		out.Error = a.Err.Error()
		s.metrics.Assessments.WithLabelValues("error").Inc()
	case a.Suitable():
		s.metrics.Assessments.WithLabelValues("suitable").Inc()
	default:
		s.metrics.Assessments.WithLabelValues("unsuitable").Inc()
	}
	if a.Err == nil {
		mix := mixResponse(a.Mix)
		out.Mix = &mix
		out.AbsorptionAbove = finite(a.Metrics.AbsorptionAbove)
	}
	return out
}

// GasResponse is the mixture after applying the edits, plus how many
// states the history holds.
type GasResponse struct {
	Mixture []plan.GasComponent `json:"mixture"`
	Sum     float64             `json:"sum"`
	History int                 `json:"history"`
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	var req plan.GasSpec
	if !s.decode(w, r, &req) {
		return
	}
	h := xrayprep.NewMixtureHistory(s.cfg.HistoryCapacity)
	m, err := req.Apply(h)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := GasResponse{Mixture: make([]plan.GasComponent, len(m)), Sum: m.Sum(), History: h.Len()}
	for i, e := range m {
		out.Mixture[i] = plan.GasComponent{Name: e.Name, Fraction: e.Fraction}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Warn("invalid request body", "route", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// fail maps solver errors onto status codes: malformed input is 400, a
// well-formed request with no physical answer is 422.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, xrayprep.ErrTargetUnreachable):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, xrayprep.ErrInvalidInput),
		errors.Is(err, xrayprep.ErrDegenerateSystem),
		errors.Is(err, xrayprep.ErrInvalidQuery),
		errors.Is(err, xrayprep.ErrNonFinite),
		errors.Is(err, plan.ErrInvalidPlan),
		errors.Is(err, plan.ErrUnknownEvaluator):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "route", r.URL.Path, "error", err)
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

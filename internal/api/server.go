package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hybridtest/adapters/sample"
	"hybridtest/adapters/stats/teststat"
	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal"
	"hybridtest/internal/config"
	"hybridtest/internal/errors"
	"hybridtest/internal/hybrid"
	"hybridtest/ports"
)

// Server exposes the hybrid calculator over HTTP for counting experiments.
// Finished results are kept in memory, keyed by run id.
type Server struct {
	cfg    *config.Config
	logger *internal.Logger

	mu      sync.RWMutex
	results map[string]*hypotest.HypothesisTestResult
	order   []string
}

// NewServer creates an API server
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:     cfg,
		logger:  internal.DefaultLogger.WithPrefix("api"),
		results: map[string]*hypotest.HypothesisTestResult{},
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/hypotest", s.handleRunTest)
	r.Get("/api/results", s.handleListResults)
	r.Get("/api/results/{id}", s.handleGetResult)
	r.Get("/api/health", s.handleHealth)
	return r
}

// ListenAndServe starts the server on the configured port
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

// runTestRequest describes a counting experiment test: an observed count, an
// auxiliary control count constraining the background, and a signal
// hypothesis.
type runTestRequest struct {
	Name          string  `json:"name"`
	ObservedCount float64 `json:"observed_count"`
	AuxCount      float64 `json:"aux_count"`
	Tau           float64 `json:"tau"`
	Signal        float64 `json:"signal"`
	NullToys      int     `json:"null_toys"`
	AltToys       int     `json:"alt_toys"`
	Seed          uint64  `json:"seed"`
	Statistic     string  `json:"statistic"`
}

func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	var req runTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.InvalidInput("malformed request body: "+err.Error()))
		return
	}
	result, err := s.runTest(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	id := string(result.RunID)
	s.results[id] = result
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) runTest(ctx context.Context, req runTestRequest) (*hypotest.HypothesisTestResult, error) {
	null, alt, err := buildCountingModel(req)
	if err != nil {
		return nil, err
	}
	stat, err := buildStatistic(req.Statistic, null, alt)
	if err != nil {
		return nil, err
	}

	nullToys := req.NullToys
	if nullToys <= 0 {
		nullToys = s.cfg.Toys.NullToys
	}
	altToys := req.AltToys
	if altToys <= 0 {
		altToys = s.cfg.Toys.AltToys
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Toys.Seed
	}
	name := req.Name
	if name == "" {
		name = "counting"
	}

	prior := sample.PosteriorFromAuxCount("b", req.AuxCount, req.Tau)
	calc := hybrid.NewCalculator(observedDataset(req), alt, null, stat, sample.NewDensitySampler(), sample.NewRNGAdapter()).
		SetName(name).
		SetToys(nullToys, altToys).
		SetWorkers(s.cfg.Toys.Workers).
		SetSeed(seed).
		SetMinSuccessFraction(s.cfg.Toys.MinSuccessFraction).
		KeepDistributions(false).
		ForcePriorNuisanceNull(prior).
		ForcePriorNuisanceAlt(prior)

	return calc.Run(ctx)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]*hypotest.HypothesisTestResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.results[id])
	}
	s.mu.RUnlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	result, ok := s.results[id]
	s.mu.RUnlock()
	if !ok {
		s.writeError(w, errors.NotFound("result "+id))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeExcessiveFailureRate:
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("request failed: %s: %v", code, err)
	s.writeJSON(w, status, map[string]string{"error": err.Error(), "code": code})
}

// buildCountingModel assembles the on/off counting model for one request
func buildCountingModel(req runTestRequest) (hypotest.ModelConfig, hypotest.ModelConfig, error) {
	var none hypotest.ModelConfig
	if req.ObservedCount < 0 || req.AuxCount < 0 || req.Tau <= 0 || req.Signal <= 0 {
		return none, none, errors.InvalidInput("observed_count and aux_count must be non-negative, tau and signal positive")
	}
	b := model.NewBuilder()
	sMax := 2 * req.Signal
	bInit := req.AuxCount / req.Tau
	if bInit <= 0 {
		bInit = 1
	}
	sRef := b.Param("s", req.Signal, 0, sMax)
	bRef := b.Param("b", bInit, bInit/100, bInit*3+10)
	obsX := b.Observable("x", 0, (req.Signal+bInit)*5+50)
	px := b.Poisson("px", obsX, model.Sum(sRef, bRef))
	if err := b.Err(); err != nil {
		return none, none, err
	}

	base := b.ParamSet()
	poi := model.Param{Name: "s", Value: req.Signal, Min: 0, Max: sMax}
	null := hypotest.ModelConfig{
		Name:        "null",
		PDF:         px,
		Observables: []model.Observable{obsX},
		POI:         poi,
		Snapshot:    base.With("s", 0),
	}
	alt := hypotest.ModelConfig{
		Name:        "alt",
		PDF:         px,
		Observables: []model.Observable{obsX},
		POI:         poi,
		Snapshot:    base,
	}
	return null, alt, nil
}

// buildStatistic selects the request's ordering rule
func buildStatistic(name string, null, alt hypotest.ModelConfig) (ports.TestStatistic, error) {
	switch name {
	case "", "bin_count":
		return teststat.NewBinCount("x"), nil
	case "simple_likelihood_ratio":
		return teststat.NewSimpleLikelihoodRatio(null, alt)
	default:
		return nil, errors.NotFound("test statistic " + name)
	}
}

func observedDataset(req runTestRequest) *model.Dataset {
	data := model.NewDataset("x")
	_ = data.Append(req.ObservedCount)
	return data
}

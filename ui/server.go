// Package ui exposes the analysis pipeline and the evaluator over a small
// JSON API.
package ui

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"oppsight/app"
	"oppsight/domain/core"
	"oppsight/internal/simkit"
	"oppsight/ports"
)

// Server is the HTTP application.
type Server struct {
	router   *chi.Mux
	history  ports.BattleHistory
	analysis *app.AnalysisService
	evalCfg  simkit.EvalConfig
	addr     string

	mu       sync.Mutex
	lastEval *simkit.Evaluation
}

// Config holds HTTP server configuration.
type Config struct {
	Addr string
	// DefaultMinTurns filters opponent listings when the query omits one.
	DefaultMinTurns int
	// Eval overrides the standing evaluator configuration.
	Eval *simkit.EvalConfig
}

// NewServer wires the router. The history may be nil, in which case the
// opponent endpoints answer 503 and only simulation endpoints work.
func NewServer(cfg Config, history ports.BattleHistory, analysis *app.AnalysisService) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		history:  history,
		analysis: analysis,
		evalCfg:  simkit.DefaultEvalConfig(),
		addr:     cfg.Addr,
	}
	if cfg.Eval != nil {
		s.evalCfg = *cfg.Eval
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/opponents", s.handleListOpponents)
	s.router.Get("/api/opponents/{id}/analysis", s.handleOpponentAnalysis)
	s.router.Get("/api/analysis", s.handleAllAnalyses)
	s.router.Get("/api/simulation/metrics", s.handleSimulationMetrics)
	s.router.Post("/api/simulation/run", s.handleSimulationRun)

	return s
}

// Start blocks serving HTTP.
func (s *Server) Start() error {
	log.Printf("Starting oppsight API server on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListOpponents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "no battle history configured")
		return
	}
	minTurns := 1
	if raw := r.URL.Query().Get("min_turns"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "min_turns must be a positive integer")
			return
		}
		minTurns = n
	}

	ids, err := s.history.ListOpponents(r.Context(), minTurns)
	if err != nil {
		log.Printf("list opponents: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list opponents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"opponents": ids, "min_turns": minTurns})
}

func (s *Server) handleOpponentAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "no battle history configured")
		return
	}
	id, err := core.ParseOpponentID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid opponent id")
		return
	}

	seq, err := s.history.SequenceFor(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, "opponent not found")
			return
		}
		log.Printf("sequence for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load battle history")
		return
	}

	report, err := s.analysis.AnalyzeSequence(seq)
	if err != nil {
		log.Printf("analyze %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAllAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "no battle history configured")
		return
	}
	minTurns := 1
	if raw := r.URL.Query().Get("min_turns"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			minTurns = n
		}
	}

	reports, err := s.analysis.AnalyzeAll(r.Context(), s.history, minTurns)
	if err != nil {
		log.Printf("analyze all: %v", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// handleSimulationMetrics serves the most recent evaluation, running one
// with the standing config on first request. The run is seeded, so the
// cached result is the result.
func (s *Server) handleSimulationMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cached := s.lastEval
	s.mu.Unlock()
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	eval, err := simkit.NewEvaluator(s.evalCfg).Run(r.Context())
	if err != nil {
		log.Printf("simulation metrics: %v", err)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	s.mu.Lock()
	s.lastEval = eval
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, eval)
}

// simulationRequest is the caller-tunable slice of the evaluator config.
type simulationRequest struct {
	Trials        int     `json:"trials"`
	TurnsPerTrial int     `json:"turns_per_trial"`
	Noise         float64 `json:"noise"`
	Seed          int64   `json:"seed"`
	Compare       bool    `json:"compare"` // also run the baseline mode
}

func (s *Server) handleSimulationRun(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	cfg := s.evalCfg
	if req.Trials > 0 {
		cfg.Trials = req.Trials
	}
	if req.TurnsPerTrial > 0 {
		cfg.TurnsPerTrial = req.TurnsPerTrial
	}
	if req.Noise > 0 {
		cfg.Noise = req.Noise
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}

	if req.Compare {
		cmp, err := simkit.CompareModes(r.Context(), cfg)
		if err != nil {
			log.Printf("simulation compare: %v", err)
			writeError(w, http.StatusInternalServerError, "simulation failed")
			return
		}
		writeJSON(w, http.StatusOK, cmp)
		return
	}

	eval, err := simkit.NewEvaluator(cfg).Run(r.Context())
	if err != nil {
		log.Printf("simulation run: %v", err)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	s.mu.Lock()
	s.lastEval = eval
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, eval)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

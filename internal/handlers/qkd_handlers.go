package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Jaipikun/QKD-Simulation/internal/models/qkd"
	qkdcore "github.com/Jaipikun/QKD-Simulation/internal/qkd"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/sweep"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Options configures a QKDHandler
type Options struct {
	// Oracle serves single rounds. It must be safe for concurrent use.
	Oracle quantum.RandomBitOracle
	// Oracles serves sweeps, one oracle per grid point
	Oracles        sweep.OracleFactory
	MaxKeyLength   int
	SweepMaxRounds int
	SweepWorkers   int
}

// QKDHandler manages QKD-related HTTP requests
type QKDHandler struct {
	store *qkdcore.RoundStore
	opts  Options
	log   zerolog.Logger
}

// NewQKDHandler creates a new QKD handler backed by store
func NewQKDHandler(store *qkdcore.RoundStore, opts Options, log zerolog.Logger) *QKDHandler {
	return &QKDHandler{
		store: store,
		opts:  opts,
		log:   log.With().Str("module", "qkd_handlers").Logger(),
	}
}

// RegisterRoutes registers all QKD routes
func (h *QKDHandler) RegisterRoutes(r chi.Router) {
	r.Route("/qkd", func(r chi.Router) {
		r.Get("/health", h.HealthCheckHandler)

		r.Route("/rounds", func(r chi.Router) {
			r.Post("/", h.SimulateRoundHandler)
			r.Get("/", h.ListRoundsHandler)
			r.Get("/{id}", h.GetRoundHandler)
			r.Delete("/{id}", h.DeleteRoundHandler)
		})

		r.Post("/sweeps", h.RunSweepHandler)
	})
}

// RoundResponse is a stored round together with its full result
type RoundResponse struct {
	Round  qkd.RoundSummary     `json:"round"`
	Result *qkdcore.RoundResult `json:"result"`
}

// RoundListResponse lists stored rounds without key material
type RoundListResponse struct {
	Rounds []qkd.RoundSummary `json:"rounds"`
	Count  int                `json:"count"`
}

// SweepResponse carries the aggregated points of a sweep
type SweepResponse struct {
	Experiment sweep.Experiment `json:"experiment"`
	Rounds     int              `json:"rounds"`
	Points     []sweep.Point    `json:"points"`
}

// SimulateRoundHandler handles POST /api/v1/qkd/rounds
// Runs one BB84 round and stores its result
func (h *QKDHandler) SimulateRoundHandler(w http.ResponseWriter, r *http.Request) {
	var req qkd.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(h.opts.MaxKeyLength); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	oracle := h.opts.Oracle
	if req.Seed != nil {
		oracle = quantum.NewPseudoOracle(*req.Seed)
	}

	sim, err := qkdcore.NewSimulation(oracle,
		partyConfig(req.Sender), partyConfig(req.Receiver), partyConfig(req.Eavesdropper),
		qkdcore.WithLogger(h.log))
	if err != nil {
		h.respondWithSimulationError(w, err)
		return
	}

	result, err := sim.Simulate(req.KeyLength, qkdcore.Tactic(req.Tactic))
	if err != nil {
		h.respondWithSimulationError(w, err)
		return
	}

	round := h.store.Save(result)
	h.log.Info().
		Str("round_id", round.ID.String()).
		Int("key_length", req.KeyLength).
		Bool("eavesdropper", result.Eavesdropped()).
		Float64("error_rate", result.ErrorRate).
		Msg("Round simulated")

	respondWithJSON(w, http.StatusCreated, RoundResponse{
		Round:  round.Summary(),
		Result: result,
	})
}

// ListRoundsHandler handles GET /api/v1/qkd/rounds
func (h *QKDHandler) ListRoundsHandler(w http.ResponseWriter, r *http.Request) {
	rounds := h.store.List()

	summaries := make([]qkd.RoundSummary, 0, len(rounds))
	for _, round := range rounds {
		summaries = append(summaries, round.Summary())
	}

	respondWithJSON(w, http.StatusOK, RoundListResponse{
		Rounds: summaries,
		Count:  len(summaries),
	})
}

// GetRoundHandler handles GET /api/v1/qkd/rounds/{id}
func (h *QKDHandler) GetRoundHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	round, err := h.store.Get(roundID)
	if err != nil {
		respondWithError(w, lookupStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, RoundResponse{
		Round:  round.Summary(),
		Result: round.Result,
	})
}

// DeleteRoundHandler handles DELETE /api/v1/qkd/rounds/{id}
func (h *QKDHandler) DeleteRoundHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid round ID")
		return
	}

	if err := h.store.Delete(roundID); err != nil {
		respondWithError(w, lookupStatus(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Round deleted successfully",
	})
}

// RunSweepHandler handles POST /api/v1/qkd/sweeps
// Runs a bounded parameter sweep synchronously
func (h *QKDHandler) RunSweepHandler(w http.ResponseWriter, r *http.Request) {
	var req qkd.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(h.opts.MaxKeyLength, h.opts.SweepMaxRounds); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	experiment, err := sweep.ParseExperiment(req.Experiment)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	grid := sweep.Grid{
		KeyLengths:    req.KeyLengths,
		Efficiencies:  req.Efficiencies,
		Eavesdropping: []bool{false, true},
		Iterations:    req.Iterations,
	}
	for _, t := range req.Tactics {
		grid.Tactics = append(grid.Tactics, qkdcore.Tactic(t))
	}

	oracles := h.opts.Oracles
	if req.Seed != nil {
		oracles = sweep.SeededPseudoOracles(*req.Seed)
	}

	runner := sweep.NewRunner(h.opts.SweepWorkers, oracles, h.log)
	points, err := runner.Run(r.Context(), experiment, grid)
	if err != nil {
		h.respondWithSimulationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SweepResponse{
		Experiment: experiment,
		Rounds:     grid.Rounds(experiment),
		Points:     points,
	})
}

// HealthCheckHandler handles GET /api/v1/qkd/health
// Returns health status of the QKD service
func (h *QKDHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":        "healthy",
		"service":       "Quantum Key Distribution",
		"version":       "1.0.0",
		"stored_rounds": len(h.store.List()),
	}

	// Sweeps are CPU bound, so report what the host has left
	if cores, err := cpu.Counts(true); err == nil {
		health["cpu_cores"] = cores
	} else {
		h.log.Warn().Err(err).Msg("Failed to count CPU cores")
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		health["memory_used_percent"] = memStat.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	respondWithJSON(w, http.StatusOK, health)
}

func partyConfig(p qkd.PartyRequest) qkdcore.PartyConfig {
	return qkdcore.PartyConfig{
		EmitterEfficiency:  p.EmitterEfficiency,
		DetectorEfficiency: p.DetectorEfficiency,
		Present:            p.Exists,
	}
}

func lookupStatus(err error) int {
	switch {
	case errors.Is(err, qkd.ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, qkd.ErrRoundExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (h *QKDHandler) respondWithSimulationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qkdcore.ErrConfiguration):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quantum.ErrOracleFailure):
		h.log.Error().Err(err).Msg("Random bit oracle failed")
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Simulation failed")
		respondWithError(w, http.StatusInternalServerError, "Simulation failed")
	}
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

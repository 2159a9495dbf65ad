package qkd

import (
	"time"

	"github.com/google/uuid"
)

// Experiment names understood by the sweep endpoint
const (
	ExperimentDetector = "detector"
	ExperimentEmitter  = "emitter"
	ExperimentSystem   = "system"
	ExperimentTactic   = "tactic"
)

// PartyRequest carries one party's device settings. Omitted fields stay nil
// so the simulation can report exactly which required setting is missing.
type PartyRequest struct {
	EmitterEfficiency  *float64 `json:"emitter_efficiency,omitempty"`
	DetectorEfficiency *float64 `json:"detector_efficiency,omitempty"`
	Exists             *bool    `json:"exists,omitempty"`
}

// SimulateRequest represents a request to run one BB84 round
type SimulateRequest struct {
	KeyLength    int          `json:"key_length"`
	Tactic       int          `json:"tactic"`
	Sender       PartyRequest `json:"sender"`
	Receiver     PartyRequest `json:"receiver"`
	Eavesdropper PartyRequest `json:"eavesdropper"`
	// Seed, when set, runs the round on a reproducible pseudo-random oracle
	Seed *uint64 `json:"seed,omitempty"`
}

// RoundSummary describes a stored round without its key material
type RoundSummary struct {
	RoundID        uuid.UUID `json:"round_id"`
	KeyLength      int       `json:"key_length"`
	Eavesdropped   bool      `json:"eavesdropped"`
	Tactic         *int      `json:"tactic,omitempty"`
	ErrorRate      float64   `json:"error_rate"`
	SiftedLength   int       `json:"sifted_length"`
	FinalKeyLength int       `json:"final_key_length"`
	FinalKeyDigest string    `json:"final_key_digest"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// SweepRequest represents a request to run a parameter sweep
type SweepRequest struct {
	Experiment   string    `json:"experiment"`
	KeyLengths   []int     `json:"key_lengths"`
	Efficiencies []float64 `json:"efficiencies"`
	Tactics      []int     `json:"tactics,omitempty"`
	Iterations   int       `json:"iterations"`
	// Seed, when set, runs the sweep on reproducible pseudo-random streams
	Seed *uint64 `json:"seed,omitempty"`
}

// Validate validates a simulate request against the server's key length limit
func (r *SimulateRequest) Validate(maxKeyLength int) error {
	if r.KeyLength < 1 || r.KeyLength > maxKeyLength {
		return ErrInvalidKeyLength
	}
	if r.Tactic < 0 || r.Tactic > 4 {
		return ErrInvalidTactic
	}
	return nil
}

// Validate validates a sweep request. The total number of rounds it would
// run must not exceed maxRounds.
func (r *SweepRequest) Validate(maxKeyLength, maxRounds int) error {
	switch r.Experiment {
	case ExperimentDetector, ExperimentEmitter, ExperimentSystem, ExperimentTactic:
	default:
		return ErrInvalidExperiment
	}
	if len(r.KeyLengths) == 0 {
		return ErrInvalidKeyLength
	}
	for _, l := range r.KeyLengths {
		if l < 1 || l > maxKeyLength {
			return ErrInvalidKeyLength
		}
	}
	if len(r.Efficiencies) == 0 {
		return ErrInvalidEfficiency
	}
	for _, e := range r.Efficiencies {
		if e < 0 || e > 100 {
			return ErrInvalidEfficiency
		}
	}
	for _, t := range r.Tactics {
		if t < 0 || t > 4 {
			return ErrInvalidTactic
		}
	}
	if r.Iterations < 1 {
		return ErrInvalidIterations
	}

	// Every experiment runs with and without an eavesdropper except the
	// tactic experiment, which runs each tactic plus one clean baseline.
	series := 2
	if r.Experiment == ExperimentTactic {
		series = len(r.Tactics) + 1
		if len(r.Tactics) == 0 {
			series = 6
		}
	}
	if len(r.KeyLengths)*len(r.Efficiencies)*series*r.Iterations > maxRounds {
		return ErrSweepTooLarge
	}
	return nil
}

// QKDError is a request or lookup error with a client-facing message
type QKDError struct {
	Message string
}

func (e *QKDError) Error() string {
	return e.Message
}

var (
	ErrInvalidKeyLength  = &QKDError{"key length out of range"}
	ErrInvalidTactic     = &QKDError{"tactic must be between 0 and 4"}
	ErrInvalidExperiment = &QKDError{"experiment must be one of detector, emitter, system, tactic"}
	ErrInvalidEfficiency = &QKDError{"efficiencies must be between 0 and 100"}
	ErrInvalidIterations = &QKDError{"iterations must be positive"}
	ErrSweepTooLarge     = &QKDError{"sweep exceeds the configured round limit"}
	ErrRoundNotFound     = &QKDError{"round not found"}
	ErrRoundExpired      = &QKDError{"round has expired"}
)

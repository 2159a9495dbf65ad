// Package sweep runs BB84 rounds over a grid of device efficiencies and
// aggregates error rates and usable key lengths per grid point.
package sweep

import (
	"fmt"
	"strings"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd"
)

// Experiment selects which device efficiency a sweep varies
type Experiment string

const (
	// ExperimentDetector varies the receiver's detector
	ExperimentDetector Experiment = "detector"
	// ExperimentEmitter varies the sender's emitter
	ExperimentEmitter Experiment = "emitter"
	// ExperimentSystem varies both the sender's emitter and the receiver's detector
	ExperimentSystem Experiment = "system"
	// ExperimentTactic varies both devices once per interceptor tactic, plus a
	// baseline without interceptor
	ExperimentTactic Experiment = "tactic"
)

// Experiments lists every experiment kind
func Experiments() []Experiment {
	return []Experiment{ExperimentDetector, ExperimentEmitter, ExperimentSystem, ExperimentTactic}
}

// ParseExperiment converts a name into an Experiment
func ParseExperiment(s string) (Experiment, error) {
	e := Experiment(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Experiments() {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown experiment %q", s)
}

// parties returns the sender and receiver configuration for one efficiency
func (e Experiment) parties(efficiency float64) (sender, receiver qkd.PartyConfig) {
	switch e {
	case ExperimentDetector:
		return qkd.SenderConfig(100), qkd.ReceiverConfig(efficiency)
	case ExperimentEmitter:
		return qkd.SenderConfig(efficiency), qkd.ReceiverConfig(100)
	default:
		return qkd.SenderConfig(efficiency), qkd.ReceiverConfig(efficiency)
	}
}

// Grid is the parameter space of a sweep
type Grid struct {
	KeyLengths   []int
	Efficiencies []float64
	// Eavesdropping lists the interceptor settings to run. Ignored by the
	// tactic experiment, which always runs every tactic and a clean baseline.
	Eavesdropping []bool
	// Tactics lists the interceptor tactics of the tactic experiment
	Tactics    []qkd.Tactic
	Iterations int
}

// DefaultGrid returns the stock parameter space for an experiment: three key
// lengths, efficiencies in steps of 5% (10% for tactics) and 200 rounds per
// point.
func DefaultGrid(e Experiment) Grid {
	step := 5.0
	if e == ExperimentTactic {
		step = 10
	}
	var efficiencies []float64
	for eff := 0.0; eff <= 100; eff += step {
		efficiencies = append(efficiencies, eff)
	}

	return Grid{
		KeyLengths:    []int{20, 15, 10},
		Efficiencies:  efficiencies,
		Eavesdropping: []bool{false, true},
		Tactics:       qkd.AllTactics(),
		Iterations:    200,
	}
}

// Validate checks the grid is non-empty and every value is in range
func (g Grid) Validate(e Experiment) error {
	if _, err := ParseExperiment(string(e)); err != nil {
		return err
	}
	if len(g.KeyLengths) == 0 {
		return fmt.Errorf("at least one key length is required")
	}
	for _, l := range g.KeyLengths {
		if l < 1 {
			return fmt.Errorf("key length must be positive, got %d", l)
		}
	}
	if len(g.Efficiencies) == 0 {
		return fmt.Errorf("at least one efficiency is required")
	}
	for _, eff := range g.Efficiencies {
		if eff < 0 || eff > 100 {
			return fmt.Errorf("efficiency must be within [0, 100], got %v", eff)
		}
	}
	if e == ExperimentTactic {
		for _, t := range g.Tactics {
			if !t.Valid() {
				return fmt.Errorf("unknown tactic %d", t)
			}
		}
	} else if len(g.Eavesdropping) == 0 {
		return fmt.Errorf("at least one eavesdropping setting is required")
	}
	if g.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", g.Iterations)
	}
	return nil
}

// series is one curve of an experiment: an interceptor setting and tactic
type series struct {
	eavesdropper bool
	tactic       qkd.Tactic
}

func (g Grid) series(e Experiment) []series {
	if e != ExperimentTactic {
		out := make([]series, 0, len(g.Eavesdropping))
		for _, eve := range g.Eavesdropping {
			out = append(out, series{eavesdropper: eve, tactic: qkd.TacticInterceptResend})
		}
		return out
	}

	tactics := g.Tactics
	if len(tactics) == 0 {
		tactics = qkd.AllTactics()
	}
	out := make([]series, 0, len(tactics)+1)
	for _, t := range tactics {
		out = append(out, series{eavesdropper: true, tactic: t})
	}
	return append(out, series{eavesdropper: false, tactic: qkd.TacticInterceptResend})
}

// Points returns the number of aggregated points the grid yields
func (g Grid) Points(e Experiment) int {
	return len(g.KeyLengths) * len(g.series(e)) * len(g.Efficiencies)
}

// Rounds returns the total number of rounds a sweep over the grid simulates
func (g Grid) Rounds(e Experiment) int {
	return g.Points(e) * g.Iterations
}

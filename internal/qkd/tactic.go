package qkd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
)

// Tactic identifies the interceptor's basis strategy
type Tactic int

const (
	// TacticInterceptResend measures in randomly drawn bases and re-emits in the same bases
	TacticInterceptResend Tactic = iota
	// TacticRandomResend draws independent random bases for measuring and for re-emitting
	TacticRandomResend
	// TacticRectilinear measures and re-emits every photon in the rectilinear basis
	TacticRectilinear
	// TacticDiagonal measures and re-emits every photon in the diagonal basis
	TacticDiagonal
	// TacticAlternating uses diagonal on even positions and rectilinear on odd ones
	TacticAlternating
)

var tacticNames = map[Tactic]string{
	TacticInterceptResend: "intercept-resend",
	TacticRandomResend:    "random-resend",
	TacticRectilinear:     "rectilinear",
	TacticDiagonal:        "diagonal",
	TacticAlternating:     "alternating",
}

// AllTactics lists every known tactic in id order
func AllTactics() []Tactic {
	return []Tactic{TacticInterceptResend, TacticRandomResend, TacticRectilinear, TacticDiagonal, TacticAlternating}
}

// Valid reports whether t is a known tactic id
func (t Tactic) Valid() bool {
	_, ok := tacticNames[t]
	return ok
}

// Effective returns the tactic actually played: unknown ids fall back to
// intercept-resend.
func (t Tactic) Effective() Tactic {
	if !t.Valid() {
		return TacticInterceptResend
	}
	return t
}

func (t Tactic) String() string {
	if name, ok := tacticNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tactic(%d)", int(t))
}

// ParseTactic accepts either a numeric id or a tactic name
func ParseTactic(s string) (Tactic, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if id, err := strconv.Atoi(s); err == nil {
		t := Tactic(id)
		if !t.Valid() {
			return 0, fmt.Errorf("unknown tactic id %d", id)
		}
		return t, nil
	}
	for t, name := range tacticNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tactic %q", s)
}

// BasisPolicy is how an interceptor picks its bases under a tactic
type BasisPolicy struct {
	Tactic Tactic
	// RedrawForResend discards the measurement bases before re-emitting
	RedrawForResend bool

	preset func(i int) quantum.Basis
}

// SelectTactic returns the basis policy for t. Unknown ids select
// intercept-resend.
func SelectTactic(t Tactic) BasisPolicy {
	t = t.Effective()
	policy := BasisPolicy{Tactic: t}
	switch t {
	case TacticRandomResend:
		policy.RedrawForResend = true
	case TacticRectilinear:
		policy.preset = func(int) quantum.Basis { return quantum.RectilinearBasis }
	case TacticDiagonal:
		policy.preset = func(int) quantum.Basis { return quantum.DiagonalBasis }
	case TacticAlternating:
		policy.preset = func(i int) quantum.Basis {
			if i%2 == 0 {
				return quantum.DiagonalBasis
			}
			return quantum.RectilinearBasis
		}
	}
	return policy
}

// MeasurementBases returns the fixed measurement bases for n photons, or nil
// when the interceptor draws them at random.
func (bp BasisPolicy) MeasurementBases(n int) quantum.Bases {
	if bp.preset == nil {
		return nil
	}
	bases := make(quantum.Bases, n)
	for i := range bases {
		bases[i] = bp.preset(i)
	}
	return bases
}

package qkd

import (
	"math"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
)

const (
	// malfunctionDrawBits is the width of the draw that decides a malfunction
	malfunctionDrawBits = 10
	// malfunctionOutcomes is the size of the outcome space of one draw
	malfunctionOutcomes = 1 << malfunctionDrawBits
	// malfunctionResolution is the number of representable probabilities,
	// i.e. steps of 0.1 percentage points
	malfunctionResolution = 1000
)

// MalfunctionWindow returns how many of the 1024 outcomes of a 10-bit draw
// count as a malfunction for the given chance in percent. The chance is first
// rounded to the nearest 0.1% and clamped to [0, 100]. Draws strictly below
// the window are malfunctions. The window is scaled to the 1024 outcomes
// instead of reserving round(chance*10) raw values, so 20% covers draws
// 0..203 and 100% always fails.
func MalfunctionWindow(chancePercent float64) int {
	if math.IsNaN(chancePercent) {
		return 0
	}
	tenths := int(math.Round(chancePercent * 10))
	tenths = max(0, min(tenths, malfunctionResolution))
	return tenths * malfunctionOutcomes / malfunctionResolution
}

// DeviceMalfunction decides whether a device with the given malfunction
// chance fails on this use. Certain outcomes (0% or 100%) consume no draw.
func DeviceMalfunction(oracle quantum.RandomBitOracle, chancePercent float64) (bool, error) {
	window := MalfunctionWindow(chancePercent)
	switch window {
	case 0:
		return false, nil
	case malfunctionOutcomes:
		return true, nil
	}

	draw, err := quantum.Draw(oracle, malfunctionDrawBits)
	if err != nil {
		return false, err
	}
	return int(draw) < window, nil
}

// injectFault applies a possible device malfunction to p. A malfunction
// corrupts exactly one property: a fair coin picks a value flip (1) or a
// basis switch (0).
func injectFault(oracle quantum.RandomBitOracle, p *quantum.Photon, efficiency float64) (bool, error) {
	broken, err := DeviceMalfunction(oracle, 100-efficiency)
	if err != nil || !broken {
		return false, err
	}

	coin, err := quantum.DrawBit(oracle)
	if err != nil {
		return false, err
	}
	if coin == quantum.One {
		p.FlipValue()
	} else {
		p.SwitchBasis()
	}
	return true, nil
}

package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner(workers int) *Runner {
	return NewRunner(workers, SeededPseudoOracles(2024), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestParseExperiment(t *testing.T) {
	for _, e := range Experiments() {
		got, err := ParseExperiment(" " + string(e) + " ")
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
	_, err := ParseExperiment("photon")
	assert.Error(t, err)
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid(ExperimentDetector)
	assert.Equal(t, []int{20, 15, 10}, g.KeyLengths)
	assert.Len(t, g.Efficiencies, 21)
	assert.Equal(t, 200, g.Iterations)
	assert.Equal(t, 3*2*21*200, g.Rounds(ExperimentDetector))

	tg := DefaultGrid(ExperimentTactic)
	assert.Len(t, tg.Efficiencies, 11)
	assert.Equal(t, 3*6*11, tg.Points(ExperimentTactic))
}

func TestGridValidate(t *testing.T) {
	valid := Grid{KeyLengths: []int{8}, Efficiencies: []float64{50}, Eavesdropping: []bool{false}, Iterations: 1}
	require.NoError(t, valid.Validate(ExperimentDetector))

	tests := []struct {
		name   string
		mutate func(g *Grid)
	}{
		{"No key lengths", func(g *Grid) { g.KeyLengths = nil }},
		{"Zero key length", func(g *Grid) { g.KeyLengths = []int{0} }},
		{"No efficiencies", func(g *Grid) { g.Efficiencies = nil }},
		{"Efficiency too high", func(g *Grid) { g.Efficiencies = []float64{101} }},
		{"No eavesdropping settings", func(g *Grid) { g.Eavesdropping = nil }},
		{"No iterations", func(g *Grid) { g.Iterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			assert.Error(t, g.Validate(ExperimentDetector))
		})
	}

	bad := valid
	bad.Tactics = []qkd.Tactic{9}
	assert.Error(t, bad.Validate(ExperimentTactic))
	assert.Error(t, valid.Validate(Experiment("bogus")))
}

func TestRunDetectorSweep(t *testing.T) {
	g := Grid{
		KeyLengths:    []int{16, 8},
		Efficiencies:  []float64{100, 50},
		Eavesdropping: []bool{false, true},
		Iterations:    20,
	}

	points, err := testRunner(3).Run(context.Background(), ExperimentDetector, g)
	require.NoError(t, err)
	require.Len(t, points, g.Points(ExperimentDetector))

	// ordered by key length, then series, then efficiency
	assert.Equal(t, 16, points[0].KeyLength)
	assert.Equal(t, 100.0, points[0].Efficiency)
	assert.False(t, points[0].Eavesdropper)
	assert.Equal(t, 50.0, points[1].Efficiency)
	assert.True(t, points[2].Eavesdropper)
	assert.Equal(t, 8, points[4].KeyLength)

	for _, p := range points {
		assert.Equal(t, ExperimentDetector, p.Experiment)
		assert.Equal(t, 20, p.Iterations)
		assert.GreaterOrEqual(t, p.MeanErrorRate, 0.0)
		assert.LessOrEqual(t, p.MeanErrorRate, 100.0)
		assert.LessOrEqual(t, p.MeanKeyLength, float64(p.KeyLength))
		if !p.Eavesdropper {
			assert.Zero(t, p.MeanEavesdropperMismatch)
		}
	}

	// perfect devices, no interceptor: every sifted bit agrees except in
	// rounds where nothing was sifted at all
	assert.Equal(t, 0.0, points[0].ModeErrorRate)
}

func TestRunTacticSweep(t *testing.T) {
	g := Grid{
		KeyLengths:   []int{12},
		Efficiencies: []float64{100},
		Tactics:      []qkd.Tactic{qkd.TacticRectilinear, qkd.TacticDiagonal},
		Iterations:   5,
	}

	points, err := testRunner(0).Run(context.Background(), ExperimentTactic, g)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, qkd.TacticRectilinear, points[0].Tactic)
	assert.True(t, points[0].Eavesdropper)
	assert.Equal(t, qkd.TacticDiagonal, points[1].Tactic)
	assert.False(t, points[2].Eavesdropper, "last series is the clean baseline")
}

func TestRunIsReproducible(t *testing.T) {
	g := Grid{KeyLengths: []int{10}, Efficiencies: []float64{0, 40, 80}, Eavesdropping: []bool{true}, Iterations: 10}

	a, err := testRunner(1).Run(context.Background(), ExperimentSystem, g)
	require.NoError(t, err)
	b, err := testRunner(4).Run(context.Background(), ExperimentSystem, g)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunPropagatesOracleFailure(t *testing.T) {
	boom := errors.New("offline")
	failing := func(int) (quantum.RandomBitOracle, error) {
		return quantum.OracleFunc(func(int) (uint64, error) { return 0, boom }), nil
	}
	r := NewRunner(2, failing, zerolog.New(nil).Level(zerolog.Disabled))

	g := Grid{KeyLengths: []int{4}, Efficiencies: []float64{100}, Eavesdropping: []bool{false}, Iterations: 1}
	points, err := r.Run(context.Background(), ExperimentEmitter, g)
	assert.ErrorIs(t, err, quantum.ErrOracleFailure)
	assert.Nil(t, points)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	_, err := testRunner(1).Run(context.Background(), ExperimentDetector, Grid{})
	assert.ErrorIs(t, err, qkd.ErrConfiguration)

	r := &Runner{}
	g := Grid{KeyLengths: []int{4}, Efficiencies: []float64{100}, Eavesdropping: []bool{false}, Iterations: 1}
	_, err = r.Run(context.Background(), ExperimentDetector, g)
	assert.ErrorIs(t, err, qkd.ErrConfiguration)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := Grid{KeyLengths: []int{4}, Efficiencies: []float64{100}, Eavesdropping: []bool{false}, Iterations: 3}
	_, err := testRunner(1).Run(ctx, ExperimentDetector, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMode(t *testing.T) {
	assert.Equal(t, 0.0, Mode(nil))
	assert.Equal(t, 3.0, Mode([]float64{3}))
	assert.Equal(t, 2.0, Mode([]float64{1, 2, 2, 3}))
	// ties resolve to the smallest value
	assert.Equal(t, 1.0, Mode([]float64{5, 1, 5, 1, 9}))
	assert.Equal(t, 0.0, Mode([]float64{100, 0, 50}))
}

func TestWriteCSV(t *testing.T) {
	points := []Point{
		{Experiment: ExperimentDetector, KeyLength: 10, Efficiency: 95, Iterations: 3, MeanErrorRate: 12.5, ModeKeyLength: 4},
		{Experiment: ExperimentDetector, KeyLength: 10, Efficiency: 95, Eavesdropper: true, Tactic: qkd.TacticDiagonal, Iterations: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, points))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"detector", "10", "95", "false", "", "3", "12.5", "0", "0", "4", "0"}, rows[1])
	assert.Equal(t, "3", rows[2][4])
}

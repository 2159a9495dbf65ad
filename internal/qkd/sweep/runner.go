package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// OracleFactory returns the oracle used for the job-th grid point. Each point
// runs on its own goroutine, so oracles that are not safe for concurrent use
// must not be shared between calls.
type OracleFactory func(job int) (quantum.RandomBitOracle, error)

// SeededPseudoOracles returns a factory of reproducible pseudo-random oracles,
// one distinct stream per grid point.
func SeededPseudoOracles(seed uint64) OracleFactory {
	return func(job int) (quantum.RandomBitOracle, error) {
		return quantum.NewPseudoOracle(seed + uint64(job)*0x9e3779b97f4a7c15), nil
	}
}

// SharedOracle returns a factory that hands out the same oracle for every
// point. The oracle must be safe for concurrent use unless Workers is 1.
func SharedOracle(oracle quantum.RandomBitOracle) OracleFactory {
	return func(int) (quantum.RandomBitOracle, error) {
		return oracle, nil
	}
}

// Point is the aggregate of every round run at one grid position
type Point struct {
	Experiment   Experiment `json:"experiment"`
	KeyLength    int        `json:"key_length"`
	Efficiency   float64    `json:"efficiency"`
	Eavesdropper bool       `json:"eavesdropper"`
	Tactic       qkd.Tactic `json:"tactic"`
	Iterations   int        `json:"iterations"`

	MeanErrorRate float64 `json:"mean_error_rate"`
	ModeErrorRate float64 `json:"mode_error_rate"`
	MeanKeyLength float64 `json:"mean_key_length"`
	ModeKeyLength float64 `json:"mode_key_length"`
	// MeanEavesdropperMismatch is the mean fraction of the interceptor's
	// measured bits that differ from the sender's key; zero without one.
	MeanEavesdropperMismatch float64 `json:"mean_eavesdropper_mismatch"`
}

// Runner executes sweeps
type Runner struct {
	// Workers bounds how many grid points run at once. Zero uses GOMAXPROCS.
	Workers   int
	NewOracle OracleFactory
	Log       zerolog.Logger
}

// NewRunner creates a runner with the given worker limit and oracle factory
func NewRunner(workers int, newOracle OracleFactory, log zerolog.Logger) *Runner {
	return &Runner{
		Workers:   workers,
		NewOracle: newOracle,
		Log:       log.With().Str("component", "sweep").Logger(),
	}
}

type job struct {
	index      int
	keyLength  int
	efficiency float64
	series     series
}

// Run simulates every grid point and returns the points ordered by key
// length, series and efficiency as listed in the grid. The first failing round
// cancels the sweep.
func (r *Runner) Run(ctx context.Context, e Experiment, g Grid) ([]Point, error) {
	if err := g.Validate(e); err != nil {
		return nil, fmt.Errorf("%w: %v", qkd.ErrConfiguration, err)
	}
	if r.NewOracle == nil {
		return nil, fmt.Errorf("%w: oracle factory is required", qkd.ErrConfiguration)
	}

	var jobs []job
	for _, keyLength := range g.KeyLengths {
		for _, s := range g.series(e) {
			for _, eff := range g.Efficiencies {
				jobs = append(jobs, job{index: len(jobs), keyLength: keyLength, efficiency: eff, series: s})
			}
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r.Log.Info().
		Str("experiment", string(e)).
		Int("points", len(jobs)).
		Int("rounds", g.Rounds(e)).
		Int("workers", workers).
		Msg("Starting sweep")

	points := make([]Point, len(jobs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, j := range jobs {
		group.Go(func() error {
			point, err := r.runPoint(ctx, e, g.Iterations, j)
			if err != nil {
				return err
			}
			points[j.index] = point
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		r.Log.Error().Err(err).Str("experiment", string(e)).Msg("Sweep failed")
		return nil, err
	}

	r.Log.Info().Str("experiment", string(e)).Int("points", len(points)).Msg("Sweep finished")
	return points, nil
}

func (r *Runner) runPoint(ctx context.Context, e Experiment, iterations int, j job) (Point, error) {
	oracle, err := r.NewOracle(j.index)
	if err != nil {
		return Point{}, fmt.Errorf("creating oracle for point %d: %w", j.index, err)
	}

	sender, receiver := e.parties(j.efficiency)
	eavesdropper := qkd.NoEavesdropper()
	if j.series.eavesdropper {
		eavesdropper = qkd.Eavesdropper(100, 100)
	}
	sim, err := qkd.NewSimulation(oracle, sender, receiver, eavesdropper, qkd.WithLogger(r.Log))
	if err != nil {
		return Point{}, err
	}

	errorRates := make([]float64, 0, iterations)
	keyLengths := make([]float64, 0, iterations)
	mismatches := make([]float64, 0, iterations)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Point{}, err
		}
		res, err := sim.Simulate(j.keyLength, j.series.tactic)
		if err != nil {
			return Point{}, fmt.Errorf("point %d round %d: %w", j.index, i, err)
		}
		errorRates = append(errorRates, res.ErrorRate)
		keyLengths = append(keyLengths, float64(len(res.FinalKey)))
		if mismatch, ok := res.EavesdropperKeyMismatch(); ok {
			mismatches = append(mismatches, mismatch)
		}
	}

	point := Point{
		Experiment:    e,
		KeyLength:     j.keyLength,
		Efficiency:    j.efficiency,
		Eavesdropper:  j.series.eavesdropper,
		Tactic:        j.series.tactic,
		Iterations:    iterations,
		MeanErrorRate: stat.Mean(errorRates, nil),
		ModeErrorRate: Mode(errorRates),
		MeanKeyLength: stat.Mean(keyLengths, nil),
		ModeKeyLength: Mode(keyLengths),
	}
	if len(mismatches) > 0 {
		point.MeanEavesdropperMismatch = stat.Mean(mismatches, nil)
	}

	r.Log.Debug().
		Int("key_length", point.KeyLength).
		Float64("efficiency", point.Efficiency).
		Bool("eavesdropper", point.Eavesdropper).
		Stringer("tactic", point.Tactic).
		Float64("mean_error_rate", point.MeanErrorRate).
		Msg("Point finished")

	return point, nil
}

// Mode returns the most frequent value of xs. Ties resolve to the smallest
// value; an empty slice yields 0.
func Mode(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	_, count := stat.Mode(xs, nil)

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if float64(j-i) == count {
			return sorted[i]
		}
		i = j
	}
	return sorted[0]
}

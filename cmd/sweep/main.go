// Command sweep runs a BB84 parameter sweep and writes one CSV row per grid
// point: the mean and mode error rate and final key length over every round
// at that key length, efficiency and interceptor setting.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jaipikun/QKD-Simulation/internal/config"
	"github.com/Jaipikun/QKD-Simulation/internal/logger"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/sweep"
	flag "github.com/spf13/pflag"
)

var (
	experiment    = flag.String("experiment", string(sweep.ExperimentDetector), "Which device to vary: detector, emitter, system or tactic.")
	keyLengths    = flag.IntSlice("key-lengths", nil, "Photons sent per round. Defaults to the experiment's stock key lengths.")
	efficiencies  = flag.Float64Slice("efficiencies", nil, "Device efficiencies in percent. Defaults to 0..100 in the experiment's stock step.")
	eavesdropping = flag.BoolSlice("eavesdropping", nil, "Interceptor settings to run. Ignored by the tactic experiment.")
	tactics       = flag.IntSlice("tactics", nil, "Interceptor tactic ids for the tactic experiment. Defaults to all of them.")
	iterations    = flag.Int("iterations", 0, "Rounds per grid point. Defaults to the experiment's stock count.")
	workers       = flag.Int("workers", 0, "Grid points simulated at once. Zero uses every CPU.")
	oracle        = flag.String("oracle", config.OraclePseudo, "Random bit source: pseudo, crypto, shake or qiskit.")
	seed          = flag.Uint64("seed", 1, "Seed for the pseudo and shake oracles.")
	out           = flag.StringP("out", "o", "", "Write the CSV here instead of stdout.")
	verbose       = flag.BoolP("verbose", "v", false, "Log per-point progress.")
)

func main() {
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	e, err := sweep.ParseExperiment(*experiment)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid experiment")
	}

	grid := sweep.DefaultGrid(e)
	if len(*keyLengths) > 0 {
		grid.KeyLengths = *keyLengths
	}
	if len(*efficiencies) > 0 {
		grid.Efficiencies = *efficiencies
	}
	if len(*eavesdropping) > 0 {
		grid.Eavesdropping = *eavesdropping
	}
	if len(*tactics) > 0 {
		grid.Tactics = nil
		for _, id := range *tactics {
			grid.Tactics = append(grid.Tactics, qkd.Tactic(id))
		}
	}
	if *iterations > 0 {
		grid.Iterations = *iterations
	}

	// Qiskit credentials come from the environment like the API server's
	cfg := &config.Config{Oracle: *oracle, Seed: *seed}
	if *oracle == config.OracleQiskit {
		if cfg, err = config.Load(); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cfg.Oracle, cfg.Seed = *oracle, *seed
	}
	oracles, err := cfg.OracleFactory()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure random bit oracle")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("experiment", string(e)).
		Int("points", grid.Points(e)).
		Int("rounds", grid.Rounds(e)).
		Str("oracle", cfg.Oracle).
		Msg("Starting sweep")

	points, err := sweep.NewRunner(*workers, oracles, log).Run(ctx, e, grid)
	if err != nil {
		log.Fatal().Err(err).Msg("Sweep failed")
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := sweep.WriteCSV(w, points); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}

	log.Info().Int("points", len(points)).Msg("Sweep complete")
}

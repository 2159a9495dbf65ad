package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jaipikun/QKD-Simulation/internal/config"
	"github.com/Jaipikun/QKD-Simulation/internal/handlers"
	"github.com/Jaipikun/QKD-Simulation/internal/logger"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/Jaipikun/QKD-Simulation/internal/scheduler"
	"github.com/Jaipikun/QKD-Simulation/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("oracle", cfg.Oracle).Msg("Starting QKD simulation API")

	oracles, err := cfg.OracleFactory()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure random bit oracle")
	}

	// Stream 0 serves single rounds; sweeps draw their own streams
	oracle, err := oracles(0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize random bit oracle")
	}
	if cfg.Oracle == config.OraclePseudo || cfg.Oracle == config.OracleShake {
		oracle = quantum.NewLockedOracle(oracle)
	}

	store := qkd.NewRoundStore(cfg.RoundTTL)
	qkdHandler := handlers.NewQKDHandler(store, handlers.Options{
		Oracle:         oracle,
		Oracles:        oracles,
		MaxKeyLength:   cfg.MaxKeyLength,
		SweepMaxRounds: cfg.SweepMaxRounds,
		SweepWorkers:   cfg.SweepWorkers,
	}, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.CleanupSchedule, scheduler.NewRoundCleanupJob(store, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register round cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:           cfg.Port,
		Log:            log,
		QKD:            qkdHandler,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

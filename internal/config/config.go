package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Oracle kinds selectable with QKD_ORACLE
const (
	OraclePseudo = "pseudo"
	OracleCrypto = "crypto"
	OracleShake  = "shake"
	OracleQiskit = "qiskit"
)

// Config holds application configuration
type Config struct {
	Port      int
	LogLevel  string
	LogPretty bool

	// Oracle is the random bit source: pseudo, crypto, shake or qiskit
	Oracle string
	// Seed makes the pseudo and shake oracles reproducible
	Seed uint64

	RoundTTL        time.Duration
	CleanupSchedule string
	MaxKeyLength    int
	SweepMaxRounds  int
	SweepWorkers    int
	RequestTimeout  time.Duration

	Qiskit QiskitConfig
}

// QiskitConfig holds IBM Quantum settings, used by the qiskit oracle only
type QiskitConfig struct {
	APIKey    string
	BaseURL   string
	Backend   string
	MaxQubits int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", false),
		Oracle:          strings.ToLower(getEnv("QKD_ORACLE", OracleCrypto)),
		Seed:            getEnvAsUint64("QKD_SEED", 1),
		RoundTTL:        time.Duration(getEnvAsInt("QKD_ROUND_TTL_MINUTES", 60)) * time.Minute,
		CleanupSchedule: getEnv("QKD_CLEANUP_SCHEDULE", "@every 5m"),
		MaxKeyLength:    getEnvAsInt("QKD_MAX_KEY_LENGTH", 4096),
		SweepMaxRounds:  getEnvAsInt("QKD_SWEEP_MAX_ROUNDS", 50000),
		SweepWorkers:    getEnvAsInt("QKD_SWEEP_WORKERS", 0),
		RequestTimeout:  time.Duration(getEnvAsInt("QKD_REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		Qiskit: QiskitConfig{
			APIKey:    getEnv("QISKIT_API_KEY", ""),
			BaseURL:   getEnv("QISKIT_BASE_URL", "https://api.quantum-computing.ibm.com"),
			Backend:   getEnv("QISKIT_BACKEND", "ibmq_qasm_simulator"),
			MaxQubits: getEnvAsInt("QISKIT_MAX_QUBITS", 26),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Oracle {
	case OraclePseudo, OracleCrypto, OracleShake:
	case OracleQiskit:
		if c.Qiskit.APIKey == "" {
			return fmt.Errorf("QISKIT_API_KEY is required for the qiskit oracle")
		}
	default:
		return fmt.Errorf("QKD_ORACLE must be one of pseudo, crypto, shake, qiskit, got %q", c.Oracle)
	}

	if c.RoundTTL <= 0 {
		return fmt.Errorf("QKD_ROUND_TTL_MINUTES must be positive")
	}
	if c.CleanupSchedule == "" {
		return fmt.Errorf("QKD_CLEANUP_SCHEDULE is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("QKD_REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxKeyLength < 1 {
		return fmt.Errorf("QKD_MAX_KEY_LENGTH must be positive")
	}
	if c.SweepMaxRounds < 1 {
		return fmt.Errorf("QKD_SWEEP_MAX_ROUNDS must be positive")
	}
	if c.SweepWorkers < 0 {
		return fmt.Errorf("QKD_SWEEP_WORKERS cannot be negative")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

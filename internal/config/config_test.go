package config

import (
	"testing"
	"time"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, OracleCrypto, cfg.Oracle)
	assert.Equal(t, 60*time.Minute, cfg.RoundTTL)
	assert.Equal(t, "@every 5m", cfg.CleanupSchedule)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4096, cfg.MaxKeyLength)
	assert.Equal(t, 50000, cfg.SweepMaxRounds)
	assert.Equal(t, 26, cfg.Qiskit.MaxQubits)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("QKD_ORACLE", "Pseudo")
	t.Setenv("QKD_SEED", "77")
	t.Setenv("QKD_ROUND_TTL_MINUTES", "5")
	t.Setenv("QKD_MAX_KEY_LENGTH", "128")
	t.Setenv("QKD_SWEEP_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, OraclePseudo, cfg.Oracle)
	assert.Equal(t, uint64(77), cfg.Seed)
	assert.Equal(t, 5*time.Minute, cfg.RoundTTL)
	assert.Equal(t, 128, cfg.MaxKeyLength)
	assert.Equal(t, 3, cfg.SweepWorkers)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("QKD_SEED", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, uint64(1), cfg.Seed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Unknown oracle", map[string]string{"QKD_ORACLE": "dice"}},
		{"Qiskit without key", map[string]string{"QKD_ORACLE": "qiskit"}},
		{"Port out of range", map[string]string{"PORT": "70000"}},
		{"Zero TTL", map[string]string{"QKD_ROUND_TTL_MINUTES": "0"}},
		{"Zero request timeout", map[string]string{"QKD_REQUEST_TIMEOUT_SECONDS": "0"}},
		{"Zero key length", map[string]string{"QKD_MAX_KEY_LENGTH": "0"}},
		{"Zero sweep budget", map[string]string{"QKD_SWEEP_MAX_ROUNDS": "0"}},
		{"Negative workers", map[string]string{"QKD_SWEEP_WORKERS": "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestOracleFactory(t *testing.T) {
	draw := func(t *testing.T, cfg *Config, stream int) quantum.Bits {
		factory, err := cfg.OracleFactory()
		require.NoError(t, err)
		oracle, err := factory(stream)
		require.NoError(t, err)
		bits, err := quantum.DrawBitString(oracle, 128)
		require.NoError(t, err)
		return bits
	}

	for _, kind := range []string{OraclePseudo, OracleShake} {
		t.Run(kind, func(t *testing.T) {
			cfg := &Config{Oracle: kind, Seed: 9}
			assert.Equal(t, draw(t, cfg, 0), draw(t, cfg, 0), "same stream must repeat")
			assert.NotEqual(t, draw(t, cfg, 0), draw(t, cfg, 1), "streams must differ")
		})
	}

	t.Run(OracleCrypto, func(t *testing.T) {
		assert.Len(t, draw(t, &Config{Oracle: OracleCrypto}, 0), 128)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := (&Config{Oracle: "dice"}).OracleFactory()
		assert.Error(t, err)
	})
}

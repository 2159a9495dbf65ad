package config

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/Jaipikun/QKD-Simulation/internal/qkd/sweep"
)

// OracleFactory returns a factory producing one oracle per stream for the
// configured source. Pseudo and shake streams are derived from Seed and the
// stream index, so a sweep is reproducible regardless of worker count. The
// qiskit source authenticates once and shares a single locked client.
func (c *Config) OracleFactory() (sweep.OracleFactory, error) {
	switch c.Oracle {
	case OraclePseudo:
		return sweep.SeededPseudoOracles(c.Seed), nil

	case OracleShake:
		seed := c.Seed
		return func(stream int) (quantum.RandomBitOracle, error) {
			buf := binary.BigEndian.AppendUint64(nil, seed)
			buf = binary.BigEndian.AppendUint64(buf, uint64(stream))
			return quantum.NewShakeOracle(buf), nil
		}, nil

	case OracleCrypto:
		return sweep.SharedOracle(quantum.NewCryptoOracle()), nil

	case OracleQiskit:
		var (
			once   sync.Once
			oracle quantum.RandomBitOracle
			err    error
		)
		return func(int) (quantum.RandomBitOracle, error) {
			once.Do(func() {
				var client *quantum.QiskitClient
				client, err = quantum.NewQiskitClient(&quantum.QiskitConfig{
					APIKey:       c.Qiskit.APIKey,
					BaseURL:      c.Qiskit.BaseURL,
					BackendName:  c.Qiskit.Backend,
					PollInterval: 2 * time.Second,
				})
				if err != nil {
					err = fmt.Errorf("%w: %w", quantum.ErrOracleFailure, err)
					return
				}
				oracle = quantum.NewLockedOracle(quantum.NewQiskitOracle(client, c.Qiskit.MaxQubits))
			})
			return oracle, err
		}, nil
	}

	return nil, fmt.Errorf("unknown oracle %q", c.Oracle)
}

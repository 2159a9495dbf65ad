package quantum

import (
	"fmt"
)

// DefaultMaxCircuitQubits is the widest fair-coin circuit submitted in one job.
// Simulator backends commonly cap statevector width well below 64 qubits.
const DefaultMaxCircuitQubits = 26

// QiskitOracle draws random bits by executing Hadamard-and-measure circuits on
// an IBM Qiskit backend, one shot per circuit.
type QiskitOracle struct {
	client    *QiskitClient
	backend   string
	maxQubits int
}

// NewQiskitOracle wraps an authenticated client. maxQubits <= 0 selects
// DefaultMaxCircuitQubits.
func NewQiskitOracle(client *QiskitClient, maxQubits int) *QiskitOracle {
	if maxQubits <= 0 || maxQubits > MaxDrawBits {
		maxQubits = DefaultMaxCircuitQubits
	}
	return &QiskitOracle{
		client:    client,
		backend:   client.config.BackendName,
		maxQubits: maxQubits,
	}
}

// DrawBits implements RandomBitOracle. Requests wider than the circuit limit
// are split into several jobs whose outcomes are concatenated high to low.
func (q *QiskitOracle) DrawBits(n int) (uint64, error) {
	var value uint64
	for remaining := n; remaining > 0; {
		width := min(remaining, q.maxQubits)
		chunk, err := q.run(width)
		if err != nil {
			return 0, err
		}
		value = value<<uint(width) | chunk
		remaining -= width
	}
	return value, nil
}

func (q *QiskitOracle) run(width int) (uint64, error) {
	result, err := q.client.ExecuteCircuitSync(&QiskitCircuit{
		QASM:    BuildRandomBitsCircuit(width),
		Shots:   1,
		Backend: q.backend,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	value, err := ParseShotOutcome(result.Counts, width)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	return value, nil
}

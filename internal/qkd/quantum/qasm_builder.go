package quantum

import (
	"fmt"
	"strconv"
	"strings"
)

// QASMBuilder builds OpenQASM 2.0 circuits
type QASMBuilder struct {
	version      string
	includeStmt  string
	registers    []string
	gates        []string
	measurements []string
}

// NewQASMBuilder creates a new OpenQASM circuit builder
func NewQASMBuilder(numQubits int, numClassical int) *QASMBuilder {
	builder := &QASMBuilder{
		version:      "OPENQASM 2.0;",
		includeStmt:  "include \"qelib1.inc\";",
		registers:    make([]string, 0),
		gates:        make([]string, 0),
		measurements: make([]string, 0),
	}

	builder.registers = append(builder.registers,
		fmt.Sprintf("qreg q[%d];", numQubits),
		fmt.Sprintf("creg c[%d];", numClassical),
	)

	return builder
}

// AddGate adds a quantum gate operation
func (b *QASMBuilder) AddGate(gate string) {
	b.gates = append(b.gates, gate)
}

// AddMeasurement adds a measurement operation
func (b *QASMBuilder) AddMeasurement(qubit int, classical int) {
	b.measurements = append(b.measurements,
		fmt.Sprintf("measure q[%d] -> c[%d];", qubit, classical))
}

// Build generates the complete QASM circuit string
func (b *QASMBuilder) Build() string {
	var circuit strings.Builder

	circuit.WriteString(b.version + "\n")
	circuit.WriteString(b.includeStmt + "\n")
	circuit.WriteString("\n")

	for _, reg := range b.registers {
		circuit.WriteString(reg + "\n")
	}
	circuit.WriteString("\n")

	for _, gate := range b.gates {
		circuit.WriteString(gate + "\n")
	}
	circuit.WriteString("\n")

	for _, meas := range b.measurements {
		circuit.WriteString(meas + "\n")
	}

	return circuit.String()
}

// BuildRandomBitsCircuit creates an n-qubit fair-coin circuit: every qubit is
// put into |+⟩ with a Hadamard gate and measured in the computational basis,
// so one shot yields n independent uniform bits.
func BuildRandomBitsCircuit(numQubits int) string {
	builder := NewQASMBuilder(numQubits, numQubits)

	for i := 0; i < numQubits; i++ {
		builder.AddGate(fmt.Sprintf("h q[%d];", i))
	}
	for i := 0; i < numQubits; i++ {
		builder.AddMeasurement(i, i)
	}

	return builder.Build()
}

// ParseShotOutcome extracts the single measured register value from the counts
// of a one-shot job. Outcomes may be reported either as a bitstring ("0101",
// spaces allowed) or as a hexadecimal literal ("0x5").
func ParseShotOutcome(counts map[string]int, numBits int) (uint64, error) {
	var outcome string
	total := 0
	for key, count := range counts {
		if count > 0 {
			outcome = key
			total += count
		}
	}
	if total != 1 {
		return 0, fmt.Errorf("expected exactly one shot, got %d", total)
	}

	var (
		value uint64
		err   error
	)
	if strings.HasPrefix(outcome, "0x") || strings.HasPrefix(outcome, "0X") {
		value, err = strconv.ParseUint(outcome[2:], 16, 64)
	} else {
		value, err = strconv.ParseUint(strings.ReplaceAll(outcome, " ", ""), 2, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("unparseable outcome %q: %w", outcome, err)
	}
	if numBits < MaxDrawBits && value>>uint(numBits) != 0 {
		return 0, fmt.Errorf("outcome %q exceeds %d bits", outcome, numBits)
	}
	return value, nil
}

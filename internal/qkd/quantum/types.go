package quantum

import (
	"fmt"
	"strings"
)

// Basis represents the encoding/measurement basis in BB84 protocol
type Basis int

const (
	// RectilinearBasis represents the computational basis (Z-basis): |0⟩, |1⟩
	RectilinearBasis Basis = 0
	// DiagonalBasis represents the Hadamard basis (X-basis): |+⟩, |−⟩
	DiagonalBasis Basis = 1
)

func (b Basis) String() string {
	switch b {
	case RectilinearBasis:
		return "Rectilinear(+)"
	case DiagonalBasis:
		return "Diagonal(×)"
	default:
		return "Unknown"
	}
}

// Valid reports whether b is one of the two BB84 bases
func (b Basis) Valid() bool {
	return b == RectilinearBasis || b == DiagonalBasis
}

// Bit represents a classical bit (0 or 1)
type Bit int

const (
	Zero Bit = 0
	One  Bit = 1
)

// Valid reports whether b is 0 or 1
func (b Bit) Valid() bool {
	return b == Zero || b == One
}

// Photon is one transmitted qubit: the basis it is currently polarised in and
// the bit value it carries. Both fields are always 0 or 1.
type Photon struct {
	basis Basis
	value Bit
}

// NewPhoton creates a photon, rejecting any basis or value outside {0,1}
func NewPhoton(basis Basis, value Bit) (*Photon, error) {
	if !basis.Valid() || !value.Valid() {
		return nil, fmt.Errorf("%w: basis=%d value=%d", ErrInvalidState, basis, value)
	}
	return &Photon{basis: basis, value: value}, nil
}

// Basis returns the photon's current polarisation basis
func (p *Photon) Basis() Basis {
	return p.basis
}

// Value returns the bit value the photon currently carries
func (p *Photon) Value() Bit {
	return p.value
}

// SwitchBasis flips the photon between rectilinear and diagonal polarisation
func (p *Photon) SwitchBasis() {
	p.basis = 1 - p.basis
}

// FlipValue flips the bit carried by the photon
func (p *Photon) FlipValue() {
	p.value = 1 - p.value
}

func (p *Photon) String() string {
	return fmt.Sprintf("Photon{%v, %d}", p.basis, p.value)
}

// Bits is an ordered bit string. It renders and serialises as "0110...".
type Bits []Bit

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		sb.WriteByte(byte('0' + bit))
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler
func (b Bits) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *Bits) UnmarshalText(text []byte) error {
	bits, err := ParseBits(string(text))
	if err != nil {
		return err
	}
	*b = bits
	return nil
}

// ParseBits parses a string of '0'/'1' characters
func ParseBits(s string) (Bits, error) {
	bits := make(Bits, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			bits[i] = Zero
		case '1':
			bits[i] = One
		default:
			return nil, fmt.Errorf("%w: character %q at index %d", ErrInvalidState, s[i], i)
		}
	}
	return bits, nil
}

// Bases is an ordered basis string. It renders and serialises as "0110...".
type Bases []Basis

func (b Bases) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, basis := range b {
		sb.WriteByte(byte('0' + basis))
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler
func (b Bases) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *Bases) UnmarshalText(text []byte) error {
	bits, err := ParseBits(string(text))
	if err != nil {
		return err
	}
	bases := make(Bases, len(bits))
	for i, bit := range bits {
		bases[i] = Basis(bit)
	}
	*b = bases
	return nil
}

// BitsToBytes packs a slice of Bits into bytes, most significant bit first
func BitsToBytes(bits []Bit) []byte {
	numBytes := (len(bits) + 7) / 8
	bytes := make([]byte, numBytes)

	for i, bit := range bits {
		if bit == One {
			byteIndex := i / 8
			bitIndex := uint(7 - (i % 8))
			bytes[byteIndex] |= (1 << bitIndex)
		}
	}

	return bytes
}

// CalculateBitError calculates the error rate between two bit sequences
func CalculateBitError(bits1, bits2 []Bit) (float64, error) {
	if len(bits1) != len(bits2) {
		return 0, fmt.Errorf("bit sequences must have the same length")
	}

	if len(bits1) == 0 {
		return 0, nil
	}

	errors := 0
	for i := range bits1 {
		if bits1[i] != bits2[i] {
			errors++
		}
	}

	return float64(errors) / float64(len(bits1)), nil
}

package quantum

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"sync"

	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidState is returned when a photon or bit would hold a value outside {0,1}
	ErrInvalidState = errors.New("invalid quantum state")
	// ErrOracleFailure wraps any failure of a random-bit oracle
	ErrOracleFailure = errors.New("random bit oracle failure")
)

// MaxDrawBits is the widest single request a RandomBitOracle must serve
const MaxDrawBits = 64

// RandomBitOracle supplies uniformly distributed random bits. A single call is
// an atomic request: it either returns all n bits or fails.
type RandomBitOracle interface {
	// DrawBits returns an integer in [0, 2^n - 1] for 1 <= n <= MaxDrawBits
	DrawBits(n int) (uint64, error)
}

// OracleFunc adapts a plain function to the RandomBitOracle interface
type OracleFunc func(n int) (uint64, error)

// DrawBits calls f(n)
func (f OracleFunc) DrawBits(n int) (uint64, error) {
	return f(n)
}

// Draw performs one checked request against the oracle. Any failure, including
// an out-of-range answer, is reported as ErrOracleFailure.
func Draw(o RandomBitOracle, n int) (uint64, error) {
	if n < 1 || n > MaxDrawBits {
		return 0, fmt.Errorf("%w: cannot draw %d bits", ErrOracleFailure, n)
	}
	v, err := o.DrawBits(n)
	if err != nil {
		if errors.Is(err, ErrOracleFailure) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	if n < MaxDrawBits && v>>uint(n) != 0 {
		return 0, fmt.Errorf("%w: value %d does not fit in %d bits", ErrOracleFailure, v, n)
	}
	return v, nil
}

// DrawBitString draws n bits in order. Bit i is the i-th most significant bit
// of its draw; strings longer than MaxDrawBits use consecutive draws.
func DrawBitString(o RandomBitOracle, n int) (Bits, error) {
	bits := make(Bits, 0, n)
	for remaining := n; remaining > 0; {
		width := min(remaining, MaxDrawBits)
		v, err := Draw(o, width)
		if err != nil {
			return nil, err
		}
		for i := width - 1; i >= 0; i-- {
			bits = append(bits, Bit((v>>uint(i))&1))
		}
		remaining -= width
	}
	return bits, nil
}

// DrawBasisString draws n independent bases, one bit per basis
func DrawBasisString(o RandomBitOracle, n int) (Bases, error) {
	bits, err := DrawBitString(o, n)
	if err != nil {
		return nil, err
	}
	bases := make(Bases, len(bits))
	for i, bit := range bits {
		bases[i] = Basis(bit)
	}
	return bases, nil
}

// DrawBit draws a single fair coin
func DrawBit(o RandomBitOracle) (Bit, error) {
	v, err := Draw(o, 1)
	if err != nil {
		return Zero, err
	}
	return Bit(v), nil
}

// PseudoOracle draws from a seeded PCG generator. Two oracles with the same
// seed produce the same stream. Not safe for concurrent use.
type PseudoOracle struct {
	rng *mrand.Rand
}

// NewPseudoOracle creates a reproducible pseudo-random oracle
func NewPseudoOracle(seed uint64) *PseudoOracle {
	return &PseudoOracle{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// DrawBits implements RandomBitOracle
func (p *PseudoOracle) DrawBits(n int) (uint64, error) {
	return p.rng.Uint64() >> uint(MaxDrawBits-n), nil
}

// CryptoOracle draws from the operating system CSPRNG
type CryptoOracle struct{}

// NewCryptoOracle creates an oracle backed by crypto/rand
func NewCryptoOracle() *CryptoOracle {
	return &CryptoOracle{}
}

// DrawBits implements RandomBitOracle
func (CryptoOracle) DrawBits(n int) (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]) >> uint(MaxDrawBits-n), nil
}

// ShakeOracle expands a seed into an unbounded bit stream with SHAKE256.
// The stream is fixed by the seed alone, so runs are reproducible across
// platforms and Go releases. Not safe for concurrent use.
type ShakeOracle struct {
	xof sha3.ShakeHash
}

// NewShakeOracle creates an oracle whose stream is derived from seed
func NewShakeOracle(seed []byte) *ShakeOracle {
	xof := sha3.NewShake256()
	xof.Write([]byte("qkd-simulation/oracle/v1"))
	xof.Write(seed)
	return &ShakeOracle{xof: xof}
}

// DrawBits implements RandomBitOracle
func (s *ShakeOracle) DrawBits(n int) (uint64, error) {
	var buf [8]byte
	if _, err := s.xof.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]) >> uint(MaxDrawBits-n), nil
}

// LockedOracle serialises access to an oracle that is not safe for concurrent
// use. Concurrent rounds sharing it receive interleaved parts of one stream.
type LockedOracle struct {
	mu    sync.Mutex
	inner RandomBitOracle
}

// NewLockedOracle wraps inner with a mutex
func NewLockedOracle(inner RandomBitOracle) *LockedOracle {
	return &LockedOracle{inner: inner}
}

// DrawBits implements RandomBitOracle
func (l *LockedOracle) DrawBits(n int) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.DrawBits(n)
}

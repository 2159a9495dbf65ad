package qkd

import (
	"fmt"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
)

// Participant is one party of a BB84 round. Sender, receiver and interceptor
// share this type; a role is only a matter of which steps get called.
type Participant struct {
	name               string
	oracle             quantum.RandomBitOracle
	emitterEfficiency  float64
	detectorEfficiency float64

	keyLength   int
	basisString quantum.Bases
	keyString   quantum.Bits
	// preset is consumed by the next Receive or Resend
	preset quantum.Bases

	emitterFaults  int
	detectorFaults int
}

// NewParticipant creates a party with the given device efficiencies in percent
func NewParticipant(name string, oracle quantum.RandomBitOracle, emitterEfficiency, detectorEfficiency float64) *Participant {
	return &Participant{
		name:               name,
		oracle:             oracle,
		emitterEfficiency:  emitterEfficiency,
		detectorEfficiency: detectorEfficiency,
	}
}

// Name returns the label the participant was created with
func (p *Participant) Name() string {
	return p.name
}

// KeyLength returns the number of photons handled by the last step
func (p *Participant) KeyLength() int {
	return p.keyLength
}

// Key returns a copy of the participant's key bits
func (p *Participant) Key() quantum.Bits {
	return append(quantum.Bits(nil), p.keyString...)
}

// Bases returns a copy of the participant's basis string
func (p *Participant) Bases() quantum.Bases {
	return append(quantum.Bases(nil), p.basisString...)
}

// EmitterFaults returns how many emitted photons were corrupted
func (p *Participant) EmitterFaults() int {
	return p.emitterFaults
}

// DetectorFaults returns how many received photons were corrupted
func (p *Participant) DetectorFaults() int {
	return p.detectorFaults
}

// PresetBases installs a basis string that the next Receive or Resend uses
// instead of drawing one. It applies to that single call only and is ignored
// when its length does not match.
func (p *Participant) PresetBases(bases quantum.Bases) {
	p.preset = append(quantum.Bases(nil), bases...)
}

// ResetBases discards the recorded basis string and any pending preset, so
// the next Resend draws fresh bases.
func (p *Participant) ResetBases() {
	p.basisString = nil
	p.preset = nil
}

// takePreset returns the pending preset if it covers n photons and clears it
func (p *Participant) takePreset(n int) quantum.Bases {
	preset := p.preset
	p.preset = nil
	if len(preset) != n {
		return nil
	}
	return preset
}

// Send draws keyLength secret bits and keyLength encoding bases, encodes them
// as photons and passes each through the emitter.
func (p *Participant) Send(keyLength int) ([]*quantum.Photon, error) {
	key, err := quantum.DrawBitString(p.oracle, keyLength)
	if err != nil {
		return nil, fmt.Errorf("%s: drawing key: %w", p.name, err)
	}
	bases, err := quantum.DrawBasisString(p.oracle, keyLength)
	if err != nil {
		return nil, fmt.Errorf("%s: drawing bases: %w", p.name, err)
	}

	p.keyLength = keyLength
	p.keyString = key
	p.basisString = bases
	return p.emit()
}

// Resend re-emits the participant's current key bits. A pending preset wins,
// then the bases recorded by the last Send or Receive; after ResetBases fresh
// bases are drawn.
func (p *Participant) Resend() ([]*quantum.Photon, error) {
	if preset := p.takePreset(len(p.keyString)); preset != nil {
		p.basisString = preset
	} else if p.basisString == nil {
		bases, err := quantum.DrawBasisString(p.oracle, len(p.keyString))
		if err != nil {
			return nil, fmt.Errorf("%s: drawing resend bases: %w", p.name, err)
		}
		p.basisString = bases
	}
	return p.emit()
}

func (p *Participant) emit() ([]*quantum.Photon, error) {
	p.emitterFaults = 0
	photons := make([]*quantum.Photon, len(p.keyString))
	for i := range p.keyString {
		photon, err := quantum.NewPhoton(p.basisString[i], p.keyString[i])
		if err != nil {
			return nil, fmt.Errorf("%s: encoding photon %d: %w", p.name, i, err)
		}
		broken, err := injectFault(p.oracle, photon, p.emitterEfficiency)
		if err != nil {
			return nil, fmt.Errorf("%s: emitter: %w", p.name, err)
		}
		if broken {
			p.emitterFaults++
		}
		photons[i] = photon
	}
	return photons, nil
}

// Receive measures an incoming photon stream. Measurement bases are drawn
// afresh on every call, independently per photon, unless a preset basis
// string of the same length was installed. The detector may corrupt each
// photon before it is measured. On error the previous key and bases stay.
func (p *Participant) Receive(photons []*quantum.Photon) error {
	bases := p.takePreset(len(photons))
	if bases == nil {
		var err error
		if bases, err = quantum.DrawBasisString(p.oracle, len(photons)); err != nil {
			return fmt.Errorf("%s: drawing bases: %w", p.name, err)
		}
	}

	key := make(quantum.Bits, 0, len(photons))
	faults := 0
	for i, photon := range photons {
		broken, err := injectFault(p.oracle, photon, p.detectorEfficiency)
		if err != nil {
			return fmt.Errorf("%s: detector: %w", p.name, err)
		}
		if broken {
			faults++
		}

		bit, err := p.measure(photon, bases[i])
		if err != nil {
			return fmt.Errorf("%s: measuring photon %d: %w", p.name, i, err)
		}
		key = append(key, bit)
	}

	p.keyLength = len(photons)
	p.keyString = key
	p.basisString = bases
	p.detectorFaults = faults
	return nil
}

// measure reads a photon in the given basis. A matching basis reproduces the
// photon's value; a mismatched one collapses to a fresh random bit.
func (p *Participant) measure(photon *quantum.Photon, basis quantum.Basis) (quantum.Bit, error) {
	if basis == photon.Basis() {
		return photon.Value(), nil
	}
	return quantum.DrawBit(p.oracle)
}

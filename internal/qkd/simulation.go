package qkd

import (
	"errors"
	"fmt"
	"math"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"github.com/rs/zerolog"
)

// ErrConfiguration is returned when a simulation is configured with missing or
// out-of-range parameters
var ErrConfiguration = errors.New("invalid simulation configuration")

// PartyConfig configures one party of a round. Fields are optional so that a
// missing value can be told apart from zero; which ones are required depends
// on the role.
type PartyConfig struct {
	EmitterEfficiency  *float64 `json:"emitter_efficiency,omitempty"`
	DetectorEfficiency *float64 `json:"detector_efficiency,omitempty"`
	Present            *bool    `json:"exists,omitempty"`
}

// NewPartyConfig returns a config with every field set
func NewPartyConfig(emitterEfficiency, detectorEfficiency float64, present bool) PartyConfig {
	return PartyConfig{
		EmitterEfficiency:  &emitterEfficiency,
		DetectorEfficiency: &detectorEfficiency,
		Present:            &present,
	}
}

// SenderConfig returns a sender config with the given emitter efficiency
func SenderConfig(emitterEfficiency float64) PartyConfig {
	return PartyConfig{EmitterEfficiency: &emitterEfficiency}
}

// ReceiverConfig returns a receiver config with the given detector efficiency
func ReceiverConfig(detectorEfficiency float64) PartyConfig {
	return PartyConfig{DetectorEfficiency: &detectorEfficiency}
}

// NoEavesdropper returns an eavesdropper config marked absent
func NoEavesdropper() PartyConfig {
	present := false
	return PartyConfig{Present: &present}
}

// Eavesdropper returns a present eavesdropper with the given efficiencies
func Eavesdropper(emitterEfficiency, detectorEfficiency float64) PartyConfig {
	return NewPartyConfig(emitterEfficiency, detectorEfficiency, true)
}

func checkEfficiency(party, field string, v *float64, required bool) error {
	if v == nil {
		if required {
			return fmt.Errorf("%w: %s %s is required", ErrConfiguration, party, field)
		}
		return nil
	}
	if math.IsNaN(*v) || *v < 0 || *v > 100 {
		return fmt.Errorf("%w: %s %s must be within [0, 100], got %v", ErrConfiguration, party, field, *v)
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// Simulation runs BB84 rounds for a fixed set of parties
type Simulation struct {
	oracle quantum.RandomBitOracle
	log    zerolog.Logger

	senderEmitter float64

	receiverDetector float64

	eavesdropperPresent  bool
	eavesdropperEmitter  float64
	eavesdropperDetector float64
}

// Option customises a Simulation
type Option func(*Simulation)

// WithLogger sets the logger used for per-round debug output
func WithLogger(log zerolog.Logger) Option {
	return func(s *Simulation) {
		s.log = log.With().Str("component", "bb84_simulation").Logger()
	}
}

// NewSimulation validates the party configuration and returns a simulation
// drawing from oracle. Nothing is drawn until Simulate is called.
func NewSimulation(oracle quantum.RandomBitOracle, sender, receiver, eavesdropper PartyConfig, opts ...Option) (*Simulation, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: random bit oracle is required", ErrConfiguration)
	}
	if err := checkEfficiency("sender", "emitter efficiency", sender.EmitterEfficiency, true); err != nil {
		return nil, err
	}
	if err := checkEfficiency("sender", "detector efficiency", sender.DetectorEfficiency, false); err != nil {
		return nil, err
	}
	if err := checkEfficiency("receiver", "detector efficiency", receiver.DetectorEfficiency, true); err != nil {
		return nil, err
	}
	if err := checkEfficiency("receiver", "emitter efficiency", receiver.EmitterEfficiency, false); err != nil {
		return nil, err
	}
	if eavesdropper.Present == nil {
		return nil, fmt.Errorf("%w: eavesdropper presence flag is required", ErrConfiguration)
	}
	present := *eavesdropper.Present
	if err := checkEfficiency("eavesdropper", "emitter efficiency", eavesdropper.EmitterEfficiency, present); err != nil {
		return nil, err
	}
	if err := checkEfficiency("eavesdropper", "detector efficiency", eavesdropper.DetectorEfficiency, present); err != nil {
		return nil, err
	}

	s := &Simulation{
		oracle:               oracle,
		log:                  zerolog.Nop(),
		senderEmitter:        *sender.EmitterEfficiency,
		receiverDetector:     *receiver.DetectorEfficiency,
		eavesdropperPresent:  present,
		eavesdropperEmitter:  valueOr(eavesdropper.EmitterEfficiency, 100),
		eavesdropperDetector: valueOr(eavesdropper.DetectorEfficiency, 100),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EavesdropperPresent reports whether rounds include an interceptor
func (s *Simulation) EavesdropperPresent() bool {
	return s.eavesdropperPresent
}

// Simulate runs one full round: the sender emits keyLength photons, the
// interceptor (if configured) measures and re-emits them under tactic, and the
// receiver measures whatever reaches it. Any oracle failure aborts the round.
func (s *Simulation) Simulate(keyLength int, tactic Tactic) (*RoundResult, error) {
	if keyLength < 1 {
		return nil, fmt.Errorf("%w: key length must be positive, got %d", ErrConfiguration, keyLength)
	}

	// The sender never detects, so its detector efficiency is irrelevant.
	sender := NewParticipant("sender", s.oracle, s.senderEmitter, 100)
	beam, err := sender.Send(keyLength)
	if err != nil {
		return nil, err
	}

	result := &RoundResult{KeyLength: keyLength}

	if s.eavesdropperPresent {
		policy := SelectTactic(tactic)
		eve := NewParticipant("eavesdropper", s.oracle, s.eavesdropperEmitter, s.eavesdropperDetector)
		if preset := policy.MeasurementBases(keyLength); preset != nil {
			eve.PresetBases(preset)
		}
		if err := eve.Receive(beam); err != nil {
			return nil, err
		}
		result.EavesdropperKey = eve.Key()
		result.EavesdropperBases = eve.Bases()

		if policy.RedrawForResend {
			eve.ResetBases()
		}
		if beam, err = eve.Resend(); err != nil {
			return nil, err
		}
		result.EavesdropperResendBases = eve.Bases()
		result.Faults.EavesdropperDetector = eve.DetectorFaults()
		result.Faults.EavesdropperEmitter = eve.EmitterFaults()

		effective := policy.Tactic
		result.Tactic = &effective
	}

	receiver := NewParticipant("receiver", s.oracle, 100, s.receiverDetector)
	if err := receiver.Receive(beam); err != nil {
		return nil, err
	}

	result.SenderKey = sender.Key()
	result.SenderBases = sender.Bases()
	result.ReceiverKey = receiver.Key()
	result.ReceiverBases = receiver.Bases()
	result.Faults.SenderEmitter = sender.EmitterFaults()
	result.Faults.ReceiverDetector = receiver.DetectorFaults()

	sifted, err := Sift(result.SenderKey, result.SenderBases, result.ReceiverKey, result.ReceiverBases)
	if err != nil {
		return nil, err
	}
	result.SenderSifted = sifted.SenderKey
	result.ReceiverSifted = sifted.ReceiverKey
	result.FinalKey = sifted.FinalKey
	result.GoodBits = sifted.GoodBits
	result.ErrorRate = sifted.ErrorRate

	s.log.Debug().
		Int("key_length", keyLength).
		Bool("eavesdropper", s.eavesdropperPresent).
		Int("sifted", result.SiftedLength()).
		Int("final", len(result.FinalKey)).
		Float64("error_rate", result.ErrorRate).
		Str("final_key_digest", result.FinalKeyDigest()).
		Msg("round complete")

	return result, nil
}

// SiftResult is the outcome of comparing sender and receiver bases
type SiftResult struct {
	SenderKey   quantum.Bits
	ReceiverKey quantum.Bits
	FinalKey    quantum.Bits
	GoodBits    int
	ErrorRate   float64
}

// Sift keeps the positions where sender and receiver used the same basis,
// counts the positions among those whose bits also agree, and builds the
// final key from the agreeing bits only. The error rate is a percentage; with
// no sifted positions it is 100 by convention.
func Sift(senderKey quantum.Bits, senderBases quantum.Bases, receiverKey quantum.Bits, receiverBases quantum.Bases) (SiftResult, error) {
	n := len(senderKey)
	if len(senderBases) != n || len(receiverKey) != n || len(receiverBases) != n {
		return SiftResult{}, fmt.Errorf("sifting needs equal lengths: sender %d/%d, receiver %d/%d",
			len(senderKey), len(senderBases), len(receiverKey), len(receiverBases))
	}

	res := SiftResult{
		SenderKey:   make(quantum.Bits, 0, n),
		ReceiverKey: make(quantum.Bits, 0, n),
		FinalKey:    make(quantum.Bits, 0, n),
	}
	for i := 0; i < n; i++ {
		if senderBases[i] != receiverBases[i] {
			continue
		}
		res.SenderKey = append(res.SenderKey, senderKey[i])
		res.ReceiverKey = append(res.ReceiverKey, receiverKey[i])
		if senderKey[i] == receiverKey[i] {
			res.GoodBits++
			res.FinalKey = append(res.FinalKey, senderKey[i])
		}
	}

	if len(res.SenderKey) == 0 {
		res.ErrorRate = 100
	} else {
		res.ErrorRate = (1 - float64(res.GoodBits)/float64(len(res.SenderKey))) * 100
	}
	return res, nil
}

package qkd

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/Jaipikun/QKD-Simulation/internal/qkd/quantum"
	"golang.org/x/crypto/sha3"
)

// FaultCounts records how many photons each device corrupted during a round
type FaultCounts struct {
	SenderEmitter        int `json:"sender_emitter"`
	EavesdropperDetector int `json:"eavesdropper_detector"`
	EavesdropperEmitter  int `json:"eavesdropper_emitter"`
	ReceiverDetector     int `json:"receiver_detector"`
}

// RoundResult is the outcome of one simulated BB84 round. Eavesdropper fields
// and Tactic are nil when no interceptor took part. Callers must treat it as
// read-only.
type RoundResult struct {
	KeyLength int `json:"key_length"`

	SenderKey     quantum.Bits  `json:"sender_initial_key"`
	SenderBases   quantum.Bases `json:"sender_bases"`
	ReceiverKey   quantum.Bits  `json:"receiver_initial_key"`
	ReceiverBases quantum.Bases `json:"receiver_bases"`

	EavesdropperKey         quantum.Bits  `json:"eavesdropper_stolen_key,omitempty"`
	EavesdropperBases       quantum.Bases `json:"eavesdropper_bases,omitempty"`
	EavesdropperResendBases quantum.Bases `json:"eavesdropper_resend_bases,omitempty"`
	Tactic                  *Tactic       `json:"tactic,omitempty"`

	SenderSifted   quantum.Bits `json:"sender_key_same_bases"`
	ReceiverSifted quantum.Bits `json:"receiver_key_same_bases"`
	FinalKey       quantum.Bits `json:"final_key"`
	GoodBits       int          `json:"good_bits"`
	ErrorRate      float64      `json:"error_rate"`

	Faults FaultCounts `json:"faults"`
}

// Eavesdropped reports whether an interceptor took part in the round
func (r *RoundResult) Eavesdropped() bool {
	return r.Tactic != nil
}

// SiftedLength returns the number of positions where the bases matched
func (r *RoundResult) SiftedLength() int {
	return len(r.SenderSifted)
}

// FinalKeyDigest returns the hex SHA3-256 digest of the packed final key,
// suitable for logs and comparisons that must not reveal key material.
func (r *RoundResult) FinalKeyDigest() string {
	h := sha3.New256()
	h.Write(binary.BigEndian.AppendUint32(nil, uint32(len(r.FinalKey))))
	h.Write(quantum.BitsToBytes(r.FinalKey))
	return hex.EncodeToString(h.Sum(nil))
}

// EavesdropperKeyMismatch returns the fraction of the interceptor's measured
// bits that differ from the sender's key. ok is false when nobody intercepted.
func (r *RoundResult) EavesdropperKeyMismatch() (rate float64, ok bool) {
	if !r.Eavesdropped() {
		return 0, false
	}
	rate, err := quantum.CalculateBitError(r.SenderKey, r.EavesdropperKey)
	if err != nil {
		return 0, false
	}
	return rate, true
}

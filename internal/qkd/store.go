package qkd

import (
	"sort"
	"sync"
	"time"

	"github.com/Jaipikun/QKD-Simulation/internal/models/qkd"
	"github.com/google/uuid"
)

// DefaultRoundTTL is how long a stored round stays retrievable
const DefaultRoundTTL = 60 * time.Minute

// StoredRound is a simulated round kept for later retrieval
type StoredRound struct {
	ID        uuid.UUID    `json:"round_id"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Result    *RoundResult `json:"result"`
}

// Summary returns the key-free view of the stored round
func (sr *StoredRound) Summary() qkd.RoundSummary {
	summary := qkd.RoundSummary{
		RoundID:        sr.ID,
		KeyLength:      sr.Result.KeyLength,
		Eavesdropped:   sr.Result.Eavesdropped(),
		ErrorRate:      sr.Result.ErrorRate,
		SiftedLength:   sr.Result.SiftedLength(),
		FinalKeyLength: len(sr.Result.FinalKey),
		FinalKeyDigest: sr.Result.FinalKeyDigest(),
		CreatedAt:      sr.CreatedAt,
		ExpiresAt:      sr.ExpiresAt,
	}
	if sr.Result.Tactic != nil {
		t := int(*sr.Result.Tactic)
		summary.Tactic = &t
	}
	return summary
}

// RoundStore keeps simulated rounds in memory until they expire
type RoundStore struct {
	rounds map[uuid.UUID]*StoredRound
	mutex  sync.RWMutex
	ttl    time.Duration
}

// NewRoundStore creates a new round store. A non-positive ttl selects
// DefaultRoundTTL.
func NewRoundStore(ttl time.Duration) *RoundStore {
	if ttl <= 0 {
		ttl = DefaultRoundTTL
	}
	return &RoundStore{
		rounds: make(map[uuid.UUID]*StoredRound),
		ttl:    ttl,
	}
}

// TTL returns the lifetime given to newly saved rounds
func (rs *RoundStore) TTL() time.Duration {
	return rs.ttl
}

// Save stores a round result under a fresh ID
func (rs *RoundStore) Save(result *RoundResult) *StoredRound {
	now := time.Now()
	round := &StoredRound{
		ID:        uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(rs.ttl),
		Result:    result,
	}

	rs.mutex.Lock()
	rs.rounds[round.ID] = round
	rs.mutex.Unlock()

	return round
}

// Get retrieves a round by ID
func (rs *RoundStore) Get(id uuid.UUID) (*StoredRound, error) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	round, exists := rs.rounds[id]
	if !exists {
		return nil, qkd.ErrRoundNotFound
	}

	if time.Now().After(round.ExpiresAt) {
		return nil, qkd.ErrRoundExpired
	}

	return round, nil
}

// List returns the unexpired rounds, oldest first
func (rs *RoundStore) List() []*StoredRound {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	now := time.Now()
	rounds := make([]*StoredRound, 0, len(rs.rounds))
	for _, round := range rs.rounds {
		if now.After(round.ExpiresAt) {
			continue
		}
		rounds = append(rounds, round)
	}

	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].CreatedAt.Before(rounds[j].CreatedAt)
	})
	return rounds
}

// Delete removes a round
func (rs *RoundStore) Delete(id uuid.UUID) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if _, exists := rs.rounds[id]; !exists {
		return qkd.ErrRoundNotFound
	}
	delete(rs.rounds, id)
	return nil
}

// CleanupExpired removes expired rounds and returns how many were dropped
func (rs *RoundStore) CleanupExpired() int {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	now := time.Now()
	removed := 0

	for id, round := range rs.rounds {
		if now.After(round.ExpiresAt) {
			delete(rs.rounds, id)
			removed++
		}
	}

	return removed
}

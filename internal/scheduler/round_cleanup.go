package scheduler

import (
	"github.com/rs/zerolog"
)

// ExpiringStore is a store that can drop its expired entries
type ExpiringStore interface {
	CleanupExpired() int
}

// RoundCleanupJob removes expired rounds from the round store
type RoundCleanupJob struct {
	store ExpiringStore
	log   zerolog.Logger
}

// NewRoundCleanupJob creates a cleanup job for store
func NewRoundCleanupJob(store ExpiringStore, log zerolog.Logger) *RoundCleanupJob {
	return &RoundCleanupJob{
		store: store,
		log:   log.With().Str("job", "round_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *RoundCleanupJob) Name() string {
	return "round_cleanup"
}

// Run drops expired rounds
func (j *RoundCleanupJob) Run() error {
	if removed := j.store.CleanupExpired(); removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Expired rounds removed")
	}
	return nil
}

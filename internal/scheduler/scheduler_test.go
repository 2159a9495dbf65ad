package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	cleanups atomic.Int32
}

func (f *fakeStore) CleanupExpired() int {
	f.cleanups.Add(1)
	return 2
}

type failingJob struct{ runs atomic.Int32 }

func (j *failingJob) Name() string { return "failing" }

func (j *failingJob) Run() error {
	j.runs.Add(1)
	return errors.New("boom")
}

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestRoundCleanupJob(t *testing.T) {
	store := &fakeStore{}
	job := NewRoundCleanupJob(store, quietLogger())

	assert.Equal(t, "round_cleanup", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, int32(1), store.cleanups.Load())
}

func TestSchedulerRunsJobs(t *testing.T) {
	store := &fakeStore{}
	s := New(quietLogger())
	require.NoError(t, s.AddJob("@every 1s", NewRoundCleanupJob(store, quietLogger())))

	s.Start()
	assert.Eventually(t, func() bool { return store.cleanups.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(quietLogger())
	assert.Error(t, s.AddJob("every now and then", &failingJob{}))
}

func TestRunNow(t *testing.T) {
	s := New(quietLogger())
	job := &failingJob{}

	assert.Error(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

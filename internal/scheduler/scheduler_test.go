package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalJob_RunsUntilStopped(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.AddIntervalJob("tick", "Tick", "counts ticks", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())

	info, ok := s.Job("tick")
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, info.Status)
	assert.GreaterOrEqual(t, info.RunCount, 3)
}

func TestIntervalJob_RecordsErrors(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Stop() //nolint:errcheck

	require.NoError(t, s.AddIntervalJob("fail", "Fail", "always fails", time.Hour, func(ctx context.Context) error {
		return errors.New("nope")
	}))
	s.Start()
	require.NoError(t, s.RunJobNow("fail"))

	assert.Eventually(t, func() bool {
		info, _ := s.Job("fail")
		return info.ErrorCount == 1
	}, 2*time.Second, 5*time.Millisecond)

	info, _ := s.Job("fail")
	assert.Equal(t, JobStatusFailed, info.Status)
	assert.Equal(t, "nope", info.LastError)
}

func TestAddIntervalJob_Validation(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Stop() //nolint:errcheck

	noop := func(context.Context) error { return nil }
	assert.Error(t, s.AddIntervalJob("zero", "Zero", "", 0, noop))
	require.NoError(t, s.AddIntervalJob("a", "A", "", time.Second, noop))
	assert.Error(t, s.AddIntervalJob("a", "A", "", time.Second, noop))
	assert.Error(t, s.RunJobNow("missing"))
	assert.Equal(t, []string{"a"}, s.JobIDs())
}

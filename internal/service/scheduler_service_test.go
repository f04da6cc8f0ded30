package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	_, err := s.ScheduleInterval(0, func() {})
	assert.EqualError(t, err, "interval must be positive")
	_, err = s.ScheduleInterval(-time.Second, func() {})
	assert.Error(t, err)
}

func TestScheduleIntervalRunsJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	var runs int32
	_, err := s.ScheduleInterval(time.Second, func() { atomic.AddInt32(&runs, 1) })
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRecoversPanickingJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	var runs int32
	_, err := s.ScheduleInterval(time.Second, func() {
		atomic.AddInt32(&runs, 1)
		panic("boom")
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 4*time.Second, 50*time.Millisecond)
}

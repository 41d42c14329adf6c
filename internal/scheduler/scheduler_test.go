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

type countingJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "30 6 * * 1-5"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "every day"}), "invalid schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestScheduler_RunJobWithRetry(t *testing.T) {
	s := New(nil).WithRetry(2, time.Millisecond)
	job := &countingJob{name: "refresh", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("refresh")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
}

func TestScheduler_RunJobExhausted(t *testing.T) {
	s := New(nil).WithRetry(1, time.Millisecond)
	require.NoError(t, s.AddJob(&countingJob{name: "refresh", schedule: "@daily", failures: 10}))

	result, err := s.RunJob("refresh")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.GetJobStats()["refresh"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_RunUnknownJob(t *testing.T) {
	_, err := New(nil).RunJob("missing")
	assert.Error(t, err)
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_StopCancelsRetryWait(t *testing.T) {
	s := New(nil).WithRetry(3, time.Hour)
	require.NoError(t, s.AddJob(&countingJob{name: "slow", schedule: "@daily", failures: 10}))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJob("slow")
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.Attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())
	assert.Empty(t, h.Latest(5))

	for i := 0; i < maxHistory+10; i++ {
		h.Record(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.Latest(3), 3)
	assert.Len(t, h.Failures(), maxHistory/2)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}

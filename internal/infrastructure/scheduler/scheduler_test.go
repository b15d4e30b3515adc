package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job " + j.name }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultSchedulerConfig()
	cfg.MaxHistorySize = 3
	s, err := NewScheduler(cfg)
	require.NoError(t, err)
	return s
}

func TestScheduler_RegisterRejectsDuplicatesAndBadIntervals(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "sweep"}

	require.NoError(t, s.Every(job, time.Hour, false))
	assert.ErrorIs(t, s.Every(job, time.Hour, false), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Every(&countingJob{name: "other"}, 0, false), ErrInvalidSchedule)
	assert.ErrorIs(t, s.Every(nil, time.Hour, false), ErrNilJob)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "every 1h0m0s", jobs[0].Schedule)
}

func TestScheduler_RunNowRecordsResults(t *testing.T) {
	s := newTestScheduler(t)
	failing := &countingJob{name: "weekly_reset", err: errors.New("disk full")}
	require.NoError(t, s.Every(failing, time.Hour, false))

	var failed string
	s.OnJobError(func(name string, err error) { failed = name })

	result, err := s.RunNow("weekly_reset")

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Manual)
	assert.Equal(t, "weekly_reset", failed)
	assert.Equal(t, int64(1), s.GetMetrics().Snapshot().TotalFailures)

	_, err = s.RunNow("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "sweep"}
	require.NoError(t, s.Every(job, time.Hour, false))

	for i := 0; i < 5; i++ {
		_, err := s.RunNow("sweep")
		require.NoError(t, err)
	}

	assert.Len(t, s.GetHistory(0), 3)
	assert.Len(t, s.GetHistory(2), 2)
	assert.Equal(t, int64(5), s.ListJobs()[0].RunCount)
}

func TestScheduler_StartRunsImmediateJobs(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "weekly_reset"}
	require.NoError(t, s.Every(job, time.Hour, true))

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_Cron(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "weekly_reset"}

	require.NoError(t, s.Cron(job, "0 0 * * 0"))
	assert.ErrorIs(t, s.Cron(&countingJob{name: "broken"}, "not a cron"), ErrInvalidSchedule)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "cron 0 0 * * 0", jobs[0].Schedule)
	assert.ErrorIs(t, s.Cron(job, "0 1 * * 0"), ErrJobAlreadyExists)
}

func TestJobResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(JobResult{
		JobName:  "weekly_reset",
		Duration: 1500 * time.Millisecond,
		Error:    errors.New("disk full"),
		Manual:   true,
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "weekly_reset", got["job"])
	assert.Equal(t, "disk full", got["error"])
	assert.Equal(t, float64(1500), got["duration_ms"])
	assert.Equal(t, false, got["success"])
}

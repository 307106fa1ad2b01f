package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (j *countingJob) Name() string {
	return j.name
}

func (j *countingJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJobRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countingJob{name: "a"}, "not a spec"))
	require.NoError(t, s.AddJob(&countingJob{name: "a"}, "*/5 * * * *"))
	require.Error(t, s.AddJob(&countingJob{name: "a"}, "*/5 * * * *"))
	require.Error(t, s.AddJob(&countingJob{name: "b"}, "0 0 * * * *"))
}

func TestRunNow(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "purge", err: errors.New("db down")}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))

	ran, err := s.RunNow(context.Background(), "purge")
	require.True(t, ran)
	require.Error(t, err)
	require.Equal(t, int32(1), job.calls.Load())

	_, err = s.RunNow(context.Background(), "missing")
	require.Error(t, err)
}

func TestRunNowSkipsOverlap(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background(), "slow")
	}()
	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)

	ran, err := s.RunNow(context.Background(), "slow")
	require.NoError(t, err)
	require.False(t, ran)

	close(job.block)
	<-done
	require.Equal(t, int32(1), job.calls.Load())
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a"}, "*/5 * * * *"))
	require.True(t, s.Next("a").IsZero())
	s.Start(context.Background())
	require.False(t, s.Next("a").IsZero())
	s.Stop()
	s.Stop()
}

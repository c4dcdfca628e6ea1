package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewRegistersJobs(t *testing.T) {
	var buf bytes.Buffer
	noop := func(context.Context) (int, error) { return 0, nil }

	s, err := New([]Job{
		{Name: "check-overdue", Spec: "0 */15 * * * *", Run: noop},
		{Name: "return-reminders", Spec: "0 0 9 * * *", Run: noop},
	}, WithLogger(quietLogger(&buf)))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestNewRejectsBadSpec(t *testing.T) {
	noop := func(context.Context) (int, error) { return 0, nil }
	_, err := New([]Job{{Name: "bad", Spec: "not a spec", Run: noop}})
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicateAndIncomplete(t *testing.T) {
	noop := func(context.Context) (int, error) { return 0, nil }
	s, err := New(nil, WithLogger(quietLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	require.NoError(t, s.Register(Job{Name: "a", Spec: "@hourly", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "a", Spec: "@hourly", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "", Spec: "@hourly", Run: noop}))
	assert.Error(t, s.Register(Job{Name: "b", Spec: "@hourly"}))
	assert.Equal(t, 1, s.Len())
}

func TestRunNow(t *testing.T) {
	var buf bytes.Buffer
	var deadline bool
	s, err := New([]Job{{
		Name: "check-overdue",
		Spec: "@daily",
		Run: func(ctx context.Context) (int, error) {
			_, deadline = ctx.Deadline()
			return 3, nil
		},
	}}, WithLogger(quietLogger(&buf)), WithTimeout(time.Second))
	require.NoError(t, err)

	n, err := s.RunNow("check-overdue")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, deadline)
	assert.Contains(t, buf.String(), "job completed")

	_, err = s.RunNow("missing")
	assert.Error(t, err)
}

func TestRunNowReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	s, err := New([]Job{{
		Name: "failing",
		Spec: "@daily",
		Run:  func(context.Context) (int, error) { return 0, boom },
	}}, WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	_, err = s.RunNow("failing")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "job failed")
}

func TestRunWithRecovery(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(nil, WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.runWithRecovery(Job{Name: "panicky", Run: func(context.Context) (int, error) {
			panic("kaboom")
		}})
	})
	assert.Contains(t, buf.String(), "job panicked")
}

func TestScheduledRun(t *testing.T) {
	var calls atomic.Int32
	s, err := New([]Job{{
		Name: "tick",
		Spec: "* * * * * *",
		Run: func(context.Context) (int, error) {
			calls.Add(1)
			return 0, nil
		},
	}}, WithLogger(quietLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestStopCancelsRunningJob(t *testing.T) {
	var first atomic.Bool
	started := make(chan struct{})
	finished := make(chan error, 1)
	s, err := New([]Job{{
		Name: "slow",
		Spec: "* * * * * *",
		Run: func(ctx context.Context) (int, error) {
			if !first.CompareAndSwap(false, true) {
				return 0, nil
			}
			close(started)
			<-ctx.Done()
			finished <- ctx.Err()
			return 0, ctx.Err()
		},
	}}, WithLogger(quietLogger(&bytes.Buffer{})), WithTimeout(time.Minute))
	require.NoError(t, err)

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while a job was running")
	}
	assert.ErrorIs(t, <-finished, context.Canceled)
}

func TestParentContextCancelsRuns(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s, err := New([]Job{{
		Name: "purge",
		Spec: "0 30 3 * * *",
		Run:  func(ctx context.Context) (int, error) { return 0, ctx.Err() },
	}}, WithLogger(quietLogger(&bytes.Buffer{})), WithContext(parent))
	require.NoError(t, err)

	_, err = s.RunNow("purge")
	require.NoError(t, err)

	cancel()
	_, err = s.RunNow("purge")
	assert.ErrorIs(t, err, context.Canceled)
}

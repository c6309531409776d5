package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhirajmuduli/Heatmaps/internal/observability"
)

const testSessionID = "sess-1"

func newTestRunner(queueSize int) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, observability.NewMetricsForTesting(), queueSize)
}

func waitForState(t *testing.T, r *Runner, id string, want JobState) Status {
	t.Helper()
	var st Status
	require.Eventually(t, func() bool {
		var err error
		st, err = r.Status(id)
		require.NoError(t, err)
		return st.State == want
	}, 5*time.Second, 5*time.Millisecond)
	return st
}

func noopJob(sessionID string) Job {
	return Job{
		SessionID: sessionID,
		Kind:      KindGenerate,
		Run: func(context.Context) (any, error) {
			return nil, nil
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("job runs to done with result", func(t *testing.T) {
		r := newTestRunner(4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx, 1)

		id, err := r.Submit(Job{
			SessionID: testSessionID,
			Kind:      KindGenerate,
			Run: func(context.Context) (any, error) {
				return "payload", nil
			},
		})
		require.NoError(t, err)

		st := waitForState(t, r, id, StateDone)
		assert.Equal(t, "payload", st.Result)
		assert.Equal(t, KindGenerate, st.Kind)
		assert.Equal(t, testSessionID, st.SessionID)
		assert.False(t, st.FinishedAt.IsZero())
	})

	t.Run("failing job reports its error", func(t *testing.T) {
		r := newTestRunner(4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx, 1)

		id, err := r.Submit(Job{
			SessionID: testSessionID,
			Kind:      KindGenerate,
			Run: func(context.Context) (any, error) {
				return nil, errors.New("interpolation blew up")
			},
		})
		require.NoError(t, err)

		st := waitForState(t, r, id, StateFailed)
		assert.Contains(t, st.Error, "interpolation blew up")
		assert.Nil(t, st.Result)
	})

	t.Run("new submission supersedes the queued job", func(t *testing.T) {
		// No workers started: the first job stays pending in the queue.
		r := newTestRunner(4)

		first, err := r.Submit(noopJob(testSessionID))
		require.NoError(t, err)
		second, err := r.Submit(noopJob(testSessionID))
		require.NoError(t, err)

		st, err := r.Status(first)
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, st.State)

		st, err = r.Status(second)
		require.NoError(t, err)
		assert.Equal(t, StatePending, st.State)
	})

	t.Run("new submission cancels the running job", func(t *testing.T) {
		r := newTestRunner(4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx, 2)

		started := make(chan struct{})
		first, err := r.Submit(Job{
			SessionID: testSessionID,
			Kind:      KindGenerate,
			Run: func(jobCtx context.Context) (any, error) {
				close(started)
				<-jobCtx.Done()
				return nil, jobCtx.Err()
			},
		})
		require.NoError(t, err)
		<-started

		second, err := r.Submit(Job{
			SessionID: testSessionID,
			Kind:      KindGenerate,
			Run: func(context.Context) (any, error) {
				return "fresh", nil
			},
		})
		require.NoError(t, err)

		waitForState(t, r, first, StateCancelled)
		st := waitForState(t, r, second, StateDone)
		assert.Equal(t, "fresh", st.Result)
	})

	t.Run("different sessions do not supersede each other", func(t *testing.T) {
		r := newTestRunner(4)

		first, err := r.Submit(noopJob("sess-a"))
		require.NoError(t, err)
		_, err = r.Submit(noopJob("sess-b"))
		require.NoError(t, err)

		st, err := r.Status(first)
		require.NoError(t, err)
		assert.Equal(t, StatePending, st.State)
	})

	t.Run("cancel pending job", func(t *testing.T) {
		r := newTestRunner(4)
		id, err := r.Submit(noopJob(testSessionID))
		require.NoError(t, err)

		require.NoError(t, r.Cancel(id))
		st, err := r.Status(id)
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, st.State)
	})

	t.Run("cancel running job", func(t *testing.T) {
		r := newTestRunner(4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r.Start(ctx, 1)

		started := make(chan struct{})
		id, err := r.Submit(Job{
			SessionID: testSessionID,
			Kind:      KindGenerate,
			Run: func(jobCtx context.Context) (any, error) {
				close(started)
				<-jobCtx.Done()
				return nil, jobCtx.Err()
			},
		})
		require.NoError(t, err)
		<-started

		require.NoError(t, r.Cancel(id))
		waitForState(t, r, id, StateCancelled)
	})

	t.Run("unknown job id", func(t *testing.T) {
		r := newTestRunner(4)
		_, err := r.Status("missing")
		assert.ErrorIs(t, err, ErrUnknownJob)
		assert.ErrorIs(t, r.Cancel("missing"), ErrUnknownJob)
	})

	t.Run("saturated queue rejects", func(t *testing.T) {
		r := newTestRunner(1)

		_, err := r.Submit(noopJob("sess-a"))
		require.NoError(t, err)

		_, err = r.Submit(noopJob("sess-b"))
		assert.ErrorIs(t, err, ErrQueueFull)
	})
}

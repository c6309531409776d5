package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/pipeline"
)

const (
	testParameter = "temperature"
	testTimestamp = "2026-08-01T00:00:00Z"
)

func testSample(value float64) domain.StationSample {
	return domain.StationSample{
		Latitude:  19.65,
		Longitude: 85.31,
		Parameter: testParameter,
		Timestamp: testTimestamp,
		Value:     value,
	}
}

func testBoundary(t *testing.T) geometry.Region {
	t.Helper()
	p, err := geometry.NewPolygon([]geometry.Ring{
		{{X: 85, Y: 19}, {X: 86, Y: 19}, {X: 86, Y: 20}, {X: 85, Y: 20}, {X: 85, Y: 19}},
	})
	require.NoError(t, err)
	return p
}

func TestSessionStateMachine(t *testing.T) {
	t.Run("new session is empty", func(t *testing.T) {
		sess := NewManager().Create()
		assert.Equal(t, StateEmpty, sess.State())
		assert.NotEmpty(t, sess.ID())
	})

	t.Run("adding samples loads the session", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))
		assert.Equal(t, StateSamplesLoaded, sess.State())
	})

	t.Run("stored batch marks frames rendered", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))

		_, _, generation := sess.Snapshot()
		sess.BeginJob(false)
		assert.Equal(t, StateFieldsComputed, sess.State())

		ok := sess.StoreBatch(generation, &pipeline.BatchResult{Parameter: testParameter})
		sess.EndJob()

		assert.True(t, ok)
		assert.Equal(t, StateFramesRendered, sess.State())
	})

	t.Run("stored animation marks animation ready", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))

		_, _, generation := sess.Snapshot()
		sess.BeginJob(true)
		assert.Equal(t, StateAnimationRequested, sess.State())

		ok := sess.StoreAnimation(generation, &domain.AnimationSequence{Parameter: testParameter})
		sess.EndJob()

		assert.True(t, ok)
		assert.Equal(t, StateAnimationReady, sess.State())
	})

	t.Run("deleting the last sample empties the session", func(t *testing.T) {
		sess := NewManager().Create()
		s := testSample(1)
		require.NoError(t, sess.AddSamples([]domain.StationSample{s}))
		require.NoError(t, sess.DeleteSample(s.Key()))
		assert.Equal(t, StateEmpty, sess.State())
	})
}

func TestSessionMutationRules(t *testing.T) {
	t.Run("mutations rejected while a job runs", func(t *testing.T) {
		sess := NewManager().Create()
		s := testSample(1)
		require.NoError(t, sess.AddSamples([]domain.StationSample{s}))

		sess.BeginJob(false)
		assert.ErrorIs(t, sess.AddSamples([]domain.StationSample{testSample(2)}), ErrSessionBusy)
		assert.ErrorIs(t, sess.DeleteSample(s.Key()), ErrSessionBusy)
		sess.EndJob()

		assert.NoError(t, sess.AddSamples([]domain.StationSample{testSample(2)}))
	})

	t.Run("boundary set exactly once", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.SetBoundary(testBoundary(t)))
		assert.ErrorIs(t, sess.SetBoundary(testBoundary(t)), ErrBoundaryImmutable)
	})

	t.Run("deleting an unknown key is not found", func(t *testing.T) {
		sess := NewManager().Create()
		err := sess.DeleteSample(testSample(1).Key())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("snapshot is isolated from later mutations", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))

		snapshot, _, _ := sess.Snapshot()
		require.NoError(t, sess.AddSamples([]domain.StationSample{{
			Latitude: 19.70, Longitude: 85.40, Parameter: testParameter, Timestamp: testTimestamp, Value: 9,
		}}))

		assert.Equal(t, 1, snapshot.Len())
	})
}

func TestSessionInvalidation(t *testing.T) {
	t.Run("sample mutation discards stale results", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))

		_, _, generation := sess.Snapshot()

		// The sample set changes while the job result is in flight.
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(42)}))

		ok := sess.StoreBatch(generation, &pipeline.BatchResult{Parameter: testParameter})
		assert.False(t, ok)
		_, found := sess.Batch(testParameter)
		assert.False(t, found)

		okAnim := sess.StoreAnimation(generation, &domain.AnimationSequence{Parameter: testParameter})
		assert.False(t, okAnim)
	})

	t.Run("mutation clears cached batches", func(t *testing.T) {
		sess := NewManager().Create()
		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(1)}))

		_, _, generation := sess.Snapshot()
		require.True(t, sess.StoreBatch(generation, &pipeline.BatchResult{
			Parameter: testParameter,
			Range:     domain.GlobalRange{Min: 1, Max: 9},
		}))

		rng, found := sess.Range(testParameter)
		require.True(t, found)
		assert.Equal(t, domain.GlobalRange{Min: 1, Max: 9}, *rng)

		require.NoError(t, sess.AddSamples([]domain.StationSample{testSample(42)}))

		_, found = sess.Batch(testParameter)
		assert.False(t, found)
		_, found = sess.Range(testParameter)
		assert.False(t, found)
		assert.Equal(t, StateSamplesLoaded, sess.State())
	})
}

func TestManager(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		m := NewManager()
		sess := m.Create()

		got, err := m.Get(sess.ID())
		require.NoError(t, err)
		assert.Same(t, sess, got)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("ids are unique", func(t *testing.T) {
		m := NewManager()
		a := m.Create()
		b := m.Create()
		assert.NotEqual(t, a.ID(), b.ID())
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := NewManager().Get("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		m := NewManager()
		sess := m.Create()

		require.NoError(t, m.Delete(sess.ID()))
		assert.Equal(t, 0, m.Len())
		assert.ErrorIs(t, m.Delete(sess.ID()), ErrNotFound)
	})
}

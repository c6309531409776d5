package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testParameter = "temperature"
	testTimestamp = "2026-08-01T06:00:00Z"
)

func TestParseSamples(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		samples, skipped := ParseSamples([]RawSample{
			{Latitude: "19.65", Longitude: "85.31", Parameter: testParameter, Timestamp: testTimestamp, Value: "27.4"},
		})

		require.Len(t, samples, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, 19.65, samples[0].Latitude)
		assert.Equal(t, 85.31, samples[0].Longitude)
		assert.Equal(t, testParameter, samples[0].Parameter)
		assert.Equal(t, 27.4, samples[0].Value)
	})

	t.Run("empty parameter defaults to observation", func(t *testing.T) {
		samples, skipped := ParseSamples([]RawSample{
			{Latitude: "19.65", Longitude: "85.31", Timestamp: testTimestamp, Value: "1"},
		})

		require.Len(t, samples, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, "observation", samples[0].Parameter)
	})

	t.Run("malformed rows are skipped, rest survive", func(t *testing.T) {
		samples, skipped := ParseSamples([]RawSample{
			{Latitude: "not-a-number", Longitude: "85.31", Timestamp: testTimestamp, Value: "1"},
			{Latitude: "19.65", Longitude: "85.31", Timestamp: testTimestamp, Value: "2"},
			{Latitude: "19.70", Longitude: "85.35", Timestamp: testTimestamp, Value: "NaN"},
			{Latitude: "91.0", Longitude: "85.31", Timestamp: testTimestamp, Value: "3"},
			{Latitude: "19.80", Longitude: "85.40", Timestamp: "", Value: "4"},
			{Latitude: "19.90", Longitude: "85.45", Timestamp: testTimestamp, Value: "5"},
		})

		require.Len(t, samples, 2)
		require.Len(t, skipped, 4)
		assert.Equal(t, 2.0, samples[0].Value)
		assert.Equal(t, 5.0, samples[1].Value)
		assert.Equal(t, 0, skipped[0].Index)
		assert.Equal(t, 2, skipped[1].Index)
		assert.Equal(t, 3, skipped[2].Index)
		assert.Equal(t, 4, skipped[3].Index)
	})

	t.Run("infinity is rejected", func(t *testing.T) {
		samples, skipped := ParseSamples([]RawSample{
			{Latitude: "19.65", Longitude: "85.31", Timestamp: testTimestamp, Value: "+Inf"},
		})

		assert.Empty(t, samples)
		require.Len(t, skipped, 1)
		assert.Contains(t, skipped[0].Reason, "value")
	})

	t.Run("longitude out of range", func(t *testing.T) {
		samples, skipped := ParseSamples([]RawSample{
			{Latitude: "19.65", Longitude: "183.2", Timestamp: testTimestamp, Value: "1"},
		})

		assert.Empty(t, samples)
		require.Len(t, skipped, 1)
		assert.Contains(t, skipped[0].Reason, "out of range")
	})
}

func TestSampleSet(t *testing.T) {
	sample := func(lat, lon, value float64, ts string) StationSample {
		return StationSample{Latitude: lat, Longitude: lon, Parameter: testParameter, Timestamp: ts, Value: value}
	}

	t.Run("duplicate key overwrites", func(t *testing.T) {
		ss := NewSampleSet()
		ss.Add(sample(19.65, 85.31, 10, testTimestamp))
		ss.Add(sample(19.65, 85.31, 42, testTimestamp))

		assert.Equal(t, 1, ss.Len())
		got := ss.At(testParameter, testTimestamp)
		require.Len(t, got, 1)
		assert.Equal(t, 42.0, got[0].Value)
	})

	t.Run("timestamps keep declared order", func(t *testing.T) {
		ss := NewSampleSet()
		ss.Add(sample(19.65, 85.31, 1, "2026-08-02T00:00:00Z"))
		ss.Add(sample(19.65, 85.31, 2, "2026-08-01T00:00:00Z"))
		ss.Add(sample(19.70, 85.35, 3, "2026-08-02T00:00:00Z"))

		assert.Equal(t, []string{"2026-08-02T00:00:00Z", "2026-08-01T00:00:00Z"}, ss.Timestamps(testParameter))
	})

	t.Run("at returns stations sorted by coordinates", func(t *testing.T) {
		ss := NewSampleSet()
		ss.Add(sample(19.90, 85.45, 3, testTimestamp))
		ss.Add(sample(19.65, 85.31, 1, testTimestamp))
		ss.Add(sample(19.65, 85.40, 2, testTimestamp))

		got := ss.At(testParameter, testTimestamp)
		require.Len(t, got, 3)
		assert.Equal(t, 1.0, got[0].Value)
		assert.Equal(t, 2.0, got[1].Value)
		assert.Equal(t, 3.0, got[2].Value)
	})

	t.Run("delete prunes timestamp when last sample goes", func(t *testing.T) {
		ss := NewSampleSet()
		s := sample(19.65, 85.31, 1, testTimestamp)
		ss.Add(s)

		require.True(t, ss.Delete(s.Key()))
		assert.Equal(t, 0, ss.Len())
		assert.Empty(t, ss.Timestamps(testParameter))
		assert.False(t, ss.Delete(s.Key()))
	})

	t.Run("delete keeps timestamp while other samples reference it", func(t *testing.T) {
		ss := NewSampleSet()
		first := sample(19.65, 85.31, 1, testTimestamp)
		ss.Add(first, sample(19.70, 85.35, 2, testTimestamp))

		require.True(t, ss.Delete(first.Key()))
		assert.Equal(t, []string{testTimestamp}, ss.Timestamps(testParameter))
	})

	t.Run("parameters sorted", func(t *testing.T) {
		ss := NewSampleSet()
		ss.Add(StationSample{Latitude: 1, Longitude: 1, Parameter: "salinity", Timestamp: testTimestamp, Value: 1})
		ss.Add(StationSample{Latitude: 1, Longitude: 1, Parameter: "chlorophyll", Timestamp: testTimestamp, Value: 2})

		assert.Equal(t, []string{"chlorophyll", "salinity"}, ss.Parameters())
	})

	t.Run("clone is independent", func(t *testing.T) {
		ss := NewSampleSet()
		ss.Add(sample(19.65, 85.31, 1, testTimestamp))

		clone := ss.Clone()
		clone.Add(sample(19.70, 85.35, 2, testTimestamp))

		assert.Equal(t, 1, ss.Len())
		assert.Equal(t, 2, clone.Len())
	})
}

func TestGlobalRangeNormalize(t *testing.T) {
	t.Run("maps linearly and clamps", func(t *testing.T) {
		rng := GlobalRange{Min: 2, Max: 8}

		assert.InDelta(t, 0.0, rng.Normalize(2), 1e-12)
		assert.InDelta(t, 0.5, rng.Normalize(5), 1e-12)
		assert.InDelta(t, 1.0, rng.Normalize(8), 1e-12)
		assert.InDelta(t, 0.0, rng.Normalize(-3), 1e-12)
		assert.InDelta(t, 1.0, rng.Normalize(99), 1e-12)
	})

	t.Run("degenerate range maps everything to mid-scale", func(t *testing.T) {
		rng := GlobalRange{Min: 5, Max: 5}

		assert.True(t, rng.Degenerate())
		assert.Equal(t, 0.5, rng.Normalize(5))
		assert.Equal(t, 0.5, rng.Normalize(-100))
	})

	t.Run("NaN maps to mid-scale", func(t *testing.T) {
		rng := GlobalRange{Min: 2, Max: 8}
		assert.Equal(t, 0.5, rng.Normalize(math.NaN()))
	})
}

func TestRenderConfigValidate(t *testing.T) {
	t.Run("defaults applied to zero fields", func(t *testing.T) {
		cfg := RenderConfig{}
		require.NoError(t, cfg.Validate(800))

		assert.Equal(t, DefaultPower, cfg.Power)
		require.NotNil(t, cfg.Opacity)
		assert.Equal(t, DefaultOpacity, *cfg.Opacity)
		assert.Equal(t, DefaultRows, cfg.Rows)
		assert.Equal(t, DefaultCols, cfg.Cols)
	})

	t.Run("resolution above limit rejected", func(t *testing.T) {
		cfg := RenderConfig{Rows: 900, Cols: 200}
		assert.Error(t, cfg.Validate(800))
	})

	t.Run("opacity out of range rejected", func(t *testing.T) {
		opacity := 1.5
		cfg := RenderConfig{Opacity: &opacity}
		assert.Error(t, cfg.Validate(800))
	})

	t.Run("explicit zero opacity is honored", func(t *testing.T) {
		opacity := 0.0
		cfg := RenderConfig{Opacity: &opacity}
		require.NoError(t, cfg.Validate(800))

		assert.Equal(t, 0.0, cfg.OpacityValue())
	})

	t.Run("power above maximum rejected", func(t *testing.T) {
		cfg := RenderConfig{Power: 200}
		assert.Error(t, cfg.Validate(800))

		cfg = RenderConfig{Power: MaxPower}
		assert.NoError(t, cfg.Validate(800))
	})
}

func TestAnimationConfigValidate(t *testing.T) {
	base := AnimationConfig{
		Parameter:          testParameter,
		StartTimestamp:     "2026-08-01T00:00:00Z",
		EndTimestamp:       "2026-08-02T00:00:00Z",
		IntermediateFrames: 5,
	}

	t.Run("valid window", func(t *testing.T) {
		assert.NoError(t, base.Validate(120))
	})

	t.Run("identical endpoints rejected", func(t *testing.T) {
		cfg := base
		cfg.EndTimestamp = cfg.StartTimestamp
		assert.Error(t, cfg.Validate(120))
	})

	t.Run("zero intermediate frames rejected", func(t *testing.T) {
		cfg := base
		cfg.IntermediateFrames = 0
		assert.Error(t, cfg.Validate(120))
	})

	t.Run("frame count above limit rejected", func(t *testing.T) {
		cfg := base
		cfg.IntermediateFrames = 121
		assert.Error(t, cfg.Validate(120))
	})
}

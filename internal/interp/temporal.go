package interp

import (
	"fmt"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
)

// SyntheticStep is one interior animation step: a synthesized sample set at
// fractional position Fraction between two real timestamps. Steps that lost
// every station to endpoint mismatch carry a step-scoped Err instead of
// samples.
type SyntheticStep struct {
	Index     int     // 1-based position between the endpoints
	Fraction  float64 // i/(k+1)
	Timestamp string  // synthetic label, never a measured timestamp
	Samples   []domain.StationSample
	Err       error
}

// TemporalSteps linearly interpolates per-station values between the sample
// sets of two real timestamps, producing k synthetic steps at fractions
// 1/(k+1) .. k/(k+1):
//
//	v(f) = v0 + f·(v1 - v0)
//
// Only stations present at both endpoints (same coordinates) participate;
// a station missing from either side is excluded from every step rather
// than failing the animation. If that leaves zero stations, each step
// carries ErrMissingStationAcrossWindow so the caller can skip those steps
// while the endpoints still render.
//
// This is plain linear blending with no physical validation; the output is
// experimental by contract and must be labeled as such downstream.
func TemporalSteps(startTS, endTS string, start, end []domain.StationSample, k int) []SyntheticStep {
	type coord struct{ lat, lon float64 }

	endByCoord := make(map[coord]domain.StationSample, len(end))
	for _, s := range end {
		endByCoord[coord{s.Latitude, s.Longitude}] = s
	}

	type pair struct {
		station domain.StationSample
		v0, v1  float64
	}
	var pairs []pair
	for _, s := range start {
		if other, ok := endByCoord[coord{s.Latitude, s.Longitude}]; ok {
			pairs = append(pairs, pair{station: s, v0: s.Value, v1: other.Value})
		}
	}

	steps := make([]SyntheticStep, 0, k)
	for i := 1; i <= k; i++ {
		f := float64(i) / float64(k+1)
		step := SyntheticStep{
			Index:     i,
			Fraction:  f,
			Timestamp: fmt.Sprintf("%s..%s step %d/%d", startTS, endTS, i, k+1),
		}

		if len(pairs) == 0 {
			step.Err = fmt.Errorf("%w: between %q and %q", domain.ErrMissingStationAcrossWindow, startTS, endTS)
			steps = append(steps, step)
			continue
		}

		samples := make([]domain.StationSample, 0, len(pairs))
		for _, p := range pairs {
			s := p.station
			s.Timestamp = step.Timestamp
			s.Value = p.v0 + f*(p.v1-p.v0)
			samples = append(samples, s)
		}
		step.Samples = samples
		steps = append(steps, step)
	}

	return steps
}

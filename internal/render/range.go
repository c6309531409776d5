package render

import (
	"math"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/interp"
)

// ComputeRange folds every field of a generation batch into one global
// min/max. It must see all real (measured) fields before any frame of the
// batch is colorized; synthetic animation fields are never passed here, so
// the color scale cannot drift with the interpolation.
//
// The degenerate flag is set when the range collapses to a single value, in
// which case normalization falls back to the mid-scale constant.
func ComputeRange(fields []*interp.Field) (rng domain.GlobalRange, degenerate bool) {
	rng = domain.GlobalRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, f := range fields {
		if f == nil {
			continue
		}
		lo, hi := f.MinMax()
		if lo < rng.Min {
			rng.Min = lo
		}
		if hi > rng.Max {
			rng.Max = hi
		}
	}
	return rng, rng.Degenerate()
}

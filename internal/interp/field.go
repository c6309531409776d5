// Package interp estimates continuous scalar fields from sparse station
// samples: inverse distance weighting onto a raster grid, optional Gaussian
// smoothing of the raw field, and the experimental per-station temporal
// interpolation that animation builds on.
package interp

import "math"

// Field is a raster-grid-shaped array of scalar values, row-major. It is
// produced per timestamp and parameter and owned transiently by the
// rendering pipeline.
type Field struct {
	Rows   int
	Cols   int
	Values []float64
}

// NewField allocates a zeroed field.
func NewField(rows, cols int) *Field {
	return &Field{
		Rows:   rows,
		Cols:   cols,
		Values: make([]float64, rows*cols),
	}
}

// At returns the value at (row, col).
func (f *Field) At(row, col int) float64 {
	return f.Values[row*f.Cols+col]
}

// Set stores value at (row, col).
func (f *Field) Set(row, col int, value float64) {
	f.Values[row*f.Cols+col] = value
}

// MinMax returns the smallest and largest values in the field.
func (f *Field) MinMax() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Variance returns the population variance of the field's values, used by
// tests to verify that smoothing flattens the field.
func (f *Field) Variance() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range f.Values {
		mean += v
	}
	mean /= float64(len(f.Values))

	var sum float64
	for _, v := range f.Values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(f.Values))
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	out := NewField(f.Rows, f.Cols)
	copy(out.Values, f.Values)
	return out
}

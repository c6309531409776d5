package interp

import "math"

// Smooth applies a 2D Gaussian blur with standard deviation sigma (in
// grid-cell units) to the raw interpolated field. It must run on scalar
// values, never on an already colorized raster, or the legend mapping would
// no longer match the pixels.
//
// Cells beyond the grid edge are treated by edge replication, so the field
// does not drift toward zero near borders. A sigma of zero or less disables
// smoothing and returns the input field unchanged.
func Smooth(field *Field, sigma float64) *Field {
	if sigma <= 0 {
		return field
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	// Separable convolution: horizontal pass, then vertical.
	horizontal := NewField(field.Rows, field.Cols)
	for row := 0; row < field.Rows; row++ {
		for col := 0; col < field.Cols; col++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				c := clampIndex(col+k, field.Cols)
				sum += kernel[k+radius] * field.At(row, c)
			}
			horizontal.Set(row, col, sum)
		}
	}

	out := NewField(field.Rows, field.Cols)
	for row := 0; row < field.Rows; row++ {
		for col := 0; col < field.Cols; col++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				r := clampIndex(row+k, field.Rows)
				sum += kernel[k+radius] * horizontal.At(r, col)
			}
			out.Set(row, col, sum)
		}
	}

	return out
}

// gaussianKernel builds a normalized 1D kernel with radius ceil(3σ), wide
// enough to keep truncation error below visual relevance.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}

	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

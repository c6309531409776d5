// Package render turns interpolated scalar fields into color rasters: one
// global normalization range per batch, a monotone colormap lookup, boundary
// masking, and the matching legend image.
package render

import (
	"fmt"
	"image/color"
	"math"
)

// Colormap maps normalized values in [0,1] to RGBA colors by linear
// interpolation between evenly spaced control points. The lookup is
// deterministic and order-preserving: a < b always maps to colors in table
// order, equal values map to identical colors.
type Colormap struct {
	name   string
	colors []color.NRGBA
}

// Name returns the colormap's identifier.
func (c Colormap) Name() string { return c.name }

// At returns the color for normalized value t, clamped to [0,1]. NaN maps
// to the low end of the table.
func (c Colormap) At(t float64) color.NRGBA {
	if math.IsNaN(t) {
		return c.colors[0]
	}
	if t <= 0 {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	pos := t * float64(len(c.colors)-1)
	lower := int(pos)
	upper := lower + 1
	if upper >= len(c.colors) {
		upper = len(c.colors) - 1
	}
	frac := pos - float64(lower)
	return lerpColor(c.colors[lower], c.colors[upper], frac)
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R))),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G))),
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B))),
		A: 255,
	}
}

// Turbo approximates the matplotlib/Google turbo colormap and is the
// default legend scale.
var Turbo = Colormap{
	name: "turbo",
	colors: []color.NRGBA{
		{48, 18, 59, 255},
		{65, 69, 171, 255},
		{70, 117, 237, 255},
		{57, 162, 252, 255},
		{27, 207, 212, 255},
		{36, 236, 166, 255},
		{97, 252, 108, 255},
		{164, 252, 59, 255},
		{209, 232, 52, 255},
		{243, 198, 58, 255},
		{254, 155, 45, 255},
		{243, 99, 21, 255},
		{217, 56, 6, 255},
		{177, 25, 1, 255},
		{130, 10, 2, 255},
		{122, 4, 3, 255},
	},
}

// Viridis (matplotlib viridis) is the alternate perceptually uniform scale.
var Viridis = Colormap{
	name: "viridis",
	colors: []color.NRGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	},
}

// ColormapByName resolves a configured colormap name. Empty selects Turbo.
func ColormapByName(name string) (Colormap, error) {
	switch name {
	case "", "turbo":
		return Turbo, nil
	case "viridis":
		return Viridis, nil
	default:
		return Colormap{}, fmt.Errorf("unknown colormap %q", name)
	}
}

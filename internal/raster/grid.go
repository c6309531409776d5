// Package raster derives the fixed-resolution sample grid a rendering
// session interpolates onto. The grid is computed once per batch and reused
// for every timestamp so fields stay directly comparable.
package raster

import (
	"fmt"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
)

// DefaultMarginFraction inflates the boundary bounding box by this fraction
// of its larger side so stations sitting on the boundary edge are not
// clipped to the outermost cell ring.
const DefaultMarginFraction = 0.02

// Grid is an evenly spaced lattice of cell centers over a geographic
// bounding box. Rows run south to north, columns west to east; the cell
// (0,0) center sits at the south-west corner of the inflated bounds.
type Grid struct {
	Rows   int
	Cols   int
	Bounds geometry.Rect

	stepX float64
	stepY float64
}

// New builds a grid covering the region's bounding box inflated by
// marginFraction of its larger side. The same region and resolution always
// produce the same grid.
func New(region geometry.Region, rows, cols int, marginFraction float64) (*Grid, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("grid resolution must be at least 2x2, got %dx%d", rows, cols)
	}

	bounds := region.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty extent", domain.ErrInvalidBoundary)
	}

	if marginFraction > 0 {
		side := bounds.Width()
		if bounds.Height() > side {
			side = bounds.Height()
		}
		bounds = bounds.Inflate(side * marginFraction)
	}

	return &Grid{
		Rows:   rows,
		Cols:   cols,
		Bounds: bounds,
		stepX:  bounds.Width() / float64(cols-1),
		stepY:  bounds.Height() / float64(rows-1),
	}, nil
}

// Len returns the number of cells.
func (g *Grid) Len() int { return g.Rows * g.Cols }

// CellCenter returns the (lon, lat) center of cell (row, col).
func (g *Grid) CellCenter(row, col int) geometry.Point {
	return geometry.Point{
		X: g.Bounds.Min.X + float64(col)*g.stepX,
		Y: g.Bounds.Min.Y + float64(row)*g.stepY,
	}
}

// CellSize returns the (lon, lat) spacing between adjacent cell centers.
func (g *Grid) CellSize() (dx, dy float64) {
	return g.stepX, g.stepY
}

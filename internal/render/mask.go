package render

import (
	"fmt"
	"image"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/raster"
)

// ApplyMask zeroes the alpha of every pixel whose grid cell center falls
// outside the region, leaving inside pixels untouched. It mutates img in
// place and must run after colorization so masking can never influence the
// numeric range colors were computed from.
//
// Returns the number of cells inside the region; zero inside cells means
// nothing is renderable and yields ErrOutOfBoundsGrid.
func ApplyMask(img *image.NRGBA, grid *raster.Grid, region geometry.Region) (int, error) {
	inside := 0
	for row := 0; row < grid.Rows; row++ {
		y := grid.Rows - 1 - row
		for col := 0; col < grid.Cols; col++ {
			if region.Contains(grid.CellCenter(row, col)) {
				inside++
				continue
			}
			offset := img.PixOffset(col, y)
			img.Pix[offset+3] = 0
		}
	}

	if inside == 0 {
		return 0, fmt.Errorf("%w: %dx%d grid entirely outside region", domain.ErrOutOfBoundsGrid, grid.Rows, grid.Cols)
	}
	return inside, nil
}

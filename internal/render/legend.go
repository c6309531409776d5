package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
)

// Legend layout constants, sized for a narrow vertical colorbar like the
// original renderer produced.
const (
	legendWidth   = 96
	legendBarLeft = 8
	legendBarW    = 20
	legendPadY    = 8
	legendTickW   = 4
)

// Legend renders a vertical colorbar spanning the colormap with numeric
// tick labels against the batch's global range. The top of the bar is the
// maximum, the bottom the minimum, matching the raster's color mapping
// exactly because both go through the same Colormap.At lookup.
//
// ticks is the total number of labeled ticks including both ends; values
// below 2 are raised to 2 so min and max are always labeled.
func Legend(cmap Colormap, rng domain.GlobalRange, height, ticks int) *image.NRGBA {
	if height < 64 {
		height = 64
	}
	if ticks < 2 {
		ticks = 2
	}

	img := image.NewNRGBA(image.Rect(0, 0, legendWidth, height))
	barTop := legendPadY
	barBottom := height - legendPadY
	barH := barBottom - barTop

	for y := barTop; y < barBottom; y++ {
		t := 1 - float64(y-barTop)/float64(barH-1)
		c := cmap.At(t)
		for x := legendBarLeft; x < legendBarLeft+legendBarW; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	black := color.NRGBA{0, 0, 0, 255}
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(black),
		Face: basicfont.Face7x13,
	}

	for i := 0; i < ticks; i++ {
		t := float64(i) / float64(ticks-1)
		value := rng.Min + t*(rng.Max-rng.Min)
		if rng.Degenerate() {
			value = rng.Min
		}
		y := barBottom - 1 - int(t*float64(barH-1))

		for x := legendBarLeft + legendBarW; x < legendBarLeft+legendBarW+legendTickW; x++ {
			img.SetNRGBA(x, y, black)
		}

		label := fmt.Sprintf("%.2f", value)
		drawer.Dot = fixed.P(legendBarLeft+legendBarW+legendTickW+2, y+4)
		drawer.DrawString(label)
	}

	return img
}

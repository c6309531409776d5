package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/interp"
)

// Rasterize colorizes a scalar field through the batch's global range. The
// image is one pixel per grid cell; row 0 of the image is the northernmost
// grid row. Opacity scales the alpha channel only; the stored RGB values
// are identical for any opacity, which keeps the legend mapping valid.
func Rasterize(field *interp.Field, rng domain.GlobalRange, cmap Colormap, opacity float64) *image.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	alphaScale := opacity

	img := image.NewNRGBA(image.Rect(0, 0, field.Cols, field.Rows))
	for row := 0; row < field.Rows; row++ {
		y := field.Rows - 1 - row // grid rows run south to north
		for col := 0; col < field.Cols; col++ {
			c := cmap.At(rng.Normalize(field.At(row, col)))
			c.A = uint8(float64(c.A)*alphaScale + 0.5)
			img.SetNRGBA(col, y, c)
		}
	}
	return img
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

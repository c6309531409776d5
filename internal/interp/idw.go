package interp

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/raster"
)

// CoincidenceTolerance is the per-axis distance in degrees under which a
// grid cell is considered to sit on a station. Such cells take the station
// value exactly, which both avoids the 1/0 weight and guarantees exact
// interpolation at sample points.
const CoincidenceTolerance = 1e-9

type stationSpatial struct {
	x, y  float64
	value float64
	rect  rtreego.Rect
}

func (s *stationSpatial) Bounds() rtreego.Rect { return s.rect }

func newStationSpatial(x, y, value float64) *stationSpatial {
	rect, err := rtreego.NewRect(
		rtreego.Point{x - CoincidenceTolerance, y - CoincidenceTolerance},
		[]float64{2 * CoincidenceTolerance, 2 * CoincidenceTolerance},
	)
	if err != nil {
		panic(err)
	}
	return &stationSpatial{x: x, y: y, value: value, rect: rect}
}

// IDW interpolates station samples onto the grid with inverse distance
// weighting:
//
//	v(p) = Σ wᵢ·vᵢ / Σ wᵢ,  wᵢ = 1/dist(p, stationᵢ)^power
//
// Cells coincident with a station (within CoincidenceTolerance) bypass the
// weighted sum and take that station's value. With a single station the
// whole field equals its value. Zero stations is ErrInsufficientStations.
//
// The spatial index only short-circuits coincidence lookups; the weighted
// sum itself runs over all stations, so results are identical to the plain
// O(M·N) scan.
func IDW(samples []domain.StationSample, grid *raster.Grid, power float64) (*Field, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples for field", domain.ErrInsufficientStations)
	}
	if power <= 0 {
		power = domain.DefaultPower
	}

	field := NewField(grid.Rows, grid.Cols)

	if len(samples) == 1 {
		for i := range field.Values {
			field.Values[i] = samples[0].Value
		}
		return field, nil
	}

	index := rtreego.NewTree(2, 25, 50)
	for _, s := range samples {
		index.Insert(newStationSpatial(s.Longitude, s.Latitude, s.Value))
	}

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			p := grid.CellCenter(row, col)
			if v, ok := coincidentValue(index, p.X, p.Y); ok {
				field.Set(row, col, v)
				continue
			}

			var num, den float64
			for _, s := range samples {
				dx := p.X - s.Longitude
				dy := p.Y - s.Latitude
				dist := math.Sqrt(dx*dx + dy*dy)
				w := 1 / math.Pow(dist, power)
				num += w * s.Value
				den += w
			}
			field.Set(row, col, num/den)
		}
	}

	return field, nil
}

// coincidentValue looks up a station within tolerance of (x, y).
func coincidentValue(index *rtreego.Rtree, x, y float64) (float64, bool) {
	query, err := rtreego.NewRect(
		rtreego.Point{x - CoincidenceTolerance, y - CoincidenceTolerance},
		[]float64{2 * CoincidenceTolerance, 2 * CoincidenceTolerance},
	)
	if err != nil {
		return 0, false
	}
	for _, hit := range index.SearchIntersect(query) {
		s := hit.(*stationSpatial)
		if math.Abs(s.x-x) <= CoincidenceTolerance && math.Abs(s.y-y) <= CoincidenceTolerance {
			return s.value, true
		}
	}
	return 0, false
}

package geometry

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
)

// Ring is a closed linear ring of (lon, lat) points. The first and last
// points are equal.
type Ring []Point

// Polygon is an immutable study-area boundary: ring 0 is the outer shell,
// any further rings are holes. Even-odd ray casting handles both without
// caring about winding order.
type Polygon struct {
	rings  []Ring
	bounds Rect
}

// NewPolygon validates rings and builds a Polygon. Each ring must be closed,
// have at least four points (triangle plus closing point), and enclose a
// non-zero area; otherwise ErrInvalidBoundary is returned.
func NewPolygon(rings []Ring) (*Polygon, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: no rings", domain.ErrInvalidBoundary)
	}

	bounds := EmptyRect
	for i, ring := range rings {
		if len(ring) < 4 {
			return nil, fmt.Errorf("%w: ring %d has only %d points", domain.ErrInvalidBoundary, i, len(ring))
		}
		if ring[0] != ring[len(ring)-1] {
			return nil, fmt.Errorf("%w: ring %d is not closed", domain.ErrInvalidBoundary, i)
		}
		if shoelaceArea(ring) == 0 {
			return nil, fmt.Errorf("%w: ring %d encloses zero area", domain.ErrInvalidBoundary, i)
		}
		for _, p := range ring {
			bounds = bounds.Extend(p)
		}
	}

	if bounds.Empty() {
		return nil, fmt.Errorf("%w: degenerate extent", domain.ErrInvalidBoundary)
	}

	copied := make([]Ring, len(rings))
	for i, ring := range rings {
		copied[i] = append(Ring(nil), ring...)
	}
	return &Polygon{rings: copied, bounds: bounds}, nil
}

// shoelaceArea returns the signed area of a ring; zero means the ring
// degenerates to a point or line (or self-cancels exactly).
func shoelaceArea(ring Ring) float64 {
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return sum / 2
}

// Bounds returns the bounding box over all rings.
func (p *Polygon) Bounds() Rect { return p.bounds }

// Rings returns the ring count, mostly for logging.
func (p *Polygon) Rings() int { return len(p.rings) }

// Contains reports whether point lies inside the polygon using the even-odd
// rule: an odd number of ring-edge crossings along a rightward ray means
// inside. Holes flip the parity back to outside.
func (p *Polygon) Contains(point Point) bool {
	if !p.bounds.Contains(point) {
		return false
	}
	inside := false
	for _, ring := range p.rings {
		for i := 0; i < len(ring)-1; i++ {
			a, b := ring[i], ring[i+1]
			if rayCrosses(point, a, b) {
				inside = !inside
			}
		}
	}
	return inside
}

// rayCrosses reports whether a horizontal ray from pt toward +X crosses the
// edge a-b. The half-open test on Y keeps vertices from being counted twice.
func rayCrosses(pt, a, b Point) bool {
	if (a.Y > pt.Y) == (b.Y > pt.Y) {
		return false
	}
	xCross := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
	return pt.X < xCross
}

// geoJSONGeometry is the subset of GeoJSON the engine accepts: a Polygon
// geometry, or a Feature/FeatureCollection wrapping one.
type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates [][][]float64   `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
	Features    []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

// DecodePolygon parses GeoJSON polygon geometry into a validated Polygon.
// Feature and FeatureCollection wrappers are unwrapped; only the first
// feature of a collection is used, matching how the study-area boundary
// files are produced.
func DecodePolygon(data []byte) (*Polygon, error) {
	var g geoJSONGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBoundary, err)
	}

	switch g.Type {
	case "Polygon":
		return polygonFromCoordinates(g.Coordinates)
	case "Feature":
		return DecodePolygon(g.Geometry)
	case "FeatureCollection":
		if len(g.Features) == 0 {
			return nil, fmt.Errorf("%w: empty feature collection", domain.ErrInvalidBoundary)
		}
		return DecodePolygon(g.Features[0].Geometry)
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", domain.ErrInvalidBoundary, g.Type)
	}
}

func polygonFromCoordinates(coords [][][]float64) (*Polygon, error) {
	rings := make([]Ring, 0, len(coords))
	for i, rawRing := range coords {
		ring := make(Ring, 0, len(rawRing))
		for _, pos := range rawRing {
			if len(pos) < 2 {
				return nil, fmt.Errorf("%w: ring %d has a position with %d ordinates", domain.ErrInvalidBoundary, i, len(pos))
			}
			if math.IsNaN(pos[0]) || math.IsNaN(pos[1]) {
				return nil, fmt.Errorf("%w: ring %d has a NaN ordinate", domain.ErrInvalidBoundary, i)
			}
			ring = append(ring, Point{X: pos[0], Y: pos[1]})
		}
		rings = append(rings, ring)
	}
	return NewPolygon(rings)
}

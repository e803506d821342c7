package avc

import (
	"github.com/paulmach/orb"
)

// Bounds is an axis-aligned bounding box in coverage coordinates.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Contains returns true if the point (x, y) is within the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Union returns the smallest bounds containing both.
func (b Bounds) Union(other Bounds) Bounds {
	u := b
	if other.MinX < u.MinX {
		u.MinX = other.MinX
	}
	if other.MinY < u.MinY {
		u.MinY = other.MinY
	}
	if other.MaxX > u.MaxX {
		u.MaxX = other.MaxX
	}
	if other.MaxY > u.MaxY {
		u.MaxY = other.MaxY
	}
	return u
}

func boundsOf(g orb.Geometry) (Bounds, bool) {
	if g == nil {
		return Bounds{}, false
	}
	switch geom := g.(type) {
	case orb.LineString:
		if len(geom) == 0 {
			return Bounds{}, false
		}
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return Bounds{}, false
		}
	}
	b := g.Bound()
	return Bounds{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}, true
}

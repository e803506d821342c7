package parser

// topology.go - polygon construction from PAL arc lists
//
// A PAL record lists the arcs around a polygon as signed arc IDs. Arcs are
// walked in list order; consecutive arcs share their junction vertex, which
// is kept once. An arc ID of 0 separates rings. A ring is complete when the
// walk returns to its starting vertex at an arc boundary.

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultRingEpsilon is the distance under which two vertices are treated
// as the same node. E00 single precision output rounds coordinates to eight
// significant digits, so exact comparison fails on real exports.
const DefaultRingEpsilon = 1e-3

// ringBuilder constructs polygon geometries from arcs stored in an arena.
type ringBuilder struct {
	arena   *arcArena
	epsilon float64
}

func newRingBuilder(arena *arcArena, epsilon float64) *ringBuilder {
	if epsilon <= 0 {
		epsilon = DefaultRingEpsilon
	}
	return &ringBuilder{arena: arena, epsilon: epsilon}
}

// near reports whether two vertices are within epsilon on both axes.
func (b *ringBuilder) near(p, q orb.Point) bool {
	return math.Abs(p[0]-q[0]) <= b.epsilon && math.Abs(p[1]-q[1]) <= b.epsilon
}

// buildPolygon assembles the rings of poly. The ring with the largest area
// becomes the outer ring; the others keep their encounter order. A
// reference to an arc that is not in the arena fails with a
// *MissingArcError.
func (b *ringBuilder) buildPolygon(poly *Polygon) (orb.Polygon, error) {
	var rings []orb.Ring
	var cur orb.Ring

	finish := func() {
		if len(cur) == 0 {
			return
		}
		if !b.near(cur[0], cur[len(cur)-1]) || len(cur) < 3 {
			cur = append(cur, cur[0])
		} else {
			cur[len(cur)-1] = cur[0]
		}
		rings = append(rings, cur)
		cur = nil
	}

	for _, pa := range poly.Arcs {
		if pa.ArcID == 0 {
			finish()
			continue
		}
		// Bridge arcs have the polygon on both sides and are not part of
		// its boundary.
		if pa.AdjPoly == poly.ID {
			continue
		}
		v, ok := b.arena.view(pa.ArcID)
		if !ok {
			return nil, &MissingArcError{PolygonID: poly.ID, ArcID: pa.ArcID}
		}
		for i := 0; i < v.Len(); i++ {
			p := v.At(i)
			if i == 0 && len(cur) > 0 && b.near(cur[len(cur)-1], p) {
				continue
			}
			cur = append(cur, p)
		}
		if len(cur) >= 3 && b.near(cur[0], cur[len(cur)-1]) {
			cur[len(cur)-1] = cur[0]
			rings = append(rings, cur)
			cur = nil
		}
	}
	finish()

	if len(rings) == 0 {
		return orb.Polygon{}, nil
	}
	return outerFirst(rings), nil
}

// outerFirst moves the ring with the largest absolute area to the front.
func outerFirst(rings []orb.Ring) orb.Polygon {
	outer := 0
	best := -1.0
	for i, r := range rings {
		if a := math.Abs(planar.Area(r)); a > best {
			best = a
			outer = i
		}
	}
	poly := make(orb.Polygon, 0, len(rings))
	poly = append(poly, rings[outer])
	for i, r := range rings {
		if i != outer {
			poly = append(poly, r)
		}
	}
	return poly
}

// isRingClosed checks if a ring is properly closed
func isRingClosed(ring orb.Ring) bool {
	if len(ring) < 3 {
		return false
	}
	return ring[0] == ring[len(ring)-1]
}

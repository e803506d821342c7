package parser

import (
	"github.com/paulmach/orb"
)

// arcArena holds every arc of a coverage, stored once and indexed by arc
// ID. Polygons reference arcs by signed ID and read them through arcView;
// the arena itself is never modified after it is built.
type arcArena struct {
	arcs map[int]*Arc
}

func newArcArena(arcs []Arc) *arcArena {
	a := &arcArena{arcs: make(map[int]*Arc, len(arcs))}
	for i := range arcs {
		a.arcs[arcs[i].ID] = &arcs[i]
	}
	return a
}

// Len returns the number of arcs.
func (a *arcArena) Len() int {
	return len(a.arcs)
}

// view returns a read view of the arc referenced by a signed ID. A negative
// ID yields the arc traversed backwards.
func (a *arcArena) view(signedID int) (arcView, bool) {
	id := signedID
	if id < 0 {
		id = -id
	}
	arc, ok := a.arcs[id]
	if !ok {
		return arcView{}, false
	}
	return arcView{arc: arc, reversed: signedID < 0}, true
}

// arcView is a possibly reversed, read-only window onto an arena arc.
type arcView struct {
	arc      *Arc
	reversed bool
}

// Len returns the number of vertices.
func (v arcView) Len() int {
	return len(v.arc.Vertices)
}

// At returns vertex i in traversal order.
func (v arcView) At(i int) orb.Point {
	if v.reversed {
		i = len(v.arc.Vertices) - 1 - i
	}
	return orb.Point(v.arc.Vertices[i])
}

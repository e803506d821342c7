package parser

import (
	"github.com/paulmach/orb"
)

// FieldDefn describes one column of a layer schema.
type FieldDefn struct {
	Name      string
	Kind      ValueKind
	Width     int
	Precision int
}

// Feature is one assembled coverage feature.
type Feature struct {
	// FID is the feature identifier: ArcId for ARC, PolyId for PAL and CNT,
	// the 1-based record sequence for LAB.
	FID int
	// Geometry is nil when it could not be built; GeometryErr says why.
	Geometry    orb.Geometry
	GeometryErr error
	// Values holds one entry per layer field: int, float64, string, []int,
	// or nil for a null value.
	Values []interface{}
}

// Field returns the value of field i, or nil when out of range.
func (f *Feature) Field(i int) interface{} {
	if i < 0 || i >= len(f.Values) {
		return nil
	}
	return f.Values[i]
}

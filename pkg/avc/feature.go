package avc

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Feature is one coverage feature with its geometry and joined attributes.
type Feature struct {
	fid     int
	geom    orb.Geometry
	geomErr error
	values  []interface{}
	layer   *Layer
}

// FID returns the feature identifier: ArcId for ARC, PolyId for PAL and
// CNT, and the 1-based record number for LAB.
func (f *Feature) FID() int {
	return f.fid
}

// Geometry returns the feature geometry: orb.LineString for ARC, orb.Point
// for CNT and LAB, orb.Polygon for PAL. It is nil when the geometry could
// not be built.
func (f *Feature) Geometry() orb.Geometry {
	return f.geom
}

// GeometryErr explains a nil or invalid geometry.
func (f *Feature) GeometryErr() error {
	return f.geomErr
}

// Bounds returns the geometry extent. ok is false without geometry.
func (f *Feature) Bounds() (b Bounds, ok bool) {
	return boundsOf(f.geom)
}

// FieldCount returns the number of values.
func (f *Feature) FieldCount() int {
	return len(f.values)
}

// Field returns value i: int, float64, string, []int, or nil for a null or
// out of range value.
func (f *Feature) Field(i int) interface{} {
	if i < 0 || i >= len(f.values) {
		return nil
	}
	return f.values[i]
}

// FieldByName returns the named value.
func (f *Feature) FieldByName(name string) (interface{}, bool) {
	if f.layer == nil {
		return nil, false
	}
	i := f.layer.FieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return f.Field(i), true
}

// IsNull reports whether value i is missing.
func (f *Feature) IsNull(i int) bool {
	return f.Field(i) == nil
}

// Int returns value i as an integer.
func (f *Feature) Int(i int) (int, bool) {
	switch v := f.Field(i).(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Float returns value i as a float.
func (f *Feature) Float(i int) (float64, bool) {
	switch v := f.Field(i).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Text returns value i if it is a string.
func (f *Feature) Text(i int) (string, bool) {
	s, ok := f.Field(i).(string)
	return s, ok
}

// IntList returns value i if it is an integer list.
func (f *Feature) IntList(i int) ([]int, bool) {
	l, ok := f.Field(i).([]int)
	return l, ok
}

// Properties returns the values keyed by field name.
func (f *Feature) Properties() map[string]interface{} {
	props := make(map[string]interface{}, len(f.values))
	if f.layer == nil {
		return props
	}
	for i, fd := range f.layer.fields {
		if i < len(f.values) {
			props[fd.Name] = f.values[i]
		}
	}
	return props
}

// WKT returns the geometry as well-known text, or "" without geometry.
func (f *Feature) WKT() string {
	if f.geom == nil {
		return ""
	}
	return wkt.MarshalString(f.geom)
}

// GeoJSON returns the feature as a GeoJSON feature with the FID as id.
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.geom)
	gf.ID = f.fid
	for k, v := range f.Properties() {
		gf.Properties[k] = v
	}
	return gf
}

package parser

import (
	"github.com/paulmach/orb"
)

// GeometryType is the geometry kind of a layer.
type GeometryType int

const (
	GeometryTypeNone GeometryType = iota
	GeometryTypePoint
	GeometryTypeLineString
	GeometryTypePolygon
)

func (t GeometryType) String() string {
	switch t {
	case GeometryTypePoint:
		return "Point"
	case GeometryTypeLineString:
		return "LineString"
	case GeometryTypePolygon:
		return "Polygon"
	default:
		return "None"
	}
}

// geometryTypeOf returns the geometry kind produced for a table.
func geometryTypeOf(kind TableKind) GeometryType {
	switch kind {
	case TableArc:
		return GeometryTypeLineString
	case TablePal:
		return GeometryTypePolygon
	case TableCnt, TableLab:
		return GeometryTypePoint
	default:
		return GeometryTypeNone
	}
}

// arcGeometry converts arc vertices to a line string. The vertex slice is
// copied so features never alias arena storage.
func arcGeometry(a *Arc) orb.LineString {
	ls := make(orb.LineString, len(a.Vertices))
	for i, v := range a.Vertices {
		ls[i] = orb.Point(v)
	}
	return ls
}

// labelGeometry returns the label point. The text box corners are not part
// of the geometry.
func labelGeometry(l *Label) orb.Point {
	return orb.Point(l.Coords[0])
}

func centroidGeometry(c *Centroid) orb.Point {
	return orb.Point{c.X, c.Y}
}

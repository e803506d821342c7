package avc

import (
	"io"
	"strings"
	"sync"

	"github.com/beetlebugorg/avc/internal/parser"
)

// GeometryType is the geometry kind of a layer.
type GeometryType int

const (
	GeometryNone GeometryType = iota
	GeometryPoint
	GeometryLineString
	GeometryPolygon
)

func (t GeometryType) String() string {
	switch t {
	case GeometryPoint:
		return "Point"
	case GeometryLineString:
		return "LineString"
	case GeometryPolygon:
		return "Polygon"
	default:
		return "None"
	}
}

// FieldType is the value category of a layer field.
type FieldType int

const (
	FieldInteger FieldType = iota + 1
	FieldReal
	FieldString
	FieldIntegerList
)

func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "Integer"
	case FieldReal:
		return "Real"
	case FieldString:
		return "String"
	case FieldIntegerList:
		return "IntegerList"
	default:
		return "Unknown"
	}
}

// Field describes one column of a layer.
type Field struct {
	Name      string
	Type      FieldType
	Width     int
	Precision int
}

// Layer is one geometry layer of a coverage: ARC, CNT, LAB or PAL.
type Layer struct {
	cov    *Coverage
	layer  *parser.Layer
	fields []Field
	byName map[string]int

	indexOnce sync.Once
	index     *LayerIndex
	indexErr  error
}

func newLayer(c *Coverage, pl *parser.Layer) *Layer {
	l := &Layer{cov: c, layer: pl, byName: make(map[string]int)}
	for i, fd := range pl.Fields() {
		l.fields = append(l.fields, Field{
			Name:      fd.Name,
			Type:      convertKind(fd.Kind),
			Width:     fd.Width,
			Precision: fd.Precision,
		})
		if _, dup := l.byName[fd.Name]; !dup {
			l.byName[fd.Name] = i
		}
	}
	return l
}

func convertKind(k parser.ValueKind) FieldType {
	switch k {
	case parser.KindInteger:
		return FieldInteger
	case parser.KindReal:
		return FieldReal
	case parser.KindIntegerList:
		return FieldIntegerList
	default:
		return FieldString
	}
}

// Name returns ARC, CNT, LAB or PAL.
func (l *Layer) Name() string {
	return l.layer.Name()
}

// GeometryType returns the layer geometry kind.
func (l *Layer) GeometryType() GeometryType {
	switch l.layer.GeometryType() {
	case parser.GeometryTypePoint:
		return GeometryPoint
	case parser.GeometryTypeLineString:
		return GeometryLineString
	case parser.GeometryTypePolygon:
		return GeometryPolygon
	default:
		return GeometryNone
	}
}

// Fields returns the layer schema: the native fields followed by the
// joined attribute items.
func (l *Layer) Fields() []Field {
	return l.fields
}

// FieldIndex returns the position of the named field, or -1. An exact
// match wins; otherwise case is ignored, so "UserID" finds UserId.
func (l *Layer) FieldIndex(name string) int {
	if i, ok := l.byName[name]; ok {
		return i
	}
	for i, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// FeatureCount returns the number of features Iterate yields.
func (l *Layer) FeatureCount() (int, error) {
	return l.layer.Count()
}

// SpatialReference returns the coverage projection, or nil.
func (l *Layer) SpatialReference() *SpatialReference {
	return newSpatialReference(l.layer.Projection())
}

// SpatialReferenceErr returns the coverage's projection load error.
func (l *Layer) SpatialReferenceErr() error {
	return l.layer.ProjectionErr()
}

// Iterate opens a fresh iterator over the layer's features. Every call
// starts from the first feature.
func (l *Layer) Iterate() (*FeatureIterator, error) {
	cur, err := l.layer.Features()
	if err != nil {
		return nil, err
	}
	return &FeatureIterator{layer: l, cur: cur}, nil
}

// ForEach calls fn for every feature until fn returns false.
func (l *Layer) ForEach(fn func(*Feature) bool) error {
	it, err := l.Iterate()
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		if !fn(it.Feature()) {
			break
		}
	}
	return it.Err()
}

// FeatureIterator walks the features of a layer. It owns a file handle
// that is released at the end of the layer, on error, or by Close.
//
// A FeatureIterator is not safe for concurrent use.
type FeatureIterator struct {
	layer   *Layer
	cur     *parser.Cursor[*parser.Feature]
	feature *Feature
	err     error
}

// Next advances to the next feature. It returns false when the layer is
// exhausted or a record cannot be decoded; check Err afterwards.
func (it *FeatureIterator) Next() bool {
	pf, err := it.cur.Next()
	if err != nil {
		if err != io.EOF {
			it.err = err
		}
		it.feature = nil
		return false
	}
	it.feature = &Feature{
		fid:     pf.FID,
		geom:    pf.Geometry,
		geomErr: pf.GeometryErr,
		values:  pf.Values,
		layer:   it.layer,
	}
	return true
}

// Feature returns the current feature.
func (it *FeatureIterator) Feature() *Feature {
	return it.feature
}

// Err returns the error that stopped iteration, if any.
func (it *FeatureIterator) Err() error {
	return it.err
}

// Reset rewinds the iterator to the first feature.
func (it *FeatureIterator) Reset() error {
	if err := it.cur.Close(); err != nil {
		return err
	}
	cur, err := it.layer.layer.Features()
	if err != nil {
		return err
	}
	it.cur, it.feature, it.err = cur, nil, nil
	return nil
}

// Close releases the iterator's file handle. It is safe to call more than
// once.
func (it *FeatureIterator) Close() error {
	return it.cur.Close()
}

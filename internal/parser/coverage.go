package parser

// coverage.go - layer assembly
//
// A Coverage exposes up to four layers in fixed order: ARC, CNT, LAB, PAL.
// Each layer combines a geometry table with its INFO attribute table, joined
// by 1-based record number (ArcId for ARC, PolyId for PAL, ValueId for LAB).

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

// layerOrder is the order layers are listed in.
var layerOrder = []TableKind{TableArc, TableCnt, TableLab, TablePal}

// aatSkippedFields is the number of leading AAT items (FNODE#, TNODE#,
// LPOLY#, RPOLY#) replaced by the native ARC fields.
const aatSkippedFields = 4

// Coverage is an opened, read-only coverage.
type Coverage struct {
	catalog *Catalog
	opts    OpenOptions
	logger  *slog.Logger
	layers  []*Layer

	arenaOnce sync.Once
	arena     *arcArena
	arenaErr  error

	prjOnce sync.Once
	prj     *Projection
	prjErr  error
}

func newCoverage(cat *Catalog, opts OpenOptions) *Coverage {
	c := &Coverage{
		catalog: cat,
		opts:    opts,
		logger:  opts.Logger.With("coverage", cat.Name()),
	}
	for _, kind := range layerOrder {
		if cat.Has(kind) {
			c.layers = append(c.layers, newLayer(c, kind))
		}
	}
	return c
}

// Catalog returns the underlying table catalog.
func (c *Coverage) Catalog() *Catalog {
	return c.catalog
}

// Name returns the coverage name.
func (c *Coverage) Name() string {
	return c.catalog.Name()
}

// Layers returns the layers in ARC, CNT, LAB, PAL order.
func (c *Coverage) Layers() []*Layer {
	return c.layers
}

// LayerByName finds a layer, ignoring case.
func (c *Coverage) LayerByName(name string) *Layer {
	for _, l := range c.layers {
		if strings.EqualFold(l.name, name) {
			return l
		}
	}
	return nil
}

// Projection returns the coverage's spatial reference, loading it on first
// use. A coverage without PRJ, or with an unreadable or unparseable one, has
// none; ProjectionErr reports the latter.
func (c *Coverage) Projection() *Projection {
	c.loadProjection()
	return c.prj
}

// ProjectionErr returns the error that kept a present PRJ from loading, or
// nil. Features stay readable either way.
func (c *Coverage) ProjectionErr() error {
	c.loadProjection()
	return c.prjErr
}

func (c *Coverage) loadProjection() {
	c.prjOnce.Do(func() {
		lines, ok, err := c.catalog.ProjectionLines()
		if !ok {
			return
		}
		if err != nil {
			c.prjErr = classify(c.catalog.Path(), err)
			c.logger.Warn("cannot read projection", "error", c.prjErr)
			return
		}
		prj, err := ParseProjection(lines)
		if err != nil {
			c.prjErr = classify(c.catalog.Path(), err)
			c.logger.Warn("ignoring invalid projection", "error", c.prjErr)
			return
		}
		c.prj = prj
	})
}

// arcs returns the arc arena, reading the ARC table once.
func (c *Coverage) arcs() (*arcArena, error) {
	c.arenaOnce.Do(func() {
		cur, err := c.catalog.Arcs()
		if err != nil {
			c.arenaErr = err
			return
		}
		arcs, err := collect(cur)
		if err != nil {
			c.arenaErr = err
			return
		}
		c.arena = newArcArena(arcs)
		c.logger.Debug("loaded arc arena", "arcs", c.arena.Len())
	})
	return c.arena, c.arenaErr
}

// Layer is one feature layer of a coverage.
type Layer struct {
	cov  *Coverage
	kind TableKind
	name string

	table      *TableDef // joined attribute table, nil when absent
	attrFields []FieldDef
	fields     []FieldDefn
	native     int // number of native fields before the attribute fields

	rowsOnce sync.Once
	rows     []Row
	rowsErr  error

	countOnce sync.Once
	count     int
	countErr  error
}

func newLayer(c *Coverage, kind TableKind) *Layer {
	l := &Layer{cov: c, kind: kind, name: kind.String()}

	switch kind {
	case TableArc:
		l.fields = []FieldDefn{
			{Name: "UserId", Kind: KindInteger},
			{Name: "FNODE_", Kind: KindInteger},
			{Name: "TNODE_", Kind: KindInteger},
			{Name: "LPOLY_", Kind: KindInteger},
			{Name: "RPOLY_", Kind: KindInteger},
		}
	case TableCnt:
		l.fields = []FieldDefn{{Name: "LabelIds", Kind: KindIntegerList}}
	case TableLab:
		l.fields = []FieldDefn{
			{Name: "ValueId", Kind: KindInteger},
			{Name: "PolyId", Kind: KindInteger},
		}
	case TablePal:
		l.fields = []FieldDefn{{Name: "ArcIds", Kind: KindIntegerList}}
	}
	l.native = len(l.fields)

	var suffix string
	switch kind {
	case TableArc:
		suffix = "AAT"
	case TableLab, TablePal:
		suffix = "PAT"
	}
	if suffix == "" {
		return l
	}
	def, ok := c.catalog.Table(suffix)
	if !ok {
		return l
	}
	l.table = &def
	visible := def.VisibleFields()
	if kind == TableArc {
		if len(visible) > aatSkippedFields {
			visible = visible[aatSkippedFields:]
		} else {
			visible = nil
		}
	}
	l.attrFields = visible
	for _, f := range visible {
		l.fields = append(l.fields, FieldDefn{
			Name:      f.Name,
			Kind:      f.Type.Kind(),
			Width:     f.FmtWidth,
			Precision: f.FmtPrec,
		})
	}
	return l
}

// Name returns ARC, CNT, LAB or PAL.
func (l *Layer) Name() string {
	return l.name
}

// Kind returns the geometry table the layer is built from.
func (l *Layer) Kind() TableKind {
	return l.kind
}

// GeometryType returns the geometry kind of the layer's features.
func (l *Layer) GeometryType() GeometryType {
	return geometryTypeOf(l.kind)
}

// Fields returns the layer schema: native fields followed by the joined
// attribute fields.
func (l *Layer) Fields() []FieldDefn {
	return l.fields
}

// Projection returns the coverage's shared spatial reference.
func (l *Layer) Projection() *Projection {
	return l.cov.Projection()
}

// ProjectionErr returns the coverage's projection load error.
func (l *Layer) ProjectionErr() error {
	return l.cov.ProjectionErr()
}

// Count returns the number of features Features yields.
func (l *Layer) Count() (int, error) {
	l.countOnce.Do(func() {
		l.count, l.countErr = l.computeCount()
	})
	return l.count, l.countErr
}

func (l *Layer) computeCount() (int, error) {
	cat := l.cov.catalog
	if l.kind != TablePal || l.cov.opts.KeepUniversePolygon {
		return cat.Count(l.kind)
	}
	// E00 numbers polygons by sequence, so the universe polygon is the
	// first record.
	if cat.Representation() == RepresentationText {
		n, err := cat.Count(TablePal)
		if err != nil || n == 0 {
			return n, err
		}
		return n - 1, nil
	}
	cur, err := cat.Polygons()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	n := 0
	for {
		p, err := cur.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		if !isUniverse(&p) {
			n++
		}
	}
}

func isUniverse(p *Polygon) bool {
	return p.ID == 1
}

// attributeRows returns the joined table rows, read once.
func (l *Layer) attributeRows() ([]Row, error) {
	l.rowsOnce.Do(func() {
		if l.table == nil {
			return
		}
		cur, err := l.cov.catalog.Rows(l.table.Name)
		if err != nil {
			l.rowsErr = err
			return
		}
		l.rows, l.rowsErr = collect(cur)
	})
	return l.rows, l.rowsErr
}

// appendAttributes appends the attribute values of record key, or nulls
// when the table has no such record.
func (l *Layer) appendAttributes(values []interface{}, rows []Row, key int) []interface{} {
	if l.table == nil {
		return values
	}
	var row Row
	if key >= 1 && key <= len(rows) {
		row = rows[key-1]
	}
	if row == nil {
		for range l.attrFields {
			values = append(values, nil)
		}
		return values
	}
	skip := len(row) - len(l.attrFields)
	return append(values, row[skip:]...)
}

// Features opens a fresh cursor over the layer. Each cursor holds its own
// file handle; call Close when stopping early.
func (l *Layer) Features() (*Cursor[*Feature], error) {
	rows, err := l.attributeRows()
	if err != nil {
		return nil, err
	}
	cat := l.cov.catalog

	switch l.kind {
	case TableArc:
		cur, err := cat.Arcs()
		if err != nil {
			return nil, err
		}
		return mapCursor(cur, func(a Arc) (*Feature, bool) {
			f := &Feature{FID: a.ID, Geometry: arcGeometry(&a)}
			f.Values = make([]interface{}, 0, len(l.fields))
			f.Values = append(f.Values, a.UserID, a.FNode, a.TNode, a.LPoly, a.RPoly)
			f.Values = l.appendAttributes(f.Values, rows, a.ID)
			l.validate(f)
			return f, true
		}), nil

	case TableCnt:
		cur, err := cat.Centroids()
		if err != nil {
			return nil, err
		}
		return mapCursor(cur, func(c Centroid) (*Feature, bool) {
			f := &Feature{FID: c.ID, Geometry: centroidGeometry(&c)}
			f.Values = []interface{}{c.LabelIDs}
			l.validate(f)
			return f, true
		}), nil

	case TableLab:
		cur, err := cat.Labels()
		if err != nil {
			return nil, err
		}
		seq := 0
		return mapCursor(cur, func(lab Label) (*Feature, bool) {
			seq++
			f := &Feature{FID: seq, Geometry: labelGeometry(&lab)}
			f.Values = make([]interface{}, 0, len(l.fields))
			f.Values = append(f.Values, lab.ValueID, lab.PolyID)
			f.Values = l.appendAttributes(f.Values, rows, lab.ValueID)
			l.validate(f)
			return f, true
		}), nil

	case TablePal:
		arena, err := l.cov.arcs()
		if err != nil {
			return nil, err
		}
		builder := newRingBuilder(arena, l.cov.opts.RingEpsilon)
		cur, err := cat.Polygons()
		if err != nil {
			return nil, err
		}
		keep := l.cov.opts.KeepUniversePolygon
		return mapCursor(cur, func(p Polygon) (*Feature, bool) {
			if !keep && isUniverse(&p) {
				return nil, false
			}
			f := &Feature{FID: p.ID}
			poly, err := builder.buildPolygon(&p)
			if err != nil {
				f.GeometryErr = err
				l.cov.logger.Warn("cannot build polygon", "layer", l.name, "fid", p.ID, "error", err)
			} else {
				f.Geometry = poly
			}
			f.Values = make([]interface{}, 0, len(l.fields))
			f.Values = append(f.Values, p.ArcIDs())
			f.Values = l.appendAttributes(f.Values, rows, p.ID)
			l.validate(f)
			return f, true
		}), nil
	}
	return emptyCursor[*Feature](), nil
}

func (l *Layer) validate(f *Feature) {
	if !l.cov.opts.ValidateGeometry || f.Geometry == nil {
		return
	}
	if err := ValidateGeometry(f.Geometry); err != nil {
		f.GeometryErr = err
		l.cov.logger.Warn("invalid geometry", "layer", l.name, "fid", f.FID, "error", err)
	}
}

// mapCursor turns a record cursor into a feature cursor. Records for which
// fn returns false are skipped.
func mapCursor[T any](src *Cursor[T], fn func(T) (*Feature, bool)) *Cursor[*Feature] {
	next := func() (*Feature, error) {
		for {
			v, err := src.Next()
			if err != nil {
				return nil, err
			}
			if f, ok := fn(v); ok {
				return f, nil
			}
		}
	}
	return newCursor(next, cursorCloser[T]{src})
}

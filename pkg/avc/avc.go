package avc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/beetlebugorg/avc/internal/parser"
)

// Open opens an Arc/Info vector coverage.
//
// path is either an AVCBin coverage directory (arc.adf, pal.adf, ... with
// the INFO tables in the sibling info directory) or an uncompressed E00
// export file. A path of the form "zip://archive.zip!entry" opens a coverage
// stored inside a zip archive.
//
// Example:
//
//	cov, err := avc.Open("data/roads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cov.Close()
//	for _, name := range cov.ListLayers() {
//	    fmt.Println(name)
//	}
func Open(path string, opts ...Option) (*Coverage, error) {
	o := buildOptions(opts)
	if strings.HasPrefix(path, zipScheme) {
		return openFromZip(path, o)
	}
	pc, err := parser.Open(path, o)
	if err != nil {
		return nil, err
	}
	return newCoverage(pc, path, o.Logger), nil
}

// Coverage is an opened, read-only coverage. Its layers may be iterated
// concurrently; a single iterator may not.
type Coverage struct {
	cov     *parser.Coverage
	path    string
	layers  []*Layer
	logger  *slog.Logger
	cleanup func() error
}

func newCoverage(pc *parser.Coverage, path string, logger *slog.Logger) *Coverage {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coverage{cov: pc, path: path, logger: logger}
	for _, pl := range pc.Layers() {
		c.layers = append(c.layers, newLayer(c, pl))
	}
	return c
}

// Name returns the coverage name.
func (c *Coverage) Name() string {
	return c.cov.Name()
}

// Path returns the path the coverage was opened from.
func (c *Coverage) Path() string {
	return c.path
}

// Representation returns "AVCBin" or "E00".
func (c *Coverage) Representation() string {
	return c.cov.Catalog().Representation().String()
}

// ListLayers returns the layer names in ARC, CNT, LAB, PAL order.
func (c *Coverage) ListLayers() []string {
	names := make([]string, len(c.layers))
	for i, l := range c.layers {
		names[i] = l.Name()
	}
	return names
}

// LayerCount returns the number of layers.
func (c *Coverage) LayerCount() int {
	return len(c.layers)
}

// Layer returns layer i, or nil when out of range.
func (c *Coverage) Layer(i int) *Layer {
	if i < 0 || i >= len(c.layers) {
		return nil
	}
	return c.layers[i]
}

// Layers returns all layers.
func (c *Coverage) Layers() []*Layer {
	return c.layers
}

// LayerByName finds a layer, ignoring case.
func (c *Coverage) LayerByName(name string) *Layer {
	for _, l := range c.layers {
		if strings.EqualFold(l.Name(), name) {
			return l
		}
	}
	return nil
}

// SpatialReference returns the coverage projection, or nil when the
// coverage has no usable PRJ.
func (c *Coverage) SpatialReference() *SpatialReference {
	return newSpatialReference(c.cov.Projection())
}

// SpatialReferenceErr reports why a PRJ present in the coverage could not
// be used. An unparseable PRJ yields an error of kind InvalidProjection
// (errors.Is(err, ErrInvalidProjection)). It is nil when the projection
// loaded or the coverage has none.
func (c *Coverage) SpatialReferenceErr() error {
	return c.cov.ProjectionErr()
}

// Tolerances returns the TOL (or PAR) records.
func (c *Coverage) Tolerances() ([]Tolerance, error) {
	tols, err := c.cov.Catalog().Tolerances()
	if err != nil {
		return nil, err
	}
	out := make([]Tolerance, len(tols))
	for i, t := range tols {
		out[i] = Tolerance{Index: t.Index, Flag: t.Flag, Value: t.Value}
	}
	return out, nil
}

// Tables describes the coverage's INFO tables, sorted by name.
func (c *Coverage) Tables() []TableInfo {
	defs := c.cov.Catalog().Tables()
	out := make([]TableInfo, len(defs))
	for i := range defs {
		out[i] = newTableInfo(&defs[i])
	}
	return out
}

// Table finds an INFO table by full name ("ROADS.AAT") or suffix ("AAT").
func (c *Coverage) Table(name string) (TableInfo, bool) {
	def, ok := c.cov.Catalog().Table(name)
	if !ok {
		return TableInfo{}, false
	}
	return newTableInfo(&def), true
}

// Rows iterates the raw records of an INFO table. Each row holds one value
// per visible item.
func (c *Coverage) Rows(name string) (*RowIterator, error) {
	cur, err := c.cov.Catalog().Rows(name)
	if err != nil {
		return nil, err
	}
	return &RowIterator{cur: cur}, nil
}

// Close releases resources held by the coverage. Iterators hold their own
// file handles and must be closed separately.
func (c *Coverage) Close() error {
	if c.cleanup == nil {
		return nil
	}
	err := c.cleanup()
	c.cleanup = nil
	return err
}

// Tolerance is one coverage tolerance record.
type Tolerance struct {
	Index int
	Flag  int
	Value float64
}

// TableInfo describes an INFO table.
type TableInfo struct {
	Name       string
	External   bool
	Records    int
	RecordSize int
	Items      []TableItem
}

// TableItem describes one INFO item. Redefined items are listed but never
// appear in rows.
type TableItem struct {
	Name      string
	Type      string // DATE, CHAR, FIXINT, FIXNUM, BININT or BINFLOAT
	Size      int
	Offset    int
	Index     int
	Width     int
	Precision int
	Redefined bool
}

func newTableInfo(def *parser.TableDef) TableInfo {
	info := TableInfo{
		Name:       def.Name,
		External:   def.External,
		Records:    def.NumRecords,
		RecordSize: def.RecordSize,
		Items:      make([]TableItem, len(def.Fields)),
	}
	for i, f := range def.Fields {
		info.Items[i] = TableItem{
			Name:      f.Name,
			Type:      f.Type.String(),
			Size:      f.Size,
			Offset:    f.Offset,
			Index:     f.Index,
			Width:     f.FmtWidth,
			Precision: f.FmtPrec,
			Redefined: !f.Visible(),
		}
	}
	return info
}

// RowIterator walks the records of an INFO table.
type RowIterator struct {
	cur *parser.Cursor[parser.Row]
	row []interface{}
	err error
}

// Next advances to the next row. It returns false at the end of the table
// or on error; check Err afterwards.
func (it *RowIterator) Next() bool {
	row, err := it.cur.Next()
	if err != nil {
		if err != io.EOF {
			it.err = err
		}
		it.row = nil
		return false
	}
	it.row = row
	return true
}

// Row returns the current row. Values are int, float64 or string.
func (it *RowIterator) Row() []interface{} {
	return it.row
}

// Err returns the error that stopped iteration, if any.
func (it *RowIterator) Err() error {
	return it.err
}

// Close releases the table file.
func (it *RowIterator) Close() error {
	return it.cur.Close()
}

// SpatialReference is a parsed coverage projection.
type SpatialReference struct {
	Projection string
	Zone       int
	HasZone    bool
	Datum      string
	Units      string
	Spheroid   string
	Zunits     string
	XShift     float64
	YShift     float64
	Parameters []float64
	Lines      []string

	prj *parser.Projection
}

func newSpatialReference(p *parser.Projection) *SpatialReference {
	if p == nil {
		return nil
	}
	return &SpatialReference{
		Projection: p.Name,
		Zone:       p.Zone,
		HasZone:    p.HasZone,
		Datum:      p.Datum,
		Units:      p.Units,
		Spheroid:   p.Spheroid,
		Zunits:     p.Zunits,
		XShift:     p.XShift,
		YShift:     p.YShift,
		Parameters: append([]float64(nil), p.Parameters...),
		Lines:      append([]string(nil), p.Lines...),
		prj:        p,
	}
}

// IsGeographic reports whether coordinates are longitude/latitude.
func (s *SpatialReference) IsGeographic() bool {
	return s.prj.IsGeographic()
}

// WKT renders an ESRI style description of the projection.
func (s *SpatialReference) WKT() string {
	return s.prj.WKT()
}

// String returns a short summary, e.g. "UTM zone 10 (NAD83, METERS)".
func (s *SpatialReference) String() string {
	var b strings.Builder
	b.WriteString(s.Projection)
	if s.HasZone {
		fmt.Fprintf(&b, " zone %d", s.Zone)
	}
	var extra []string
	if s.Datum != "" {
		extra = append(extra, s.Datum)
	}
	if s.Units != "" {
		extra = append(extra, s.Units)
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	return b.String()
}

func removeAll(dir string) func() error {
	return func() error {
		return os.RemoveAll(dir)
	}
}

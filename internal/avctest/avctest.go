// Package avctest builds small Arc/Info coverages for tests.
//
// A Coverage describes geometry tables and INFO tables once; WriteBinary
// lays it out as an AVCBin workspace and WriteE00 as an uncompressed E00
// export, so tests can check that both representations decode to the same
// features.
package avctest

import (
	"fmt"
	"math"
)

// INFO item types.
const (
	Date     = 10
	Char     = 20
	FixInt   = 30
	FixNum   = 40
	BinInt   = 50
	BinFloat = 60
)

// Arc is an ARC record. Packed arcs are written with run-length packed
// vertex columns (binary) or run lines (E00).
type Arc struct {
	ID, UserID, FNode, TNode, LPoly, RPoly int
	Vertices                               [][2]float64
	Packed                                 bool
}

// PalArc is an entry of a polygon arc list.
type PalArc struct {
	ArcID, FNode, AdjPoly int
}

// Polygon is a PAL record. IDs must be 1..n in order, since E00 numbers
// polygons by sequence.
type Polygon struct {
	ID     int
	Bounds [4]float64
	Arcs   []PalArc
}

// Centroid is a CNT record. IDs must be 1..n in order.
type Centroid struct {
	ID       int
	X, Y     float64
	LabelIDs []int
}

// Label is a LAB record.
type Label struct {
	ValueID, PolyID int
	Coords          [3][2]float64
}

// Tolerance is a TOL record.
type Tolerance struct {
	Index, Flag int
	Value       float64
}

// Field is an INFO item. Offset is computed by Table.Layout for visible
// items; redefined items (Index <= 0) must set it.
type Field struct {
	Name   string
	Type   int
	Size   int
	Offset int
	Index  int
	Width  int
	Prec   int
}

// Table is an INFO table. Suffix is the part after the coverage name, e.g.
// "PAT". Rows hold one value per visible item: int, float64 or string.
type Table struct {
	Suffix   string
	Fields   []Field
	Rows     [][]interface{}
	External bool
}

// Layout assigns offsets to visible items and returns the record size.
func (t *Table) Layout() int {
	off := 1
	size := 0
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Index > 0 {
			f.Offset = off
			off += f.Size
		}
		if end := f.Offset - 1 + f.Size; end > size {
			size = end
		}
	}
	return size
}

func (t *Table) visible() []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Index > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Coverage is a complete test coverage.
type Coverage struct {
	Name       string
	Double     bool
	Arcs       []Arc
	Polygons   []Polygon
	Centroids  []Centroid
	Labels     []Label
	Tolerances []Tolerance
	Prj        []string
	Tables     []Table
}

// BinField builds a visible binary item with the usual display format.
func BinField(name string, typ, size, index int) Field {
	f := Field{Name: name, Type: typ, Size: size, Index: index, Width: size}
	switch {
	case typ == BinInt:
		f.Width = 5
		if size == 4 {
			f.Width = 11
		}
	case typ == BinFloat:
		f.Width, f.Prec = 12, 3
		if size == 8 {
			f.Width, f.Prec = 18, 5
		}
	}
	return f
}

// LineCoverage is a line coverage of seven arcs with an AAT, a PRJ and
// tolerances. Arc 7 is stored packed.
func LineCoverage(name string) *Coverage {
	arcs := []Arc{
		{ID: 1, UserID: 1, FNode: 1, TNode: 2, Vertices: [][2]float64{
			{340099.875, 4100200.0}, {340400.0625, 4100399.5}, {340900.125, 4100200.0}, {340700.03125, 4100199.5},
		}},
		{ID: 2, UserID: 2, FNode: 2, TNode: 3, Vertices: [][2]float64{{340700.03125, 4100199.5}, {340500.0, 4100199.75}}},
		{ID: 3, UserID: 3, FNode: 3, TNode: 4, Vertices: [][2]float64{{340500.0, 4100199.75}, {340599.96875, 4100100.25}}},
		{ID: 4, UserID: 4, FNode: 4, TNode: 1, Vertices: [][2]float64{{340599.96875, 4100100.25}, {340099.875, 4100200.0}}},
		{ID: 5, UserID: 5, FNode: 2, TNode: 5, Vertices: [][2]float64{{340700.03125, 4100199.5}, {340800.5, 4100000.0}, {340900.25, 4099900.5}}},
		{ID: 6, UserID: 6, FNode: 5, TNode: 6, Vertices: [][2]float64{{340900.25, 4099900.5}, {341000.0, 4099900.5}}},
		{ID: 7, UserID: 7, FNode: 6, TNode: 7, Packed: true, Vertices: [][2]float64{
			{341000.0, 4099900.5}, {341100.0, 4099800.0}, {341100.0, 4099800.0}, {341100.0, 4099800.0}, {341200.0, 4099700.0},
		}},
	}

	aat := Table{
		Suffix: "AAT",
		Fields: []Field{
			BinField("FNODE#", BinInt, 4, 1),
			BinField("TNODE#", BinInt, 4, 2),
			BinField("LPOLY#", BinInt, 4, 3),
			BinField("RPOLY#", BinInt, 4, 4),
			BinField("LENGTH", BinFloat, 4, 5),
			BinField(name+"#", BinInt, 4, 6),
			BinField(name+"-ID", BinInt, 4, 7),
			// Redefined item overlaying the low half of the -ID item.
			{Name: "IDLOW", Type: BinInt, Size: 2, Offset: 27, Index: -1, Width: 5},
		},
	}
	for _, a := range arcs {
		aat.Rows = append(aat.Rows, []interface{}{a.FNode, a.TNode, a.LPoly, a.RPoly, arcLength(a.Vertices), a.ID, a.UserID})
	}

	return &Coverage{
		Name:       name,
		Arcs:       arcs,
		Tolerances: standardTolerances(),
		Prj:        utmPrj(),
		Tables:     []Table{aat},
	}
}

// PointCoverage is a point coverage of n labels with a five item PAT.
func PointCoverage(name string, n int) *Coverage {
	pat := Table{
		Suffix: "PAT",
		Fields: []Field{
			BinField("AREA", BinFloat, 4, 1),
			BinField("PERIMETER", BinFloat, 4, 2),
			BinField(name+"#", BinInt, 4, 3),
			BinField(name+"-ID", BinInt, 4, 4),
			{Name: "NAME", Type: Char, Size: 12, Index: 5, Width: 12},
		},
	}
	cov := &Coverage{Name: name, Prj: utmPrj(), Tolerances: standardTolerances()}
	for i := 1; i <= n; i++ {
		x := 340000.0 + float64(i)*12.5
		y := 4100000.0 - float64(i)*7.25
		cov.Labels = append(cov.Labels, Label{
			ValueID: i,
			Coords:  [3][2]float64{{x, y}, {x - 1, y - 1}, {x + 1, y + 1}},
		})
		pat.Rows = append(pat.Rows, []interface{}{0.0, 0.0, i, i, fmt.Sprintf("WELL %d", i)})
	}
	cov.Tables = []Table{pat}
	return cov
}

// PolygonCoverage is a polygon coverage with the universe polygon and
// three polygons:
//   - 2: a square made of a single closed arc;
//   - 3: a square with a bridge arc that must be skipped;
//   - 4: the triangle formed by arcs -4 and -5, area 9939.05859375.
func PolygonCoverage(name string, double bool) *Coverage {
	p1 := [2]float64{340700.03125, 4100199.5}
	p2 := [2]float64{340500.0, 4100199.75}
	p3 := [2]float64{340599.96875, 4100100.25}

	arcs := []Arc{
		{ID: 1, UserID: 1, FNode: 1, TNode: 1, LPoly: 1, RPoly: 2, Vertices: [][2]float64{
			{340000.0, 4100000.0}, {340000.0, 4100100.0}, {340100.0, 4100100.0}, {340100.0, 4100000.0}, {340000.0, 4100000.0},
		}},
		{ID: 2, UserID: 2, FNode: 2, TNode: 2, LPoly: 1, RPoly: 3, Vertices: [][2]float64{
			{340200.0, 4100000.0}, {340200.0, 4100050.0}, {340250.0, 4100050.0}, {340250.0, 4100000.0}, {340200.0, 4100000.0},
		}},
		{ID: 3, UserID: 3, FNode: 2, TNode: 3, LPoly: 3, RPoly: 3, Vertices: [][2]float64{
			{340200.0, 4100000.0}, {340225.0, 4100025.0},
		}},
		{ID: 4, UserID: 4, FNode: 4, TNode: 5, LPoly: 4, RPoly: 1, Vertices: [][2]float64{p2, p1}},
		{ID: 5, UserID: 5, FNode: 5, TNode: 4, LPoly: 4, RPoly: 1, Vertices: [][2]float64{p1, p3, p2}},
	}

	polys := []Polygon{
		{ID: 1, Arcs: []PalArc{{-1, 1, 2}, {0, 0, 0}, {-2, 2, 3}, {0, 0, 0}, {4, 4, 4}, {5, 5, 4}}},
		{ID: 2, Arcs: []PalArc{{1, 1, 1}}},
		{ID: 3, Arcs: []PalArc{{2, 2, 1}, {3, 2, 3}}},
		{ID: 4, Arcs: []PalArc{{-4, 5, 1}, {-5, 4, 1}}},
	}
	for i := range polys {
		polys[i].Bounds = bounds(polys[i].Arcs, arcs)
	}

	areas := []float64{-(10000 + 2500 + 9939.059), 10000, 2500, 9939.059}
	perims := []float64{0, 400, 200, 483.19}
	pat := Table{
		Suffix: "PAT",
		Fields: []Field{
			BinField("AREA", BinFloat, 4, 1),
			BinField("PERIMETER", BinFloat, 4, 2),
			BinField(name+"#", BinInt, 4, 3),
			BinField(name+"-ID", BinInt, 4, 4),
		},
	}
	for i := range polys {
		pat.Rows = append(pat.Rows, []interface{}{areas[i], perims[i], i + 1, i})
	}

	labels := []Label{
		{ValueID: 1, PolyID: 2, Coords: [3][2]float64{{340050, 4100050}, {340050, 4100050}, {340050, 4100050}}},
		{ValueID: 2, PolyID: 3, Coords: [3][2]float64{{340240, 4100040}, {340240, 4100040}, {340240, 4100040}}},
		{ValueID: 3, PolyID: 4, Coords: [3][2]float64{{340600, 4100160}, {340600, 4100160}, {340600, 4100160}}},
	}
	cnts := []Centroid{
		{ID: 1},
		{ID: 2, X: 340050, Y: 4100050, LabelIDs: []int{1}},
		{ID: 3, X: 340240, Y: 4100040, LabelIDs: []int{2}},
		{ID: 4, X: 340600, Y: 4100160, LabelIDs: []int{3}},
	}

	return &Coverage{
		Name:       name,
		Double:     double,
		Arcs:       arcs,
		Polygons:   polys,
		Centroids:  cnts,
		Labels:     labels,
		Tolerances: standardTolerances(),
		Prj:        utmPrj(),
		Tables:     []Table{pat},
	}
}

func bounds(pas []PalArc, arcs []Arc) [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	found := false
	for _, pa := range pas {
		id := pa.ArcID
		if id < 0 {
			id = -id
		}
		for _, a := range arcs {
			if a.ID != id {
				continue
			}
			for _, v := range a.Vertices {
				found = true
				b[0] = math.Min(b[0], v[0])
				b[1] = math.Min(b[1], v[1])
				b[2] = math.Max(b[2], v[0])
				b[3] = math.Max(b[3], v[1])
			}
		}
	}
	if !found {
		return [4]float64{}
	}
	return b
}

func arcLength(vs [][2]float64) float64 {
	l := 0.0
	for i := 1; i < len(vs); i++ {
		l += math.Hypot(vs[i][0]-vs[i-1][0], vs[i][1]-vs[i-1][1])
	}
	return l
}

func standardTolerances() []Tolerance {
	out := make([]Tolerance, 10)
	for i := range out {
		out[i] = Tolerance{Index: i + 1, Flag: 2}
	}
	out[0] = Tolerance{Index: 1, Flag: 1, Value: 0.5}
	return out
}

func utmPrj() []string {
	return []string{
		"Projection    UTM",
		"Zone          10",
		"Datum         NAD27",
		"Zunits        NO",
		"Units         METERS",
		"Spheroid      CLARKE1866",
		"Xshift        0.0000000000",
		"Yshift        0.0000000000",
		"Parameters",
	}
}

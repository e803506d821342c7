package parser

import (
	"fmt"
	"strings"
)

// Representation identifies how a coverage is stored on disk.
type Representation int

const (
	// RepresentationBinary is an AVCBin coverage directory.
	RepresentationBinary Representation = iota + 1
	// RepresentationText is an E00 export file.
	RepresentationText
)

func (r Representation) String() string {
	switch r {
	case RepresentationBinary:
		return "AVCBin"
	case RepresentationText:
		return "E00"
	default:
		return "unknown"
	}
}

// TableKind identifies one of the geometry or metadata tables of a coverage.
type TableKind int

const (
	TableArc TableKind = iota + 1
	TablePal
	TableCnt
	TableLab
	TableTol
	TablePrj
)

func (k TableKind) String() string {
	switch k {
	case TableArc:
		return "ARC"
	case TablePal:
		return "PAL"
	case TableCnt:
		return "CNT"
	case TableLab:
		return "LAB"
	case TableTol:
		return "TOL"
	case TablePrj:
		return "PRJ"
	default:
		return fmt.Sprintf("TableKind(%d)", int(k))
	}
}

// Arc is one ARC record: a polyline between two nodes with the polygons on
// either side.
type Arc struct {
	ID       int
	UserID   int
	FNode    int
	TNode    int
	LPoly    int
	RPoly    int
	Vertices [][2]float64
}

// PalArc is one entry of a polygon's arc list. A negative ArcID means the
// arc is traversed from its to-node to its from-node.
type PalArc struct {
	ArcID   int
	FNode   int
	AdjPoly int
}

// Polygon is one PAL record.
type Polygon struct {
	ID     int
	Bounds [4]float64 // MinX, MinY, MaxX, MaxY
	Arcs   []PalArc
}

// ArcIDs returns the signed arc IDs in boundary order.
func (p *Polygon) ArcIDs() []int {
	ids := make([]int, len(p.Arcs))
	for i, a := range p.Arcs {
		ids[i] = a.ArcID
	}
	return ids
}

// Centroid is one CNT record.
type Centroid struct {
	ID       int
	X, Y     float64
	LabelIDs []int
}

// Label is one LAB record. Coords[0] is the label point, Coords[1] and
// Coords[2] are the corners of the label text box.
type Label struct {
	ValueID int
	PolyID  int
	Coords  [3][2]float64
}

// Tolerance is one TOL (or PAR) record.
type Tolerance struct {
	Index int
	Flag  int
	Value float64
}

// FieldType is the INFO item type code.
type FieldType int

const (
	FieldDate     FieldType = 10
	FieldChar     FieldType = 20
	FieldFixInt   FieldType = 30
	FieldFixNum   FieldType = 40
	FieldBinInt   FieldType = 50
	FieldBinFloat FieldType = 60
)

func (t FieldType) String() string {
	switch t {
	case FieldDate:
		return "DATE"
	case FieldChar:
		return "CHAR"
	case FieldFixInt:
		return "FIXINT"
	case FieldFixNum:
		return "FIXNUM"
	case FieldBinInt:
		return "BININT"
	case FieldBinFloat:
		return "BINFLOAT"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// ValueKind is the decoded value category of an INFO item or native field.
type ValueKind int

const (
	KindInteger ValueKind = iota + 1
	KindReal
	KindString
	KindIntegerList
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindIntegerList:
		return "IntegerList"
	default:
		return "Unknown"
	}
}

// Kind maps the INFO type to the value category it decodes to.
func (t FieldType) Kind() ValueKind {
	switch t {
	case FieldFixInt, FieldBinInt:
		return KindInteger
	case FieldFixNum, FieldBinFloat:
		return KindReal
	default:
		return KindString
	}
}

// FieldDef describes one INFO item.
type FieldDef struct {
	Name     string
	Size     int // storage size in bytes
	Offset   int // 1-based offset within the binary record
	Type     FieldType
	FmtWidth int
	FmtPrec  int
	Index    int // item number; <= 0 for redefined items
	AltName  string
}

// Visible reports whether the item is exposed. Redefined items overlay other
// items and carry a non-positive index.
func (f FieldDef) Visible() bool {
	return f.Index > 0
}

// TextWidth returns the number of characters the item occupies in an E00
// table record.
func (f FieldDef) TextWidth() int {
	switch f.Type {
	case FieldBinInt:
		if f.Size == 4 {
			return 11
		}
		return 6
	case FieldBinFloat:
		if f.Size == 4 {
			return 14
		}
		return 24
	case FieldFixNum:
		// Exported as a single precision real, or double above 8 digits.
		if f.Size > 8 {
			return 24
		}
		return 14
	default:
		return f.Size
	}
}

// TableDef describes one INFO table.
type TableDef struct {
	Name       string // full name, e.g. "TESTAVC.AAT"
	External   bool
	Fields     []FieldDef
	RecordSize int // binary record size in bytes
	NumRecords int

	dataFile string // binary only: resolved .dat path
}

// Suffix returns the part of the table name after the coverage prefix,
// e.g. "AAT" for "TESTAVC.AAT".
func (t *TableDef) Suffix() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// VisibleFields returns the exposed items in definition order.
func (t *TableDef) VisibleFields() []FieldDef {
	out := make([]FieldDef, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Visible() {
			out = append(out, f)
		}
	}
	return out
}

// TextRecordSize returns the E00 record width: the sum of the text widths
// of the exposed items.
func (t *TableDef) TextRecordSize() int {
	n := 0
	for _, f := range t.Fields {
		if f.Visible() {
			n += f.TextWidth()
		}
	}
	return n
}

// Row is one decoded INFO record: values for the visible items in order.
// Values are int, float64 or string.
type Row []interface{}

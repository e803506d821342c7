package parser

// bin_tables.go - AVCBin geometry tables (ARC, PAL, CNT, LAB, TOL, PRJ)

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/avc/internal/binread"
)

const (
	binHeaderSize = 100

	// Header signatures of AVCBin geometry files.
	binSignature   = 9993
	binSignaturePC = 9994

	// Precision codes above this value mark double precision files.
	singlePrecisionMax = 1000
)

// binFileNames lists the accepted file names per table, in lookup order.
// Names are matched case-insensitively.
var binFileNames = map[TableKind][]string{
	TableArc: {"arc.adf", "arc"},
	TablePal: {"pal.adf", "pal"},
	TableCnt: {"cnt.adf", "cnt"},
	TableLab: {"lab.adf", "lab"},
	TableTol: {"tol.adf", "tol", "par.adf", "par"},
	TablePrj: {"prj.adf", "prj"},
}

// binHeader is the 100 byte header of ARC, PAL, CNT and LAB files.
type binHeader struct {
	Signature  int32
	Precision  int32
	RecordSize int32
	Length     int64 // file length in bytes, header included
}

// precision maps the header precision code to a real size.
func (h binHeader) precision() binread.Precision {
	if h.Precision <= singlePrecisionMax {
		return binread.Single
	}
	return binread.Double
}

func readBinHeader(c *binread.Cursor) (binHeader, error) {
	var h binHeader
	var err error
	if h.Signature, err = c.Int32(); err != nil {
		return h, err
	}
	if h.Signature != binSignature && h.Signature != binSignaturePC {
		return h, errors.Wrapf(ErrCorruptRecord, "bad file signature %d", h.Signature)
	}
	if h.Precision, err = c.Int32(); err != nil {
		return h, err
	}
	if h.RecordSize, err = c.Int32(); err != nil {
		return h, err
	}
	if err = c.SkipTo(24); err != nil {
		return h, err
	}
	words, err := c.Int32()
	if err != nil {
		return h, err
	}
	h.Length = int64(words) * 2
	if err = c.SkipTo(binHeaderSize); err != nil {
		return h, err
	}
	return h, nil
}

// listDir maps lower-cased entry names of dir to their on-disk names.
func listDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[strings.ToLower(e.Name())] = e.Name()
	}
	return names, nil
}

// findBinFiles locates the geometry tables present in a coverage directory.
func findBinFiles(dir string) (map[TableKind]string, error) {
	names, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[TableKind]string)
	for kind, candidates := range binFileNames {
		for _, c := range candidates {
			if actual, ok := names[c]; ok {
				files[kind] = filepath.Join(dir, actual)
				break
			}
		}
	}
	return files, nil
}

// binTable is an open geometry file positioned at its first record.
type binTable struct {
	file      *os.File
	cur       *binread.Cursor
	precision binread.Precision
	header    binHeader
}

// openBinTable opens a geometry file and reads its header. TOL files have
// no header; tol.adf holds single and par.adf double precision records.
func openBinTable(path string, kind TableKind, enc encoding.Encoding) (*binTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	cur := binread.NewCursor(f)
	if enc != nil {
		cur.SetDecoder(enc.NewDecoder())
	}
	t := &binTable{file: f, cur: cur}

	switch kind {
	case TableTol:
		t.precision = binread.Single
		if strings.HasPrefix(strings.ToLower(filepath.Base(path)), "par") {
			t.precision = binread.Double
		}
		cur.SetLimit(st.Size())
	case TablePrj:
		cur.SetLimit(st.Size())
	default:
		cur.SetLimit(st.Size())
		h, err := readBinHeader(cur)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "%s header", kind)
		}
		t.header = h
		t.precision = h.precision()
		if h.Length >= binHeaderSize {
			cur.SetLimit(h.Length)
		}
	}
	return t, nil
}

func (t *binTable) Close() error {
	return t.file.Close()
}

// atEnd reports a clean end of table between two records.
func (t *binTable) atEnd() bool {
	return t.cur.AtEnd()
}

// beginVarRecord reads the id and the length prefix of an ARC, PAL or CNT
// record and bounds the rest of the record.
func beginVarRecord(c *binread.Cursor) (int, error) {
	id, err := c.Int()
	if err != nil {
		return 0, err
	}
	words, err := c.Int()
	if err != nil {
		return 0, err
	}
	if err := c.BeginRecord(int64(words) * 2); err != nil {
		return 0, errors.Wrapf(err, "record %d", id)
	}
	return id, nil
}

func readBinArc(t *binTable) (Arc, error) {
	if t.atEnd() {
		return Arc{}, io.EOF
	}
	c := t.cur
	id, err := beginVarRecord(c)
	if err != nil {
		return Arc{}, err
	}
	arc := Arc{ID: id}
	hdr := make([]int, 6)
	for i := range hdr {
		if hdr[i], err = c.Int(); err != nil {
			return Arc{}, errors.Wrapf(err, "arc %d", id)
		}
	}
	arc.UserID, arc.FNode, arc.TNode, arc.LPoly, arc.RPoly = hdr[0], hdr[1], hdr[2], hdr[3], hdr[4]

	n := hdr[5]
	if n >= 0 {
		if err := c.Need(n, 2*t.precision.RealSize()); err != nil {
			return Arc{}, errors.Wrapf(err, "arc %d vertex count", id)
		}
		arc.Vertices = make([][2]float64, n)
		for i := 0; i < n; i++ {
			x, err := c.Real(t.precision)
			if err != nil {
				return Arc{}, errors.Wrapf(err, "arc %d vertex %d", id, i)
			}
			y, err := c.Real(t.precision)
			if err != nil {
				return Arc{}, errors.Wrapf(err, "arc %d vertex %d", id, i)
			}
			arc.Vertices[i] = [2]float64{x, y}
		}
	} else {
		// Negative count: packed X column followed by packed Y column.
		n = -n
		xs, err := c.PackedReals(n, t.precision)
		if err != nil {
			return Arc{}, errors.Wrapf(err, "arc %d packed x", id)
		}
		ys, err := c.PackedReals(n, t.precision)
		if err != nil {
			return Arc{}, errors.Wrapf(err, "arc %d packed y", id)
		}
		arc.Vertices = make([][2]float64, n)
		for i := range arc.Vertices {
			arc.Vertices[i] = [2]float64{xs[i], ys[i]}
		}
	}

	if err := c.EndRecord(); err != nil {
		return Arc{}, err
	}
	return arc, nil
}

func readBinPal(t *binTable) (Polygon, error) {
	if t.atEnd() {
		return Polygon{}, io.EOF
	}
	c := t.cur
	id, err := beginVarRecord(c)
	if err != nil {
		return Polygon{}, err
	}
	poly := Polygon{ID: id}
	for i := range poly.Bounds {
		if poly.Bounds[i], err = c.Real(t.precision); err != nil {
			return Polygon{}, errors.Wrapf(err, "polygon %d bounds", id)
		}
	}
	n, err := c.Int()
	if err != nil {
		return Polygon{}, errors.Wrapf(err, "polygon %d", id)
	}
	if n < 0 {
		return Polygon{}, errors.Wrapf(ErrCorruptRecord, "polygon %d: negative arc count %d", id, n)
	}
	if err := c.Need(n, 12); err != nil {
		return Polygon{}, errors.Wrapf(err, "polygon %d arc count", id)
	}
	poly.Arcs = make([]PalArc, n)
	for i := range poly.Arcs {
		var a PalArc
		if a.ArcID, err = c.Int(); err == nil {
			if a.FNode, err = c.Int(); err == nil {
				a.AdjPoly, err = c.Int()
			}
		}
		if err != nil {
			return Polygon{}, errors.Wrapf(err, "polygon %d arc %d", id, i)
		}
		poly.Arcs[i] = a
	}
	if err := c.EndRecord(); err != nil {
		return Polygon{}, err
	}
	return poly, nil
}

func readBinCnt(t *binTable) (Centroid, error) {
	if t.atEnd() {
		return Centroid{}, io.EOF
	}
	c := t.cur
	id, err := beginVarRecord(c)
	if err != nil {
		return Centroid{}, err
	}
	cnt := Centroid{ID: id}
	if cnt.X, err = c.Real(t.precision); err != nil {
		return Centroid{}, errors.Wrapf(err, "centroid %d", id)
	}
	if cnt.Y, err = c.Real(t.precision); err != nil {
		return Centroid{}, errors.Wrapf(err, "centroid %d", id)
	}
	n, err := c.Int()
	if err != nil {
		return Centroid{}, errors.Wrapf(err, "centroid %d", id)
	}
	if n < 0 {
		return Centroid{}, errors.Wrapf(ErrCorruptRecord, "centroid %d: negative label count %d", id, n)
	}
	if err := c.Need(n, 4); err != nil {
		return Centroid{}, errors.Wrapf(err, "centroid %d label count", id)
	}
	cnt.LabelIDs = make([]int, n)
	for i := range cnt.LabelIDs {
		if cnt.LabelIDs[i], err = c.Int(); err != nil {
			return Centroid{}, errors.Wrapf(err, "centroid %d label %d", id, i)
		}
	}
	if err := c.EndRecord(); err != nil {
		return Centroid{}, err
	}
	return cnt, nil
}

// labRecordSize is the fixed size of a LAB record.
func labRecordSize(p binread.Precision) int64 {
	return 8 + 6*int64(p.RealSize())
}

func readBinLab(t *binTable) (Label, error) {
	if t.atEnd() {
		return Label{}, io.EOF
	}
	c := t.cur
	if err := c.BeginRecord(labRecordSize(t.precision)); err != nil {
		return Label{}, err
	}
	var lab Label
	var err error
	if lab.ValueID, err = c.Int(); err != nil {
		return Label{}, err
	}
	if lab.PolyID, err = c.Int(); err != nil {
		return Label{}, err
	}
	for i := range lab.Coords {
		for j := 0; j < 2; j++ {
			if lab.Coords[i][j], err = c.Real(t.precision); err != nil {
				return Label{}, errors.Wrapf(err, "label %d", lab.ValueID)
			}
		}
	}
	if err := c.EndRecord(); err != nil {
		return Label{}, err
	}
	return lab, nil
}

// labCount derives the LAB record count from the file length.
func labCount(t *binTable) int {
	size := t.header.Length
	if size < binHeaderSize {
		st, err := t.file.Stat()
		if err != nil {
			return -1
		}
		size = st.Size()
	}
	return int((size - binHeaderSize) / labRecordSize(t.precision))
}

func readBinTol(t *binTable) (Tolerance, error) {
	if t.atEnd() {
		return Tolerance{}, io.EOF
	}
	c := t.cur
	if err := c.BeginRecord(8 + int64(t.precision.RealSize())); err != nil {
		return Tolerance{}, err
	}
	var tol Tolerance
	var err error
	if tol.Index, err = c.Int(); err != nil {
		return Tolerance{}, err
	}
	if tol.Flag, err = c.Int(); err != nil {
		return Tolerance{}, err
	}
	if tol.Value, err = c.Real(t.precision); err != nil {
		return Tolerance{}, err
	}
	if err := c.EndRecord(); err != nil {
		return Tolerance{}, err
	}
	return tol, nil
}

// readBinPrj returns the lines of a prj.adf file.
func readBinPrj(path string, enc encoding.Encoding) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dec *encoding.Decoder
	if enc != nil {
		dec = enc.NewDecoder()
	}
	text := binread.DecodeText(data, dec)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimRight(l, " \r"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

package parser

// catalog.go - table catalog over either coverage representation
//
// A Catalog is selected once at open time and every accessor switches on
// its representation. Record cursors are lazy and each owns its own file
// handle, so several cursors can be open at the same time.

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/avc/internal/binread"
	"github.com/beetlebugorg/avc/internal/e00"
)

// Catalog lists the tables of one coverage and opens cursors over them.
type Catalog struct {
	rep  Representation
	bin  *binCatalog
	text *textCatalog
}

type binCatalog struct {
	dir    string
	name   string
	files  map[TableKind]string
	tables []TableDef
	enc    encoding.Encoding
}

type textCatalog struct {
	path     string
	header   e00.Header
	sections map[TableKind]*textSection
	prj      []string
	hasPrj   bool
	tables   []*textTable
	enc      encoding.Encoding
}

// openBinCatalog indexes an AVCBin coverage directory. It fails with
// ErrNotRecognized when the directory holds none of the geometry tables.
func openBinCatalog(dir string, enc encoding.Encoding, logger *slog.Logger) (*Catalog, error) {
	files, err := findBinFiles(dir)
	if err != nil {
		return nil, err
	}
	geometry := 0
	for _, k := range []TableKind{TableArc, TablePal, TableCnt, TableLab} {
		if _, ok := files[k]; ok {
			geometry++
		}
	}
	if geometry == 0 {
		return nil, errors.Wrapf(ErrNotRecognized, "%s holds no ARC, PAL, CNT or LAB table", dir)
	}

	name := strings.ToUpper(filepath.Base(filepath.Clean(dir)))
	tables, err := loadBinTables(dir, name, enc)
	if err != nil {
		return nil, errors.Wrap(err, "INFO tables")
	}
	logger.Debug("indexed AVCBin coverage",
		"coverage", name, "tables", len(files), "info_tables", len(tables))

	return &Catalog{
		rep: RepresentationBinary,
		bin: &binCatalog{dir: dir, name: name, files: files, tables: tables, enc: enc},
	}, nil
}

// textSectionKinds maps E00 section codes to table kinds.
var textSectionKinds = map[string]TableKind{
	"ARC": TableArc,
	"PAL": TablePal,
	"CNT": TableCnt,
	"LAB": TableLab,
	"TOL": TableTol,
	"PAR": TableTol,
}

// skipMarkers gives the end marker of sections that are recognised but not
// decoded. Sections without an entry are skipped up to the next section
// header.
var skipMarkers = map[string]string{
	"SIN": "EOX",
	"LOG": "EOL",
}

// openTextCatalog runs the single indexing pass over an E00 file. The first
// line must already have been identified as an uncompressed header.
func openTextCatalog(path string, enc encoding.Encoding, logger *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := e00.NewReader(f)
	first, err := r.Expect("EXP header")
	if err != nil {
		return nil, err
	}
	hdr, err := e00.ParseHeader(first.Text)
	if err != nil {
		return nil, err
	}

	cat := &textCatalog{
		path:     path,
		header:   hdr,
		sections: make(map[TableKind]*textSection),
		enc:      enc,
	}

	for {
		line, err := r.Next()
		if err == io.EOF {
			// Tolerate a missing EOS at a section boundary.
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		sec, ok := e00.ParseSection(line.Text)
		if !ok {
			return nil, e00.Malformed(line.Number, "expected a section header, found %q", line.Text)
		}
		if sec.Code == "EOS" {
			break
		}

		if kind, ok := textSectionKinds[sec.Code]; ok {
			s := &textSection{Code: sec.Code, Double: sec.Double, Offset: r.Offset(), Line: r.LineNumber() + 1}
			if s.Count, err = countSection(r, kind, sec.Double); err != nil {
				return nil, errors.Wrapf(err, "%s section", sec.Code)
			}
			if _, dup := cat.sections[kind]; dup {
				logger.Debug("ignoring repeated E00 section", "section", sec.Code, "line", line.Number)
				continue
			}
			cat.sections[kind] = s
			continue
		}

		switch sec.Code {
		case "PRJ":
			if cat.prj, err = readTextPrj(r); err != nil {
				return nil, errors.Wrap(err, "PRJ section")
			}
			cat.hasPrj = true
		case "IFO":
			tables, err := indexIFO(r)
			if err != nil {
				return nil, errors.Wrap(err, "IFO section")
			}
			cat.tables = append(cat.tables, tables...)
		default:
			logger.Debug("skipping E00 section", "section", sec.Code, "line", line.Number)
			if err := skipSection(r, sec.Code); err != nil {
				return nil, errors.Wrapf(err, "%s section", sec.Code)
			}
		}
	}

	logger.Debug("indexed E00 coverage",
		"coverage", hdr.Name, "sections", len(cat.sections), "info_tables", len(cat.tables))
	return &Catalog{rep: RepresentationText, text: cat}, nil
}

func countSection(r *e00.Reader, kind TableKind, double bool) (int, error) {
	switch kind {
	case TableArc:
		return countText(r, double, readTextArc)
	case TablePal:
		return countText(r, double, readTextPal)
	case TableCnt:
		return countText(r, double, readTextCnt)
	case TableLab:
		return countText(r, double, readTextLab)
	default:
		return countText(r, double, readTextTol)
	}
}

// skipSection consumes a section that is not decoded.
func skipSection(r *e00.Reader, code string) error {
	if marker, ok := skipMarkers[code]; ok {
		_, err := e00.SkipUntil(r, marker)
		return err
	}
	// Annotation, route and unknown sections run until the next section
	// header. The header is left for the caller.
	for {
		next, err := r.Peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if sec, ok := e00.ParseSection(next.Text); ok && isKnownSection(sec.Code) {
			return nil
		}
		if _, err := r.Next(); err != nil {
			return err
		}
	}
}

func isKnownSection(code string) bool {
	if _, ok := textSectionKinds[code]; ok {
		return true
	}
	switch code {
	case "EOS", "PRJ", "IFO", "SIN", "LOG", "TXT", "TX6", "TX7", "RXP", "RPL", "MSK":
		return true
	}
	return false
}

// Representation returns how the coverage is stored.
func (c *Catalog) Representation() Representation {
	return c.rep
}

// Name returns the coverage name in upper case.
func (c *Catalog) Name() string {
	switch c.rep {
	case RepresentationBinary:
		return c.bin.name
	default:
		return c.text.header.Name
	}
}

// Path returns the coverage directory or E00 file.
func (c *Catalog) Path() string {
	switch c.rep {
	case RepresentationBinary:
		return c.bin.dir
	default:
		return c.text.path
	}
}

// Has reports whether the coverage contains the given table.
func (c *Catalog) Has(kind TableKind) bool {
	switch c.rep {
	case RepresentationBinary:
		_, ok := c.bin.files[kind]
		return ok
	default:
		if kind == TablePrj {
			return c.text.hasPrj
		}
		_, ok := c.text.sections[kind]
		return ok
	}
}

// Arcs opens a cursor over the ARC table.
func (c *Catalog) Arcs() (*Cursor[Arc], error) {
	return openKind(c, TableArc, readBinArc, readTextArc)
}

// Polygons opens a cursor over the PAL table.
func (c *Catalog) Polygons() (*Cursor[Polygon], error) {
	return openKind(c, TablePal, readBinPal, readTextPal)
}

// Centroids opens a cursor over the CNT table.
func (c *Catalog) Centroids() (*Cursor[Centroid], error) {
	return openKind(c, TableCnt, readBinCnt, readTextCnt)
}

// Labels opens a cursor over the LAB table.
func (c *Catalog) Labels() (*Cursor[Label], error) {
	return openKind(c, TableLab, readBinLab, readTextLab)
}

// Tolerances reads the TOL (or PAR) table.
func (c *Catalog) Tolerances() ([]Tolerance, error) {
	cur, err := openKind(c, TableTol, readBinTol, readTextTol)
	if err != nil {
		return nil, err
	}
	return collect(cur)
}

// openKind opens a cursor over one geometry table of either representation.
// A table that is absent yields an empty cursor.
func openKind[T any](c *Catalog, kind TableKind, bin func(*binTable) (T, error), text func(*e00.Reader, bool, int) (T, error)) (*Cursor[T], error) {
	switch c.rep {
	case RepresentationBinary:
		path, ok := c.bin.files[kind]
		if !ok {
			return emptyCursor[T](), nil
		}
		t, err := openBinTable(path, kind, c.bin.enc)
		if err != nil {
			return nil, classify(path, err)
		}
		next := func() (T, error) {
			v, err := bin(t)
			if err != nil && err != io.EOF {
				return v, classify(path, err)
			}
			return v, err
		}
		return newCursor(next, t), nil

	default:
		s, ok := c.text.sections[kind]
		if !ok {
			return emptyCursor[T](), nil
		}
		f, r, err := c.text.reopen(s.Offset, s.Line)
		if err != nil {
			return nil, err
		}
		seq := 0
		path := c.text.path
		next := func() (T, error) {
			seq++
			v, err := text(r, s.Double, seq)
			if err != nil && err != io.EOF {
				return v, classify(path, err)
			}
			return v, err
		}
		return newCursor(next, f), nil
	}
}

func (t *textCatalog) reopen(offset int64, line int) (*os.File, *e00.Reader, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, err
	}
	r := e00.NewReader(f)
	if err := r.Seek(offset, line); err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, r, nil
}

// Count returns the number of records of a table, from headers or the
// index when possible and by iteration otherwise.
func (c *Catalog) Count(kind TableKind) (int, error) {
	switch c.rep {
	case RepresentationText:
		if s, ok := c.text.sections[kind]; ok {
			return s.Count, nil
		}
		return 0, nil
	}

	path, ok := c.bin.files[kind]
	if !ok {
		return 0, nil
	}
	switch kind {
	case TableLab:
		t, err := openBinTable(path, kind, nil)
		if err != nil {
			return 0, classify(path, err)
		}
		defer t.Close()
		if n := labCount(t); n >= 0 {
			return n, nil
		}
		cur, err := c.Labels()
		if err != nil {
			return 0, err
		}
		return count(cur)
	case TableArc:
		cur, err := c.Arcs()
		if err != nil {
			return 0, err
		}
		return count(cur)
	case TablePal:
		cur, err := c.Polygons()
		if err != nil {
			return 0, err
		}
		return count(cur)
	case TableCnt:
		cur, err := c.Centroids()
		if err != nil {
			return 0, err
		}
		return count(cur)
	case TableTol:
		tols, err := c.Tolerances()
		return len(tols), err
	}
	return 0, nil
}

// Precision returns the precision of a geometry table.
func (c *Catalog) Precision(kind TableKind) (binread.Precision, error) {
	switch c.rep {
	case RepresentationText:
		s, ok := c.text.sections[kind]
		if ok && s.Double {
			return binread.Double, nil
		}
		return binread.Single, nil
	}
	path, ok := c.bin.files[kind]
	if !ok {
		return binread.Single, nil
	}
	t, err := openBinTable(path, kind, nil)
	if err != nil {
		return 0, classify(path, err)
	}
	defer t.Close()
	return t.precision, nil
}

// ProjectionLines returns the raw PRJ lines. ok is false when the coverage
// has no PRJ table.
func (c *Catalog) ProjectionLines() (lines []string, ok bool, err error) {
	switch c.rep {
	case RepresentationBinary:
		path, ok := c.bin.files[TablePrj]
		if !ok {
			return nil, false, nil
		}
		lines, err := readBinPrj(path, c.bin.enc)
		if err != nil {
			return nil, true, classify(path, err)
		}
		return lines, true, nil
	default:
		if !c.text.hasPrj {
			return nil, false, nil
		}
		return c.text.prj, true, nil
	}
}

// Tables returns the INFO table definitions sorted by name.
func (c *Catalog) Tables() []TableDef {
	var out []TableDef
	switch c.rep {
	case RepresentationBinary:
		out = append(out, c.bin.tables...)
	default:
		for _, t := range c.text.tables {
			out = append(out, t.Def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Table finds an INFO table by full name ("COVER.PAT") or by suffix
// ("PAT"), ignoring case.
func (c *Catalog) Table(name string) (TableDef, bool) {
	name = strings.ToUpper(name)
	full := name
	if !strings.Contains(name, ".") {
		full = c.Name() + "." + name
	}
	for _, t := range c.Tables() {
		if strings.ToUpper(t.Name) == full {
			return t, true
		}
	}
	return TableDef{}, false
}

// Rows opens a cursor over the rows of an INFO table. Rows hold the visible
// items only.
func (c *Catalog) Rows(name string) (*Cursor[Row], error) {
	def, ok := c.Table(name)
	if !ok {
		return nil, errors.Errorf("no INFO table %q in coverage %s", name, c.Name())
	}
	switch c.rep {
	case RepresentationBinary:
		cur, err := openBinRows(&def, c.bin.enc)
		if err != nil {
			return nil, classify(def.dataFile, err)
		}
		path := def.dataFile
		return newCursor(func() (Row, error) {
			row, err := cur.Next()
			if err != nil && err != io.EOF {
				return nil, classify(path, err)
			}
			return row, err
		}, cursorCloser[Row]{cur}), nil
	default:
		var tt *textTable
		for _, t := range c.text.tables {
			if t.Def.Name == def.Name {
				tt = t
				break
			}
		}
		if tt == nil {
			return nil, errors.Errorf("no INFO table %q in coverage %s", name, c.Name())
		}
		f, r, err := c.text.reopen(tt.Offset, tt.Line)
		if err != nil {
			return nil, err
		}
		fields := def.VisibleFields()
		size := def.TextRecordSize()
		dec := newDecoder(c.text.enc)
		i := 0
		path := c.text.path
		return newCursor(func() (Row, error) {
			if i >= def.NumRecords {
				return nil, io.EOF
			}
			i++
			rec, err := e00.ReadRecord(r, size)
			if err != nil {
				return nil, classify(path, err)
			}
			return decodeTextRow(rec, fields, dec), nil
		}, f), nil
	}
}

// cursorCloser adapts a Cursor to io.Closer.
type cursorCloser[T any] struct {
	c *Cursor[T]
}

func (cc cursorCloser[T]) Close() error {
	return cc.c.Close()
}

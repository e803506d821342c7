package avctest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// E00 returns cov as an uncompressed E00 export. Besides the decoded
// sections it carries LOG, SIN and TX6 sections that readers must skip.
func E00(cov *Coverage) string {
	w := &e00Writer{double: cov.Double}
	name := strings.ToUpper(cov.Name)
	w.line("EXP  0 /arc/workspace/%s.E00", name)

	if len(cov.Arcs) > 0 {
		w.section("ARC")
		for _, a := range cov.Arcs {
			w.line("%10d%10d%10d%10d%10d%10d%10d", a.ID, a.UserID, a.FNode, a.TNode, a.LPoly, a.RPoly, len(a.Vertices))
			w.vertices(a.Vertices, a.Packed)
		}
		w.line("%10d%10d%10d%10d%10d%10d%10d", -1, 0, 0, 0, 0, 0, 0)
	}

	if len(cov.Centroids) > 0 {
		w.section("CNT")
		for _, c := range cov.Centroids {
			w.line("%10d%s%s", len(c.LabelIDs), w.real(c.X), w.real(c.Y))
			w.ints(c.LabelIDs, 8)
		}
		w.line("%10d%s%s", -1, w.real(0), w.real(0))
	}

	if len(cov.Labels) > 0 {
		w.section("LAB")
		for _, l := range cov.Labels {
			w.line("%10d%10d%s%s", l.ValueID, l.PolyID, w.real(l.Coords[0][0]), w.real(l.Coords[0][1]))
			if w.double {
				w.line("%s%s", w.real(l.Coords[1][0]), w.real(l.Coords[1][1]))
				w.line("%s%s", w.real(l.Coords[2][0]), w.real(l.Coords[2][1]))
			} else {
				w.line("%s%s%s%s", w.real(l.Coords[1][0]), w.real(l.Coords[1][1]), w.real(l.Coords[2][0]), w.real(l.Coords[2][1]))
			}
		}
		w.line("%10d%10d%s%s", -1, 0, w.real(0), w.real(0))
	}

	w.line("LOG  2")
	w.line("1995-03-02 12:00 BUILD %s POLY", name)
	w.line("EOL")

	if len(cov.Polygons) > 0 {
		w.section("PAL")
		for _, p := range cov.Polygons {
			if w.double {
				w.line("%10d%s%s", len(p.Arcs), w.real(p.Bounds[0]), w.real(p.Bounds[1]))
				w.line("%s%s", w.real(p.Bounds[2]), w.real(p.Bounds[3]))
			} else {
				w.line("%10d%s%s%s%s", len(p.Arcs), w.real(p.Bounds[0]), w.real(p.Bounds[1]), w.real(p.Bounds[2]), w.real(p.Bounds[3]))
			}
			flat := make([]int, 0, 3*len(p.Arcs))
			for _, pa := range p.Arcs {
				flat = append(flat, pa.ArcID, pa.FNode, pa.AdjPoly)
			}
			w.ints(flat, 6)
		}
		w.line("%10d%s%s%s%s", -1, w.real(0), w.real(0), w.real(0), w.real(0))
	}

	if len(cov.Prj) > 0 {
		w.line("PRJ  2")
		for _, l := range cov.Prj {
			w.line("%s", l)
			w.line("~")
		}
		w.line("EOP")
	}

	w.line("SIN  2")
	w.line("EOX")

	if len(cov.Tolerances) > 0 {
		w.section("TOL")
		for _, t := range cov.Tolerances {
			w.line("%10d%10d%s", t.Index, t.Flag, w.real(t.Value))
		}
		w.line("%10d%10d%s", -1, 0, w.real(0))
	}

	w.line("TX6  2")
	w.line("ANNO.TEXT")
	w.line("%10d%10d%10d", 1, 1, 0)
	w.line("JABBERWOCKY")

	if len(cov.Tables) > 0 {
		w.section("IFO")
		for _, tab := range cov.Tables {
			w.table(name, tab)
		}
		w.line("EOI")
	}

	w.line("EOS")
	return w.sb.String()
}

// WriteE00 writes the export of cov to path.
func WriteE00(path string, cov *Coverage) error {
	return os.WriteFile(path, []byte(E00(cov)), 0o644)
}

// MustWriteE00 writes the export of cov into dir and returns its path.
func MustWriteE00(t testing.TB, dir string, cov *Coverage) string {
	t.Helper()
	path := filepath.Join(dir, strings.ToLower(cov.Name)+".e00")
	if err := WriteE00(path, cov); err != nil {
		t.Fatalf("writing E00 %s: %v", cov.Name, err)
	}
	return path
}

type e00Writer struct {
	sb     strings.Builder
	double bool
}

func (w *e00Writer) line(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *e00Writer) section(code string) {
	if w.double {
		w.line("%s  3", code)
	} else {
		w.line("%s  2", code)
	}
}

func (w *e00Writer) real(v float64) string {
	if w.double {
		return fmt.Sprintf("%21.14E", v)
	}
	return fmt.Sprintf("%14.7E", v)
}

func (w *e00Writer) ints(vs []int, perLine int) {
	for i := 0; i < len(vs); i += perLine {
		end := i + perLine
		if end > len(vs) {
			end = len(vs)
		}
		var sb strings.Builder
		for _, v := range vs[i:end] {
			fmt.Fprintf(&sb, "%10d", v)
		}
		w.line("%s", sb.String())
	}
}

// vertices writes a vertex block. Packed arcs turn repeated vertices into
// run lines where a line boundary allows it.
func (w *e00Writer) vertices(vs [][2]float64, packed bool) {
	perLine := 2
	if w.double {
		perLine = 1
	}
	var pending [][2]float64
	flush := func() {
		if len(pending) == 0 {
			return
		}
		var sb strings.Builder
		for _, v := range pending {
			sb.WriteString(w.real(v[0]))
			sb.WriteString(w.real(v[1]))
		}
		w.line("%s", sb.String())
		pending = nil
	}
	for i := 0; i < len(vs); {
		j := i
		for j < len(vs) && vs[j] == vs[i] {
			j++
		}
		if packed && j-i >= 2 && len(pending) == 0 {
			w.line("~%10d%s%s", j-i, w.real(vs[i][0]), w.real(vs[i][1]))
			i = j
			continue
		}
		pending = append(pending, vs[i])
		i++
		if len(pending) == perLine {
			flush()
		}
	}
	flush()
}

// table writes one IFO table: header, item definitions and records wrapped
// at 80 columns with trailing blanks stripped.
func (w *e00Writer) table(cover string, tab Table) {
	recSize := tab.Layout()
	ext := "  "
	if tab.External {
		ext = "XX"
	}
	vis := tab.visible()
	w.line("%-32.32s%s%4d%4d%4d%10d", cover+"."+tab.Suffix, ext, len(tab.Fields), len(tab.Fields), recSize, len(tab.Rows))
	for _, f := range tab.Fields {
		w.line("%-16.16s%3d%2d%4d%1d%2d%4d%2d%3d%2d%4d%4d%2d%-16.16s%4d-",
			f.Name, f.Size, 2, f.Offset, 4, -1, f.Width, f.Prec, f.Type, -1, -1, -1, -1, "", f.Index)
	}
	for _, row := range tab.Rows {
		var sb strings.Builder
		for i, f := range vis {
			sb.WriteString(e00Value(f, row[i]))
		}
		rec := sb.String()
		for len(rec) > 0 {
			n := 80
			if n > len(rec) {
				n = len(rec)
			}
			w.line("%s", strings.TrimRight(rec[:n], " "))
			rec = rec[n:]
		}
	}
}

func e00Value(f Field, v interface{}) string {
	switch f.Type {
	case BinInt:
		if f.Size == 2 {
			return fmt.Sprintf("%6d", toInt(v))
		}
		return fmt.Sprintf("%11d", toInt(v))
	case BinFloat:
		if f.Size == 8 {
			return fmt.Sprintf("%24.15E", toFloat(v))
		}
		return fmt.Sprintf("%14.7E", toFloat(v))
	case FixNum:
		if f.Size > 8 {
			return fmt.Sprintf("%24.15E", toFloat(v))
		}
		return fmt.Sprintf("%14.7E", toFloat(v))
	default:
		return textValue(f, v)
	}
}

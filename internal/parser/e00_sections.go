package parser

// e00_sections.go - geometry sections of E00 exports
//
// Every section reader consumes exactly one record and returns io.EOF when it
// meets the section terminator. The same readers serve the indexing pass at
// open time and the cursors handed out later.

import (
	"io"
	"strings"

	"github.com/beetlebugorg/avc/internal/e00"
)

// textSection records where a section's records start in the file.
type textSection struct {
	Code   string
	Double bool
	Offset int64 // offset of the first record line
	Line   int   // number of the first record line
	Count  int
}

func readTextArc(r *e00.Reader, double bool, _ int) (Arc, error) {
	line, err := r.Expect("ARC record")
	if err != nil {
		return Arc{}, err
	}
	if e00.IsTerminator(line) {
		return Arc{}, io.EOF
	}
	v, err := e00.Ints(line, e00.IntWidth, 7)
	if err != nil {
		return Arc{}, err
	}
	if v[6] < 0 {
		return Arc{}, e00.Malformed(line.Number, "negative vertex count %d", v[6])
	}
	arc := Arc{ID: v[0], UserID: v[1], FNode: v[2], TNode: v[3], LPoly: v[4], RPoly: v[5]}
	if arc.Vertices, err = e00.ReadVertices(r, v[6], double); err != nil {
		return Arc{}, err
	}
	return arc, nil
}

// readTextPal reads one polygon. E00 does not store polygon IDs; they are
// the 1-based sequence numbers.
func readTextPal(r *e00.Reader, double bool, seq int) (Polygon, error) {
	line, err := r.Expect("PAL record")
	if err != nil {
		return Polygon{}, err
	}
	if e00.IsTerminator(line) {
		return Polygon{}, io.EOF
	}
	n, err := e00.Int(line, 0, e00.IntWidth)
	if err != nil {
		return Polygon{}, err
	}
	if n < 0 {
		return Polygon{}, e00.Malformed(line.Number, "negative arc count %d", n)
	}

	poly := Polygon{ID: seq}
	width := e00.RealWidth(double)
	if double {
		lo, err := e00.Reals(line, e00.IntWidth, width, 2)
		if err != nil {
			return Polygon{}, err
		}
		next, err := r.Expect("PAL bounds")
		if err != nil {
			return Polygon{}, err
		}
		hi, err := e00.Reals(next, 0, width, 2)
		if err != nil {
			return Polygon{}, err
		}
		poly.Bounds = [4]float64{lo[0], lo[1], hi[0], hi[1]}
	} else {
		b, err := e00.Reals(line, e00.IntWidth, width, 4)
		if err != nil {
			return Polygon{}, err
		}
		copy(poly.Bounds[:], b)
	}

	ids, err := e00.ReadIntList(r, 3*n, 6)
	if err != nil {
		return Polygon{}, err
	}
	poly.Arcs = make([]PalArc, n)
	for i := range poly.Arcs {
		poly.Arcs[i] = PalArc{ArcID: ids[3*i], FNode: ids[3*i+1], AdjPoly: ids[3*i+2]}
	}
	return poly, nil
}

// readTextCnt reads one centroid. Like polygons, centroids are numbered by
// sequence.
func readTextCnt(r *e00.Reader, double bool, seq int) (Centroid, error) {
	line, err := r.Expect("CNT record")
	if err != nil {
		return Centroid{}, err
	}
	if e00.IsTerminator(line) {
		return Centroid{}, io.EOF
	}
	n, err := e00.Int(line, 0, e00.IntWidth)
	if err != nil {
		return Centroid{}, err
	}
	if n < 0 {
		return Centroid{}, e00.Malformed(line.Number, "negative label count %d", n)
	}
	xy, err := e00.Reals(line, e00.IntWidth, e00.RealWidth(double), 2)
	if err != nil {
		return Centroid{}, err
	}
	cnt := Centroid{ID: seq, X: xy[0], Y: xy[1]}
	if cnt.LabelIDs, err = e00.ReadIntList(r, n, 8); err != nil {
		return Centroid{}, err
	}
	return cnt, nil
}

func readTextLab(r *e00.Reader, double bool, _ int) (Label, error) {
	line, err := r.Expect("LAB record")
	if err != nil {
		return Label{}, err
	}
	if e00.IsTerminator(line) {
		return Label{}, io.EOF
	}
	ids, err := e00.Ints(line, e00.IntWidth, 2)
	if err != nil {
		return Label{}, err
	}
	width := e00.RealWidth(double)
	xy, err := e00.Reals(line, 2*e00.IntWidth, width, 2)
	if err != nil {
		return Label{}, err
	}
	lab := Label{ValueID: ids[0], PolyID: ids[1]}
	lab.Coords[0] = [2]float64{xy[0], xy[1]}

	if double {
		for i := 1; i <= 2; i++ {
			next, err := r.Expect("LAB box corner")
			if err != nil {
				return Label{}, err
			}
			v, err := e00.Reals(next, 0, width, 2)
			if err != nil {
				return Label{}, err
			}
			lab.Coords[i] = [2]float64{v[0], v[1]}
		}
		return lab, nil
	}

	next, err := r.Expect("LAB box corners")
	if err != nil {
		return Label{}, err
	}
	v, err := e00.Reals(next, 0, width, 4)
	if err != nil {
		return Label{}, err
	}
	lab.Coords[1] = [2]float64{v[0], v[1]}
	lab.Coords[2] = [2]float64{v[2], v[3]}
	return lab, nil
}

func readTextTol(r *e00.Reader, double bool, _ int) (Tolerance, error) {
	line, err := r.Expect("TOL record")
	if err != nil {
		return Tolerance{}, err
	}
	if e00.IsTerminator(line) {
		return Tolerance{}, io.EOF
	}
	ids, err := e00.Ints(line, e00.IntWidth, 2)
	if err != nil {
		return Tolerance{}, err
	}
	v, err := e00.Real(line, 2*e00.IntWidth, e00.RealWidth(double))
	if err != nil {
		return Tolerance{}, err
	}
	return Tolerance{Index: ids[0], Flag: ids[1], Value: v}, nil
}

// readTextPrj reads the PRJ section up to EOP. Keyword lines are followed
// by, or end with, a "~" continuation marker that is dropped.
func readTextPrj(r *e00.Reader) ([]string, error) {
	var lines []string
	for {
		line, err := r.Expect("EOP")
		if err != nil {
			return nil, err
		}
		text := strings.TrimRight(line.Text, " ")
		if text == "EOP" {
			return lines, nil
		}
		text = strings.TrimRight(strings.TrimSuffix(text, "~"), " ")
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
}

// countText consumes a whole section and returns its record count.
func countText[T any](r *e00.Reader, double bool, read func(*e00.Reader, bool, int) (T, error)) (int, error) {
	n := 0
	for {
		_, err := read(r, double, n+1)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

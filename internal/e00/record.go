package e00

import (
	"strings"
)

// RunSentinel starts a packed run line inside a vertex block.
const RunSentinel = '~'

// MaxRunLength is the longest run a single run line may expand to, the same
// bound an int16 run header gives AVCBin packed columns.
const MaxRunLength = 32768

// IsRunLine reports whether the first non-blank character of text is the
// run sentinel.
func IsRunLine(text string) bool {
	trimmed := strings.TrimLeft(text, " ")
	return len(trimmed) > 0 && trimmed[0] == RunSentinel
}

// ParseRunLine decodes "~<count><x><y>": count repetitions of one vertex.
func ParseRunLine(line Line, width int) (count int, x, y float64, err error) {
	start := strings.IndexByte(line.Text, RunSentinel) + 1
	count, err = Int(line, start, IntWidth)
	if err != nil {
		return 0, 0, 0, err
	}
	if count <= 0 || count > MaxRunLength {
		return 0, 0, 0, Malformed(line.Number, "run count %d out of range 1..%d", count, MaxRunLength)
	}
	vals, err := Reals(line, start+IntWidth, width, 2)
	if err != nil {
		return 0, 0, 0, err
	}
	return count, vals[0], vals[1], nil
}

// ReadVertices reads a block of n vertices. Single precision blocks carry
// two vertices per line, double precision blocks one. Run lines expand to
// repeated vertices. The block grows as lines are read, so a corrupt count
// fails when the lines run out instead of sizing an allocation.
func ReadVertices(r *Reader, n int, double bool) ([][2]float64, error) {
	width := RealWidth(double)
	perLine := 2
	if double {
		perLine = 1
	}

	var pts [][2]float64
	for len(pts) < n {
		line, err := r.Expect("vertex line")
		if err != nil {
			return nil, err
		}

		if IsRunLine(line.Text) {
			count, x, y, err := ParseRunLine(line, width)
			if err != nil {
				return nil, err
			}
			if len(pts)+count > n {
				return nil, Malformed(line.Number, "run of %d vertices overflows block of %d", count, n)
			}
			for i := 0; i < count; i++ {
				pts = append(pts, [2]float64{x, y})
			}
			continue
		}

		want := n - len(pts)
		if want > perLine {
			want = perLine
		}
		vals, err := Reals(line, 0, width, want*2)
		if err != nil {
			return nil, err
		}
		for i := 0; i < want; i++ {
			pts = append(pts, [2]float64{vals[2*i], vals[2*i+1]})
		}
	}
	return pts, nil
}

// ReadIntList reads n integers written perLine per line in %10d columns.
func ReadIntList(r *Reader, n, perLine int) ([]int, error) {
	var out []int
	for len(out) < n {
		line, err := r.Expect("integer list line")
		if err != nil {
			return nil, err
		}
		want := n - len(out)
		if want > perLine {
			want = perLine
		}
		vals, err := Ints(line, IntWidth, want)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// ReadRecord reads one INFO record of size characters. Records are wrapped
// at 80 columns; lines shorter than their share are padded with blanks.
func ReadRecord(r *Reader, size int) (string, error) {
	if size <= 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.Grow(size)
	for sb.Len() < size {
		line, err := r.Expect("table record line")
		if err != nil {
			return "", err
		}
		chunk := size - sb.Len()
		if chunk > LineWidth {
			chunk = LineWidth
		}
		text := line.Text
		if len(text) > chunk {
			if strings.TrimRight(text[chunk:], " ") != "" {
				return "", Malformed(line.Number, "record line longer than %d columns", chunk)
			}
			text = text[:chunk]
		}
		sb.WriteString(Column(text, 0, chunk))
	}
	return sb.String(), nil
}

// SkipUntil consumes lines up to and including the first whose trimmed text
// equals one of the markers.
func SkipUntil(r *Reader, markers ...string) (Line, error) {
	for {
		line, err := r.Expect(strings.Join(markers, " or "))
		if err != nil {
			return Line{}, err
		}
		trimmed := strings.TrimSpace(line.Text)
		for _, m := range markers {
			if trimmed == m {
				return line, nil
			}
		}
	}
}

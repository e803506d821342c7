package e00

import (
	"strconv"
	"strings"
)

// Column widths used by the E00 writer.
const (
	IntWidth         = 10 // %10d
	SingleWidth      = 14 // %14.7E
	DoubleWidth      = 21 // %21.14E, geometry sections
	TableDoubleWidth = 24 // %24.15E, INFO tables
	LineWidth        = 80 // INFO records are wrapped at 80 columns
)

// RealWidth returns the column width of reals in geometry sections.
func RealWidth(double bool) int {
	if double {
		return DoubleWidth
	}
	return SingleWidth
}

// Column returns text[start:start+width], padded with blanks when the line
// is shorter. Writers often strip trailing blanks.
func Column(text string, start, width int) string {
	if start >= len(text) {
		return strings.Repeat(" ", width)
	}
	end := start + width
	if end > len(text) {
		return text[start:] + strings.Repeat(" ", end-len(text))
	}
	return text[start:end]
}

// Int parses the integer column [start, start+width) of line.
func Int(line Line, start, width int) (int, error) {
	field := strings.TrimSpace(Column(line.Text, start, width))
	if field == "" {
		return 0, Malformed(line.Number, "missing integer at column %d", start+1)
	}
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, Malformed(line.Number, "invalid integer %q at column %d", field, start+1)
	}
	return v, nil
}

// Real parses the real column [start, start+width) of line.
func Real(line Line, start, width int) (float64, error) {
	field := strings.TrimSpace(Column(line.Text, start, width))
	if field == "" {
		return 0, Malformed(line.Number, "missing real at column %d", start+1)
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, Malformed(line.Number, "invalid real %q at column %d", field, start+1)
	}
	return v, nil
}

// Ints parses n consecutive integer columns of the given width.
func Ints(line Line, width, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := Int(line, i*width, width)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Reals parses n consecutive real columns of the given width starting at
// column start.
func Reals(line Line, start, width, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := Real(line, start+i*width, width)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// IsTerminator reports whether line is a geometry section terminator: a
// record whose leading integer column holds -1.
func IsTerminator(line Line) bool {
	return strings.TrimSpace(Column(line.Text, 0, IntWidth)) == "-1"
}

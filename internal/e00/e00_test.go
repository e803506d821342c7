package e00

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Header
		wantErr error
	}{
		{
			name: "uncompressed",
			line: "EXP  0 /HOME/DATA/WELLS.E00",
			want: Header{Path: "/HOME/DATA/WELLS.E00", Name: "WELLS"},
		},
		{
			name: "pc path",
			line: `EXP  0 C:\DATA\TESTPOLY.E00`,
			want: Header{Path: `C:\DATA\TESTPOLY.E00`, Name: "TESTPOLY"},
		},
		{
			name:    "compressed",
			line:    "EXP  1 /HOME/DATA/COMP.E00",
			wantErr: ErrUnsupportedEncoding,
		},
		{
			name:    "not e00",
			line:    "POLYGON ((0 0, 1 1))",
			wantErr: ErrNotE00,
		},
		{
			name:    "unknown flag",
			line:    "EXP  9 /X.E00",
			wantErr: ErrNotE00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.line)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.NotEmpty(t, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSection(t *testing.T) {
	sec, ok := ParseSection("ARC  2")
	require.True(t, ok)
	assert.Equal(t, SectionLine{Code: "ARC"}, sec)

	sec, ok = ParseSection("PAL  3")
	require.True(t, ok)
	assert.True(t, sec.Double)

	sec, ok = ParseSection("EOS")
	require.True(t, ok)
	assert.Equal(t, "EOS", sec.Code)

	_, ok = ParseSection("         1         2")
	assert.False(t, ok)
	_, ok = ParseSection("Projection    UTM~")
	assert.False(t, ok)
}

func TestReaderPeekAndSeek(t *testing.T) {
	input := "EXP  0 /X.E00\nARC  2\r\nEOS"
	r := NewReader(strings.NewReader(input))

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, int64(0), first.Offset)

	peeked, err := r.Peek()
	require.NoError(t, err)
	assert.Equal(t, "ARC  2", peeked.Text)
	assert.Equal(t, 1, r.LineNumber())

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, peeked, second)
	assert.Equal(t, int64(14), second.Offset)

	last, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "EOS", last.Text)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)

	require.NoError(t, r.Seek(second.Offset, second.Number))
	again, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestReadVerticesSingle(t *testing.T) {
	input := strings.Join([]string{
		" 3.4009988E+05 4.1002000E+06 3.4040006E+05 4.1003995E+06",
		" 3.4090012E+05 4.1002000E+06",
	}, "\n")
	r := NewReader(strings.NewReader(input))

	pts, err := ReadVertices(r, 3, false)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.InDelta(t, 340099.88, pts[0][0], 0.01)
	assert.InDelta(t, 4100399.5, pts[1][1], 0.01)
	assert.InDelta(t, 340900.12, pts[2][0], 0.01)
}

func TestReadVerticesTouchingNegatives(t *testing.T) {
	input := "-1.2345678E+02-4.5000000E+01"
	r := NewReader(strings.NewReader(input))

	pts, err := ReadVertices(r, 1, false)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-123.45678, -45}, pts[0])
}

func TestReadVerticesDoubleWithRun(t *testing.T) {
	input := strings.Join([]string{
		" 1.00000000000000E+00 2.00000000000000E+00",
		"~         3 0.00000000000000E+00 5.00000000000000E+00",
		" 9.00000000000000E+00 9.00000000000000E+00",
	}, "\n")
	r := NewReader(strings.NewReader(input))

	pts, err := ReadVertices(r, 5, true)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{1, 2}, {0, 5}, {0, 5}, {0, 5}, {9, 9}}, pts)
}

func TestReadVerticesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
	}{
		{name: "truncated block", input: " 1.0000000E+00 2.0000000E+00", n: 2},
		{name: "garbage", input: " 1.0000000E+00 abcdefghijklmn", n: 1},
		{name: "run overflow", input: "~         4 1.0000000E+00 2.0000000E+00", n: 2},
		{name: "huge declared count", input: " 1.0000000E+00 2.0000000E+00", n: 2000000000},
		{name: "huge run", input: "~2000000000 1.0000000E+00 2.0000000E+00", n: 2000000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			_, err := ReadVertices(r, tt.n, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedText)
		})
	}
}

func TestReadIntList(t *testing.T) {
	input := strings.Join([]string{
		"         1         2         3         4         5         6         7         8",
		"         9        10",
	}, "\n")
	r := NewReader(strings.NewReader(input))

	ids, err := ReadIntList(r, 10, 8)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids)
}

func TestReadIntListHugeCount(t *testing.T) {
	r := NewReader(strings.NewReader("         1         2"))
	_, err := ReadIntList(r, 2000000000, 8)
	assert.ErrorIs(t, err, ErrMalformedText)
}

func TestReadRecordPadsStrippedLines(t *testing.T) {
	// 90 character record: first line is stripped of trailing blanks.
	first := strings.Repeat("A", 70)
	second := strings.Repeat("B", 10)
	r := NewReader(strings.NewReader(first + "\n" + second + "\n"))

	rec, err := ReadRecord(r, 90)
	require.NoError(t, err)
	assert.Len(t, rec, 90)
	assert.Equal(t, first+strings.Repeat(" ", 10)+second, rec)
}

func TestSkipUntil(t *testing.T) {
	r := NewReader(strings.NewReader("a\nb\nEOX\nnext"))
	line, err := SkipUntil(r, "EOX", "EOL")
	require.NoError(t, err)
	assert.Equal(t, 3, line.Number)

	next, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "next", next.Text)

	_, err = SkipUntil(NewReader(strings.NewReader("a\nb")), "EOX")
	assert.ErrorIs(t, err, ErrMalformedText)
}

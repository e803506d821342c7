package parser

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/avc/internal/avctest"
)

func TestCatalogTables(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := rep.open(t, avctest.LineCoverage("TESTAVC"), testOptions())
			cat := c.Catalog()

			tables := cat.Tables()
			require.Len(t, tables, 1)
			def := tables[0]
			assert.Equal(t, "TESTAVC.AAT", def.Name)
			assert.Equal(t, "AAT", def.Suffix())
			assert.Equal(t, 7, def.NumRecords)
			assert.Equal(t, 28, def.RecordSize)
			assert.Len(t, def.Fields, 8)
			assert.Len(t, def.VisibleFields(), 7)
			assert.Equal(t, 80, def.TextRecordSize())
			assert.False(t, def.Fields[7].Visible())
			assert.Equal(t, FieldBinInt, def.Fields[7].Type)
			assert.Equal(t, 27, def.Fields[7].Offset)

			_, ok := cat.Table("aat")
			assert.True(t, ok)
			_, ok = cat.Table("testavc.aat")
			assert.True(t, ok)
			_, ok = cat.Table("PAT")
			assert.False(t, ok)

			cur, err := cat.Rows("AAT")
			require.NoError(t, err)
			rows, err := collect(cur)
			require.NoError(t, err)
			require.Len(t, rows, 7)
			assert.Equal(t, 1, rows[0][0])
			assert.Equal(t, 2, rows[0][1])
			assert.Equal(t, 7, rows[6][6])

			_, err = cat.Rows("PAT")
			assert.Error(t, err)
		})
	}
}

func TestCatalogCounts(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			cat := rep.open(t, avctest.PolygonCoverage("TESTPOLY", false), testOptions()).Catalog()
			for kind, want := range map[TableKind]int{
				TableArc: 5,
				TablePal: 4,
				TableCnt: 4,
				TableLab: 3,
				TableTol: 10,
			} {
				n, err := cat.Count(kind)
				require.NoError(t, err)
				assert.Equal(t, want, n, "%s", kind)
			}
			assert.True(t, cat.Has(TablePrj))
			assert.True(t, cat.Has(TableTol))
		})
	}
}

func TestSharedInfoDirectory(t *testing.T) {
	ws := t.TempDir()
	lineDir := avctest.MustWriteBinary(t, ws, avctest.LineCoverage("TESTAVC"))
	pointDir := avctest.MustWriteBinary(t, ws, avctest.PointCoverage("WELLS", 10))

	line, err := Open(lineDir, testOptions())
	require.NoError(t, err)
	points, err := Open(pointDir, testOptions())
	require.NoError(t, err)

	require.Len(t, line.Catalog().Tables(), 1)
	assert.Equal(t, "TESTAVC.AAT", line.Catalog().Tables()[0].Name)
	require.Len(t, points.Catalog().Tables(), 1)
	assert.Equal(t, "WELLS.PAT", points.Catalog().Tables()[0].Name)

	feats := readFeatures(t, points.Layers()[0])
	require.Len(t, feats, 10)
	assert.Equal(t, "WELL 10", feats[9].Field(6))
}

func TestExternalTable(t *testing.T) {
	cov := avctest.PointCoverage("WELLS", 4)
	cov.Tables[0].External = true
	dir := avctest.MustWriteBinary(t, t.TempDir(), cov)

	c, err := Open(dir, testOptions())
	require.NoError(t, err)
	def, ok := c.Catalog().Table("PAT")
	require.True(t, ok)
	assert.True(t, def.External)

	feats := readFeatures(t, c.Layers()[0])
	require.Len(t, feats, 4)
	assert.Equal(t, "WELL 4", feats[3].Field(6))
}

func TestUpperCaseInfoDirectory(t *testing.T) {
	ws := t.TempDir()
	dir := avctest.MustWriteBinary(t, ws, avctest.PointCoverage("WELLS", 3))
	require.NoError(t, os.Rename(filepath.Join(ws, "info"), filepath.Join(ws, "INFO")))

	c, err := Open(dir, testOptions())
	require.NoError(t, err)
	assert.Len(t, c.Layers()[0].Fields(), 7)
}

func TestOpenTableFile(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("TESTAVC"))
	c, err := Open(filepath.Join(dir, "arc.adf"), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "TESTAVC", c.Name())
	assert.Equal(t, RepresentationBinary, c.Catalog().Representation())
}

func TestOpenErrors(t *testing.T) {
	tmp := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(tmp, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	emptyDir := filepath.Join(tmp, "empty")
	require.NoError(t, os.Mkdir(emptyDir, 0o755))

	malformed := strings.Replace(avctest.E00(avctest.LineCoverage("TESTAVC")),
		" 3.4040006E+05 4.1003995E+06", " 3.4040006E+05 not-a-number!", 1)

	tests := []struct {
		name string
		path string
		kind ErrorKind
	}{
		{"missing path", filepath.Join(tmp, "nope"), NotRecognized},
		{"empty directory", emptyDir, NotRecognized},
		{"plain text", write("notes.txt", "hello\n"), NotRecognized},
		{"bad EXP flag", write("bad.e00", "EXP  7 /x/BAD.E00\n"), NotRecognized},
		{"compressed E00", write("comp.e00", "EXP  1 /home/data/COMP.E00\n:0000000000:\n"), UnsupportedEncoding},
		{"malformed vertices", write("mal.e00", malformed), MalformedText},
		{"corrupt vertex count", write("count.e00", "EXP  0 /x/COUNT.E00\nARC  2\n"+
			fmt.Sprintf("%10d%10d%10d%10d%10d%10d%10d\n", 1, 1, 1, 2, 0, 0, 2000000000)+
			" 3.4009988E+05 4.1002000E+06 3.4040006E+05 4.1003995E+06\n"+
			fmt.Sprintf("%10d%10d%10d%10d%10d%10d%10d\n", -1, 0, 0, 0, 0, 0, 0)+
			"EOS\n"), MalformedText},
		{"oversized vertex run", write("run.e00", "EXP  0 /x/RUN.E00\nARC  2\n"+
			fmt.Sprintf("%10d%10d%10d%10d%10d%10d%10d\n", 1, 1, 1, 2, 0, 0, 2000000000)+
			fmt.Sprintf("~%10d%14.7E%14.7E\n", 2000000000, 340099.875, 4100200.0)+
			"EOS\n"), MalformedText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(tt.path, testOptions())
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, tt.kind, KindOf(err), "error: %v", err)
			assert.NotEmpty(t, err.Error())

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.path, e.Path)
		})
	}
}

func TestTruncatedBinaryTable(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("TESTAVC"))
	path := filepath.Join(dir, "arc.adf")
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-10))

	c, err := Open(dir, testOptions())
	require.NoError(t, err)

	cur, err := c.Layers()[0].Features()
	require.NoError(t, err)
	defer cur.Close()
	n := 0
	for {
		_, err = cur.Next()
		if err != nil {
			break
		}
		n++
	}
	assert.Equal(t, 6, n)
	assert.Equal(t, CorruptRecord, KindOf(err))
	assert.ErrorIs(t, err, ErrCorruptRecord)

	// The cursor stays failed.
	_, again := cur.Next()
	assert.Equal(t, err, again)
}

func TestCorruptBinaryCounts(t *testing.T) {
	// The vertex count of the first arc follows the 100 byte header, the
	// record id and length, and five header integers.
	const countOffset = 100 + 8 + 20
	for _, count := range []int32{2000000000, -2000000000} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("TESTAVC"))
			path := filepath.Join(dir, "arc.adf")
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			binary.BigEndian.PutUint32(data[countOffset:], uint32(count))
			require.NoError(t, os.WriteFile(path, data, 0o644))

			c, err := Open(dir, testOptions())
			require.NoError(t, err)
			cur, err := c.Layers()[0].Features()
			require.NoError(t, err)
			defer cur.Close()

			_, err = cur.Next()
			require.Error(t, err)
			assert.Equal(t, CorruptRecord, KindOf(err), "error: %v", err)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestMissingEOS(t *testing.T) {
	text := avctest.E00(avctest.PointCoverage("WELLS", 3))
	text = strings.TrimSuffix(text, "EOS\n")
	path := filepath.Join(t.TempDir(), "wells.e00")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	c, err := Open(path, testOptions())
	require.NoError(t, err)
	assert.Len(t, readFeatures(t, c.Layers()[0]), 3)
}

func TestIndependentCursors(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := rep.open(t, avctest.LineCoverage("TESTAVC"), testOptions())
			l := c.Layers()[0]
			a, err := l.Features()
			require.NoError(t, err)
			b, err := l.Features()
			require.NoError(t, err)

			fa, err := a.Next()
			require.NoError(t, err)
			fb, err := b.Next()
			require.NoError(t, err)
			fa2, err := a.Next()
			require.NoError(t, err)

			assert.Equal(t, 1, fa.FID)
			assert.Equal(t, 1, fb.FID)
			assert.Equal(t, 2, fa2.FID)
			assert.NoError(t, a.Close())
			assert.NoError(t, b.Close())
			assert.NoError(t, b.Close())
		})
	}
}

package avc

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/avc/internal/avctest"
)

const coordTolerance = 0.06

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var representations = []struct {
	name  string
	write func(t *testing.T, cov *avctest.Coverage) string
}{
	{"AVCBin", func(t *testing.T, cov *avctest.Coverage) string {
		return avctest.MustWriteBinary(t, t.TempDir(), cov)
	}},
	{"E00", func(t *testing.T, cov *avctest.Coverage) string {
		return avctest.MustWriteE00(t, t.TempDir(), cov)
	}},
}

func mustOpen(t *testing.T, path string, opts ...Option) *Coverage {
	t.Helper()
	c, err := Open(path, append([]Option{quiet()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func allFeatures(t *testing.T, l *Layer) []*Feature {
	t.Helper()
	var out []*Feature
	require.NoError(t, l.ForEach(func(f *Feature) bool {
		out = append(out, f)
		return true
	}))
	return out
}

func TestLineCoverage(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := mustOpen(t, rep.write(t, avctest.LineCoverage("TESTAVC")))

			assert.Equal(t, "TESTAVC", c.Name())
			assert.Equal(t, rep.name, c.Representation())
			assert.Equal(t, []string{"ARC"}, c.ListLayers())
			assert.Equal(t, 1, c.LayerCount())
			assert.Nil(t, c.Layer(1))

			arcs := c.LayerByName("arc")
			require.NotNil(t, arcs)
			assert.Same(t, arcs, c.Layer(0))
			assert.Equal(t, GeometryLineString, arcs.GeometryType())

			var names []string
			for _, f := range arcs.Fields() {
				names = append(names, f.Name)
			}
			assert.Equal(t, []string{"UserId", "FNODE_", "TNODE_", "LPOLY_", "RPOLY_", "LENGTH", "TESTAVC#", "TESTAVC-ID"}, names)
			assert.Equal(t, FieldReal, arcs.Fields()[5].Type)

			n, err := arcs.FeatureCount()
			require.NoError(t, err)
			feats := allFeatures(t, arcs)
			require.Len(t, feats, n)
			require.Equal(t, 7, n)

			for i, f := range feats {
				id, ok := f.Int(0)
				require.True(t, ok)
				assert.Equal(t, i+1, id)
				assert.Equal(t, i+1, f.FID())
			}

			g, err := wkt.Unmarshal(feats[0].WKT())
			require.NoError(t, err)
			ls, ok := g.(orb.LineString)
			require.True(t, ok, "geometry is %T", g)
			want := orb.LineString{{340099.875, 4100200.0}, {340400.0625, 4100399.5}, {340900.125, 4100200.0}, {340700.03125, 4100199.5}}
			require.Len(t, ls, len(want))
			for i := range want {
				assert.InDelta(t, want[i][0], ls[i][0], coordTolerance)
				assert.InDelta(t, want[i][1], ls[i][1], coordTolerance)
			}

			packed, ok := feats[6].Geometry().(orb.LineString)
			require.True(t, ok)
			assert.Len(t, packed, 5)

			srs := c.SpatialReference()
			require.NotNil(t, srs)
			assert.Equal(t, "UTM", srs.Projection)
			assert.Equal(t, 10, srs.Zone)
			assert.Equal(t, "UTM zone 10 (NAD27, METERS)", srs.String())
			assert.False(t, srs.IsGeographic())
			assert.NotEmpty(t, srs.WKT())
			assert.NotNil(t, arcs.SpatialReference())

			tols, err := c.Tolerances()
			require.NoError(t, err)
			require.Len(t, tols, 10)
			assert.Equal(t, Tolerance{Index: 1, Flag: 1, Value: 0.5}, tols[0])
		})
	}
}

func TestInvalidProjection(t *testing.T) {
	cov := avctest.LineCoverage("TESTAVC")
	cov.Prj = []string{"Zone          10", "Units         METERS"}

	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := mustOpen(t, rep.write(t, cov))
			assert.Nil(t, c.SpatialReference())

			err := c.SpatialReferenceErr()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProjection)
			assert.Equal(t, InvalidProjection, KindOf(err))

			arcs := c.Layer(0)
			assert.Nil(t, arcs.SpatialReference())
			assert.ErrorIs(t, arcs.SpatialReferenceErr(), ErrInvalidProjection)
			assert.Len(t, allFeatures(t, arcs), 7)
		})
	}

	c := mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("TESTAVC")))
	assert.NoError(t, c.SpatialReferenceErr())

	cov.Prj = nil
	c = mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), cov))
	assert.Nil(t, c.SpatialReference())
	assert.NoError(t, c.SpatialReferenceErr())
}

func TestSpatialReferenceIsCopy(t *testing.T) {
	cov := avctest.LineCoverage("TESTAVC")
	cov.Prj = []string{
		"Projection    ALBERS",
		"Units         METERS",
		"Parameters",
		"  29 30  0.000",
		"  45 30  0.000",
	}
	c := mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), cov))

	srs := c.SpatialReference()
	require.NotNil(t, srs)
	require.Len(t, srs.Parameters, 2)
	require.NotEmpty(t, srs.Lines)
	srs.Parameters[0] = -1
	srs.Lines[0] = "Projection    UTM"

	again := c.Layer(0).SpatialReference()
	assert.InDelta(t, 29.5, again.Parameters[0], 1e-12)
	assert.Contains(t, again.Lines[0], "ALBERS")
	assert.Equal(t, "ALBERS", again.Projection)
}

func TestFieldIndexIgnoresCase(t *testing.T) {
	c := mustOpen(t, avctest.MustWriteE00(t, t.TempDir(), avctest.LineCoverage("TESTAVC")))
	arcs := c.Layer(0)

	assert.Equal(t, 0, arcs.FieldIndex("UserId"))
	assert.Equal(t, 0, arcs.FieldIndex("UserID"))
	assert.Equal(t, 7, arcs.FieldIndex("testavc-id"))
	assert.Equal(t, -1, arcs.FieldIndex("NOPE"))

	var f *Feature
	require.NoError(t, arcs.ForEach(func(feat *Feature) bool {
		f = feat
		return false
	}))
	v, ok := f.FieldByName("userid")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestFeatureAccessors(t *testing.T) {
	c := mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), avctest.PointCoverage("WELLS", 3)))
	lab := c.LayerByName("LAB")
	require.NotNil(t, lab)
	assert.Equal(t, GeometryPoint, lab.GeometryType())

	feats := allFeatures(t, lab)
	require.Len(t, feats, 3)
	f := feats[2]

	assert.Equal(t, 7, f.FieldCount())
	assert.Equal(t, 4, lab.FieldIndex("WELLS#"))
	assert.Equal(t, -1, lab.FieldIndex("MISSING"))

	id, ok := f.Int(lab.FieldIndex("WELLS-ID"))
	assert.True(t, ok)
	assert.Equal(t, 3, id)

	name, ok := f.Text(lab.FieldIndex("NAME"))
	assert.True(t, ok)
	assert.Equal(t, "WELL 3", name)

	area, ok := f.Float(lab.FieldIndex("AREA"))
	assert.True(t, ok)
	assert.Zero(t, area)

	asFloat, ok := f.Float(0)
	assert.True(t, ok)
	assert.Equal(t, 3.0, asFloat)

	_, ok = f.Text(0)
	assert.False(t, ok)
	_, ok = f.IntList(0)
	assert.False(t, ok)

	v, ok := f.FieldByName("NAME")
	assert.True(t, ok)
	assert.Equal(t, "WELL 3", v)
	_, ok = f.FieldByName("NOPE")
	assert.False(t, ok)

	assert.True(t, f.IsNull(99))
	assert.False(t, f.IsNull(0))

	props := f.Properties()
	assert.Len(t, props, 7)
	assert.Equal(t, 3, props["ValueId"])

	pt, ok := f.Geometry().(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{340037.5, 4099978.25}, pt)

	b, ok := f.Bounds()
	require.True(t, ok)
	assert.True(t, b.Contains(340037.5, 4099978.25))
}

func TestPolygonLayer(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := mustOpen(t, rep.write(t, avctest.PolygonCoverage("TESTPOLY", true)))
			assert.Equal(t, []string{"ARC", "CNT", "LAB", "PAL"}, c.ListLayers())

			pal := c.LayerByName("PAL")
			require.NotNil(t, pal)
			assert.Equal(t, GeometryPolygon, pal.GeometryType())

			feats := allFeatures(t, pal)
			require.Len(t, feats, 3)
			last := feats[2]
			assert.Equal(t, 4, last.FID())
			assert.Equal(t, 5, last.FieldCount())

			arcIDs, ok := last.IntList(0)
			require.True(t, ok)
			assert.Equal(t, []int{-4, -5}, arcIDs)

			area, ok := last.Float(1)
			require.True(t, ok)
			assert.InDelta(t, 9939.059, area, 0.01)

			poly, ok := last.Geometry().(orb.Polygon)
			require.True(t, ok)
			require.Len(t, poly, 1)
			ring := poly[0]
			assert.Equal(t, ring[0], ring[len(ring)-1])
			assert.NoError(t, last.GeometryErr())

			cnt := c.LayerByName("CNT")
			require.NotNil(t, cnt)
			cfeats := allFeatures(t, cnt)
			require.Len(t, cfeats, 4)
			labels, ok := cfeats[1].IntList(0)
			require.True(t, ok)
			assert.Equal(t, []int{1}, labels)
		})
	}
}

func TestKeepUniversePolygon(t *testing.T) {
	path := avctest.MustWriteE00(t, t.TempDir(), avctest.PolygonCoverage("TESTPOLY", false))
	c := mustOpen(t, path, WithKeepUniversePolygon(true))
	n, err := c.LayerByName("PAL").FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestGeoJSON(t *testing.T) {
	c := mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("TESTAVC")))
	feats := allFeatures(t, c.LayerByName("ARC"))
	require.NotEmpty(t, feats)

	data, err := json.Marshal(feats[0].GeoJSON())
	require.NoError(t, err)

	var doc struct {
		Type       string                 `json:"type"`
		ID         int                    `json:"id"`
		Geometry   map[string]interface{} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Feature", doc.Type)
	assert.Equal(t, 1, doc.ID)
	assert.Equal(t, "LineString", doc.Geometry["type"])
	assert.EqualValues(t, 1, doc.Properties["UserId"])
	assert.EqualValues(t, 1, doc.Properties["TESTAVC-ID"])
}

func TestIteratorReset(t *testing.T) {
	c := mustOpen(t, avctest.MustWriteE00(t, t.TempDir(), avctest.PointCoverage("WELLS", 5)))
	it, err := c.LayerByName("LAB").Iterate()
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	require.True(t, it.Next())
	assert.Equal(t, 2, it.Feature().FID())

	require.NoError(t, it.Reset())
	require.True(t, it.Next())
	assert.Equal(t, 1, it.Feature().FID())

	n := 1
	for it.Next() {
		n++
	}
	assert.NoError(t, it.Err())
	assert.Equal(t, 5, n)
	assert.Nil(t, it.Feature())
	assert.False(t, it.Next())
	assert.NoError(t, it.Close())
	assert.NoError(t, it.Close())
}

func TestForEachStops(t *testing.T) {
	c := mustOpen(t, avctest.MustWriteBinary(t, t.TempDir(), avctest.PointCoverage("WELLS", 10)))
	seen := 0
	err := c.LayerByName("LAB").ForEach(func(f *Feature) bool {
		seen++
		return seen < 4
	})
	require.NoError(t, err)
	assert.Equal(t, 4, seen)
}

func TestTablesAndRows(t *testing.T) {
	for _, rep := range representations {
		t.Run(rep.name, func(t *testing.T) {
			c := mustOpen(t, rep.write(t, avctest.LineCoverage("TESTAVC")))

			tables := c.Tables()
			require.Len(t, tables, 1)
			aat := tables[0]
			assert.Equal(t, "TESTAVC.AAT", aat.Name)
			assert.Equal(t, 7, aat.Records)
			require.Len(t, aat.Items, 8)
			assert.Equal(t, "BINFLOAT", aat.Items[4].Type)
			assert.True(t, aat.Items[7].Redefined)
			assert.False(t, aat.Items[0].Redefined)

			info, ok := c.Table("aat")
			require.True(t, ok)
			assert.Equal(t, aat.Name, info.Name)
			_, ok = c.Table("PAT")
			assert.False(t, ok)

			rows, err := c.Rows("AAT")
			require.NoError(t, err)
			defer rows.Close()
			n := 0
			for rows.Next() {
				n++
				row := rows.Row()
				require.Len(t, row, 7)
				assert.Equal(t, n, row[6])
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, 7, n)

			_, err = c.Rows("BND")
			assert.Error(t, err)
		})
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	compressed := filepath.Join(dir, "comp.e00")
	require.NoError(t, os.WriteFile(compressed, []byte("EXP  1 /home/data/COMP.E00\n:0000000000:\n"), 0o644))
	notCoverage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notCoverage, []byte("hello\n"), 0o644))

	tests := []struct {
		name     string
		path     string
		kind     ErrorKind
		sentinel error
	}{
		{"compressed", compressed, UnsupportedEncoding, ErrUnsupportedEncoding},
		{"text file", notCoverage, NotRecognized, ErrNotRecognized},
		{"empty directory", t.TempDir(), NotRecognized, ErrNotRecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(tt.path, quiet())
			require.Error(t, err)
			assert.Nil(t, c)
			assert.NotEmpty(t, err.Error())
			assert.Equal(t, tt.kind, KindOf(err))
			assert.True(t, errors.Is(err, tt.sentinel))

			var avcErr *Error
			assert.True(t, errors.As(err, &avcErr))
		})
	}
}

func TestOpenZip(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "ws")
	avctest.MustWriteBinary(t, ws, avctest.LineCoverage("TESTAVC"))
	avctest.MustWriteE00(t, ws, avctest.PointCoverage("WELLS", 4))

	archive := filepath.Join(t.TempDir(), "coverages.zip")
	writeZip(t, archive, filepath.Dir(ws))

	t.Run("AVCBin", func(t *testing.T) {
		c, err := Open("zip://"+archive+"!ws/testavc", quiet())
		require.NoError(t, err)
		assert.Equal(t, "TESTAVC", c.Name())
		assert.Equal(t, "zip://"+archive+"!ws/testavc", c.Path())
		n, err := c.LayerByName("ARC").FeatureCount()
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Len(t, c.Tables(), 1)
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})

	t.Run("E00", func(t *testing.T) {
		c, err := Open("zip://"+archive+"!ws/wells.e00", quiet())
		require.NoError(t, err)
		defer c.Close()
		n, err := c.LayerByName("LAB").FeatureCount()
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("bad URLs", func(t *testing.T) {
		for _, u := range []string{
			"zip://" + archive,
			"zip://" + archive + "!ws/missing",
			"zip://" + filepath.Join(t.TempDir(), "none.zip") + "!x.e00",
		} {
			_, err := Open(u, quiet())
			assert.Error(t, err, u)
		}
	})
}

func writeZip(t *testing.T, archive, root string) {
	t.Helper()
	out, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestEncodingByName(t *testing.T) {
	for _, name := range []string{"", "latin1", "ISO-8859-1", "cp1252", "utf8", "cp437", "cp850"} {
		enc, err := EncodingByName(name)
		assert.NoError(t, err, name)
		assert.NotNil(t, enc, name)
	}
	_, err := EncodingByName("ebcdic")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	o := buildOptions([]Option{
		WithRingEpsilon(0.5),
		WithValidateGeometry(true),
		WithKeepUniversePolygon(true),
	})
	assert.Equal(t, 0.5, o.RingEpsilon)
	assert.True(t, o.ValidateGeometry)
	assert.True(t, o.KeepUniversePolygon)
	assert.NotNil(t, o.Encoding)
}

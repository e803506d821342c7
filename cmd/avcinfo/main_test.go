package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/avc/internal/avctest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "avcinfo.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level: error\n"), 0o644))

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfg, "--no-progress"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("ROADS"))
	out, err := run(t, "info", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Coverage: ROADS")
	assert.Contains(t, out, "Format: AVCBin")
	assert.Contains(t, out, "Projection: UTM zone 10 (NAD27, METERS)")
	assert.Contains(t, out, "Layer ARC (LineString): 7 features")
	assert.Contains(t, out, "ROADS.AAT")
}

func TestInfoInvalidProjection(t *testing.T) {
	cov := avctest.LineCoverage("ROADS")
	cov.Prj = []string{"Zone 10"}
	dir := avctest.MustWriteBinary(t, t.TempDir(), cov)

	out, err := run(t, "info", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Projection: invalid (")
	assert.Contains(t, out, "Layer ARC (LineString): 7 features")
}

func TestInfoRecursive(t *testing.T) {
	root := t.TempDir()
	avctest.MustWriteBinary(t, filepath.Join(root, "ws"), avctest.LineCoverage("ROADS"))
	avctest.MustWriteE00(t, root, avctest.PointCoverage("WELLS", 4))

	out, err := run(t, "info", "-r", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Coverage: ROADS")
	assert.Contains(t, out, "Coverage: WELLS")
	assert.Contains(t, out, "Layer LAB (Point): 4 features")
}

func TestDumpWKT(t *testing.T) {
	path := avctest.MustWriteE00(t, t.TempDir(), avctest.PointCoverage("WELLS", 5))
	out, err := run(t, "dump", path, "--layer", "lab", "--limit", "2")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "LAB 1\tPOINT")
	assert.Contains(t, string(lines[1]), "NAME=WELL 2")
}

func TestDumpGeoJSON(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.PolygonCoverage("PARCELS", false))
	out, err := run(t, "dump", dir, "-l", "PAL", "-f", "geojson", "--bbox", "340040,4100040,340060,4100060")
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         int                    `json:"id"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 2, fc.Features[0].ID)
	assert.Equal(t, "PAL", fc.Features[0].Properties["layer"])
}

func TestDumpErrors(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.LineCoverage("ROADS"))

	_, err := run(t, "dump", dir, "--layer", "PAL")
	assert.ErrorContains(t, err, "no layer")

	_, err = run(t, "dump", dir, "--bbox", "1,2,3")
	assert.Error(t, err)

	_, err = run(t, "dump", dir, "--format", "kml")
	assert.Error(t, err)

	compressed := filepath.Join(t.TempDir(), "comp.e00")
	require.NoError(t, os.WriteFile(compressed, []byte("EXP  1 /x/COMP.E00\n"), 0o644))
	_, err = run(t, "dump", compressed)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := avctest.MustWriteBinary(t, t.TempDir(), avctest.PolygonCoverage("PARCELS", false))
	db := filepath.Join(t.TempDir(), "parcels.db")

	out, err := run(t, "export", dir, "--database", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 coverages (4 layers, 15 features")

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds(" 1, 2,3 ,4")
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.MinX)
	assert.Equal(t, 4.0, b.MaxY)

	for _, s := range []string{"", "1,2,3", "a,b,c,d", "5,0,1,1"} {
		_, err := parseBounds(s)
		assert.Error(t, err, s)
	}
}

package parser

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/beetlebugorg/avc/internal/avctest"
)

// BenchmarkOpenE00 benchmarks the indexing pass over an E00 export
func BenchmarkOpenE00(b *testing.B) {
	path := filepath.Join(b.TempDir(), "wells.e00")
	if err := avctest.WriteE00(path, avctest.PointCoverage("WELLS", 2000)); err != nil {
		b.Fatal(err)
	}
	opts := testOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Open(path, opts); err != nil {
			b.Fatalf("open failed: %v", err)
		}
	}
}

// BenchmarkPolygonFeatures benchmarks polygon assembly
func BenchmarkPolygonFeatures(b *testing.B) {
	dir, err := avctest.WriteBinary(b.TempDir(), avctest.PolygonCoverage("TESTPOLY", false))
	if err != nil {
		b.Fatal(err)
	}
	c, err := Open(dir, testOptions())
	if err != nil {
		b.Fatal(err)
	}
	pal := c.LayerByName("PAL")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cur, err := pal.Features()
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := cur.Next(); err != nil {
				if err != io.EOF {
					b.Fatal(err)
				}
				break
			}
		}
	}
}

// TestDefaultOpenOptions tests option defaults
func TestDefaultOpenOptions(t *testing.T) {
	opts := DefaultOpenOptions()
	if opts.Encoding != charmap.ISO8859_1 {
		t.Errorf("Encoding = %v, want ISO-8859-1", opts.Encoding)
	}
	if opts.RingEpsilon != DefaultRingEpsilon {
		t.Errorf("RingEpsilon = %v, want %v", opts.RingEpsilon, DefaultRingEpsilon)
	}
	if opts.KeepUniversePolygon || opts.ValidateGeometry {
		t.Error("universe polygon and validation must be off by default")
	}

	filled := OpenOptions{}.withDefaults()
	if filled.Encoding == nil || filled.Logger == nil || filled.RingEpsilon != DefaultRingEpsilon {
		t.Errorf("withDefaults() left zero values: %+v", filled)
	}
}

// TestParserInterface tests opening through the Parser interface
func TestParserInterface(t *testing.T) {
	path := avctest.MustWriteE00(t, t.TempDir(), avctest.LineCoverage("TESTAVC"))

	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	p := NewParser()
	c, err := p.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if c.Name() != "TESTAVC" {
		t.Errorf("Name() = %q, want TESTAVC", c.Name())
	}
	if c.Catalog().Path() != path {
		t.Errorf("Path() = %q, want %q", c.Catalog().Path(), path)
	}
	if l := c.LayerByName("PAL"); l != nil {
		t.Error("line coverage must not have a PAL layer")
	}
}

// TestIsBinTableName tests table file detection
func TestIsBinTableName(t *testing.T) {
	tests := map[string]bool{
		"arc.adf":  true,
		"PAL.ADF":  true,
		"lab.adf":  true,
		"tol.adf":  false,
		"prj.adf":  false,
		"arc":      false,
		"data.e00": false,
	}
	for name, want := range tests {
		if got := isBinTableName(name); got != want {
			t.Errorf("isBinTableName(%q) = %v, want %v", name, got, want)
		}
	}
}

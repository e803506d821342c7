package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjection(t *testing.T) {
	lines := []string{
		"Projection    UTM",
		"Zone          10",
		"Datum         NAD27",
		"Zunits        NO",
		"Units         METERS",
		"Spheroid      CLARKE1866",
		"Xshift        500000.0000000000",
		"Yshift        0.0000000000",
		"Parameters",
	}
	p, err := ParseProjection(lines)
	require.NoError(t, err)

	assert.Equal(t, "UTM", p.Name)
	assert.True(t, p.HasZone)
	assert.Equal(t, 10, p.Zone)
	assert.Equal(t, "NAD27", p.Datum)
	assert.Equal(t, "METERS", p.Units)
	assert.Equal(t, "CLARKE1866", p.Spheroid)
	assert.Equal(t, "NO", p.Zunits)
	assert.Equal(t, 500000.0, p.XShift)
	assert.Empty(t, p.Parameters)
	assert.Equal(t, lines, p.Lines)
	assert.False(t, p.IsGeographic())

	wkt := p.WKT()
	assert.Contains(t, wkt, `PROJCS["UTM Zone 10"`)
	assert.Contains(t, wkt, `DATUM["NAD27",SPHEROID["CLARKE1866"]]`)
	assert.Contains(t, wkt, `PARAMETER["False_Easting",500000]`)
	assert.Contains(t, wkt, `UNIT["METERS",1.0]`)
}

func TestParseProjectionParameters(t *testing.T) {
	p, err := ParseProjection([]string{
		"Projection    ALBERS",
		"Units         FEET",
		"Parameters",
		"  29 30  0.000 /* 1st standard parallel",
		"  45 30  0.000 /* 2nd standard parallel",
		"-96  0  0.000 /* central meridian",
		" 23.0          /* latitude of origin",
		"",
	})
	require.NoError(t, err)

	require.Len(t, p.Parameters, 4)
	assert.InDelta(t, 29.5, p.Parameters[0], 1e-12)
	assert.InDelta(t, 45.5, p.Parameters[1], 1e-12)
	assert.InDelta(t, -96.0, p.Parameters[2], 1e-12)
	assert.InDelta(t, 23.0, p.Parameters[3], 1e-12)
	assert.False(t, p.HasZone)
	assert.Contains(t, p.WKT(), `UNIT["FEET",0.3048006096012192]`)
}

func TestParseProjectionGeographic(t *testing.T) {
	p, err := ParseProjection([]string{"Projection GEOGRAPHIC", "Units DD", "Datum WGS84"})
	require.NoError(t, err)
	assert.True(t, p.IsGeographic())
	assert.Equal(t, `GEOGCS["WGS84",DATUM["WGS84"],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`, p.WKT())
}

func TestParseProjectionErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		line  int
	}{
		{"empty", nil, 0},
		{"no projection keyword", []string{"Zone 10", "Units METERS"}, 0},
		{"bad zone", []string{"Projection UTM", "Zone ten"}, 2},
		{"bad xshift", []string{"Projection UTM", "Xshift east"}, 2},
		{"bad parameter", []string{"Projection ALBERS", "Parameters", "29 30"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProjection(tt.lines)
			require.Error(t, err)
			var pe *ProjectionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
			assert.ErrorIs(t, err, ErrInvalidProjection)
			assert.Equal(t, InvalidProjection, KindOf(err))
		})
	}
}

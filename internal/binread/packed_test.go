package binread

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedReals(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		n       int
		prec    Precision
		want    []float64
		wantErr bool
	}{
		{
			name: "repeat run",
			data: be(int16(-4), float32(0)),
			n:    4,
			prec: Single,
			want: []float64{0, 0, 0, 0},
		},
		{
			name: "literal then repeat",
			data: be(int16(2), float64(1.25), float64(2.5), int16(-3), float64(4100200)),
			n:    5,
			prec: Double,
			want: []float64{1.25, 2.5, 4100200, 4100200, 4100200},
		},
		{
			name:    "zero header",
			data:    be(int16(0)),
			n:       1,
			prec:    Single,
			wantErr: true,
		},
		{
			name:    "overflowing run",
			data:    be(int16(-5), float32(1)),
			n:       2,
			prec:    Single,
			wantErr: true,
		},
		{
			name:    "truncated literal",
			data:    be(int16(3), float32(1)),
			n:       3,
			prec:    Single,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(bytes.NewReader(tt.data))
			got, err := c.PackedReals(tt.n, tt.prec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCorruptRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, c.AtEnd())
		})
	}
}

func TestPackedRealsBoundedByData(t *testing.T) {
	data := be(int16(-4), float32(7), int16(1), float32(8))
	c := NewCursor(bytes.NewReader(data))
	c.SetLimit(int64(len(data)))

	_, err := c.PackedReals(2000000000, Single)
	assert.ErrorIs(t, err, ErrCorruptRecord)
	assert.Equal(t, int64(0), c.Pos())

	got, err := c.PackedReals(5, Single)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 7, 8}, got)
}

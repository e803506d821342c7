package avc

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/beetlebugorg/avc/internal/parser"
)

// Option configures Open.
type Option func(*parser.OpenOptions)

// WithLogger sets the logger that receives debug and warning messages.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *parser.OpenOptions) {
		o.Logger = l
	}
}

// WithEncoding sets the character encoding of INFO text items and PRJ
// lines. The default is ISO-8859-1.
func WithEncoding(enc encoding.Encoding) Option {
	return func(o *parser.OpenOptions) {
		o.Encoding = enc
	}
}

// WithKeepUniversePolygon includes the outer universe polygon (PolyId 1) in
// the PAL layer.
func WithKeepUniversePolygon(keep bool) Option {
	return func(o *parser.OpenOptions) {
		o.KeepUniversePolygon = keep
	}
}

// WithRingEpsilon sets the distance under which vertices are treated as the
// same node when polygon rings are assembled.
func WithRingEpsilon(eps float64) Option {
	return func(o *parser.OpenOptions) {
		o.RingEpsilon = eps
	}
}

// WithValidateGeometry checks assembled geometries. Failures are reported
// through Feature.GeometryErr and never stop iteration.
func WithValidateGeometry(validate bool) Option {
	return func(o *parser.OpenOptions) {
		o.ValidateGeometry = validate
	}
}

// EncodingByName maps a configuration name to an encoding. Accepted names
// are latin1 (iso-8859-1), cp1252 (windows-1252), cp437, cp850 and utf8.
func EncodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "cp437", "ibm437":
		return charmap.CodePage437, nil
	case "cp850", "ibm850":
		return charmap.CodePage850, nil
	case "utf8", "utf-8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

func buildOptions(opts []Option) parser.OpenOptions {
	o := parser.DefaultOpenOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

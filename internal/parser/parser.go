package parser

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/beetlebugorg/avc/internal/e00"
)

// Parser opens Arc/Info vector coverages.
//
// A coverage is either an AVCBin directory (arc.adf, pal.adf, lab.adf, ...
// with INFO tables in ../info) or a single uncompressed E00 export file.
type Parser interface {
	// Open detects the representation of path and indexes the coverage.
	Open(path string) (*Coverage, error)

	// OpenWithOptions opens with custom options.
	OpenWithOptions(path string, opts OpenOptions) (*Coverage, error)
}

// OpenOptions configures decoding behavior
type OpenOptions struct {
	// Encoding decodes INFO character items and PRJ text.
	// Default: ISO-8859-1
	Encoding encoding.Encoding

	// KeepUniversePolygon: if true, the PAL layer includes the outer
	// universe polygon (PolyId 1)
	// Default: false
	KeepUniversePolygon bool

	// RingEpsilon is the node matching distance used when closing rings.
	// Default: DefaultRingEpsilon
	RingEpsilon float64

	// ValidateGeometry: if true, assembled geometries are checked and
	// failures are reported through Feature.GeometryErr
	// Default: false
	ValidateGeometry bool

	// Logger receives debug and warning messages.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOpenOptions returns open options with defaults
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		Encoding:    charmap.ISO8859_1,
		RingEpsilon: DefaultRingEpsilon,
		Logger:      slog.Default(),
	}
}

func (o OpenOptions) withDefaults() OpenOptions {
	if o.Encoding == nil {
		o.Encoding = charmap.ISO8859_1
	}
	if o.RingEpsilon <= 0 {
		o.RingEpsilon = DefaultRingEpsilon
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type defaultParser struct{}

// NewParser creates a new coverage parser
func NewParser() Parser {
	return &defaultParser{}
}

// Open opens path with default options.
func (p *defaultParser) Open(path string) (*Coverage, error) {
	return p.OpenWithOptions(path, DefaultOpenOptions())
}

// OpenWithOptions detects the representation of path and indexes it:
//   - a directory holding AVCBin tables is opened as a binary coverage;
//   - a file that is itself an AVCBin table opens its directory;
//   - a file starting with "EXP  0" is an E00 export;
//   - "EXP  1" (compressed E00) fails with UnsupportedEncoding;
//   - anything else fails with NotRecognized.
func (p *defaultParser) OpenWithOptions(path string, opts OpenOptions) (*Coverage, error) {
	opts = opts.withDefaults()
	cat, err := openCatalog(path, opts)
	if err != nil {
		return nil, classify(path, err)
	}
	return newCoverage(cat, opts), nil
}

// Open is a shorthand for NewParser().OpenWithOptions.
func Open(path string, opts OpenOptions) (*Coverage, error) {
	return NewParser().OpenWithOptions(path, opts)
}

func openCatalog(path string, opts OpenOptions) (*Catalog, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotRecognized, "%s does not exist", path)
		}
		return nil, err
	}
	if st.IsDir() {
		return openBinCatalog(path, opts.Encoding, opts.Logger)
	}

	first, err := readFirstLine(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(first, "EXP") {
		if _, err := e00.ParseHeader(first); err != nil {
			if errors.Is(err, e00.ErrNotE00) {
				return nil, errors.Wrapf(ErrNotRecognized, "%s: invalid E00 header %q", path, first)
			}
			return nil, err
		}
		return openTextCatalog(path, opts.Encoding, opts.Logger)
	}

	if isBinTableName(filepath.Base(path)) {
		return openBinCatalog(filepath.Dir(path), opts.Encoding, opts.Logger)
	}
	return nil, errors.Wrapf(ErrNotRecognized, "%s is neither an AVCBin coverage nor an E00 file", path)
}

// readFirstLine returns the first line of a file, at most 256 bytes.
func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	br := bufio.NewReader(io.LimitReader(f, 256))
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isBinTableName(name string) bool {
	name = strings.ToLower(name)
	for _, kind := range []TableKind{TableArc, TablePal, TableCnt, TableLab} {
		for _, candidate := range binFileNames[kind] {
			if name == candidate && strings.HasSuffix(candidate, ".adf") {
				return true
			}
		}
	}
	return false
}

// Package e00 reads the line-oriented Arc/Info export (E00) encoding.
//
// An E00 stream starts with an "EXP" header line, followed by sections that
// each begin with a three letter code and a precision marker ("ARC  2",
// "PAL  3", ...) and end with a section-specific terminator. The whole
// stream ends with "EOS". Numbers are written in fixed-width columns, so
// they are always parsed by column and never by splitting on blanks.
package e00

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnsupportedEncoding is returned for compressed E00 streams.
	ErrUnsupportedEncoding = errors.New("unsupported E00 encoding")

	// ErrMalformedText is returned (wrapped in a *LineError) for line
	// format violations.
	ErrMalformedText = errors.New("malformed E00 text")

	// ErrNotE00 is returned when the stream does not start with an E00 header.
	ErrNotE00 = errors.New("not an E00 stream")
)

// LineError reports a format violation on a given line.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedText) hold.
func (e *LineError) Unwrap() error {
	return ErrMalformedText
}

// Malformed builds a *LineError for line n.
func Malformed(n int, format string, args ...interface{}) error {
	return &LineError{Line: n, Reason: fmt.Sprintf(format, args...)}
}

// Line is one line of an E00 stream with its position.
type Line struct {
	Text   string
	Number int   // 1-based line number
	Offset int64 // byte offset of the first character
}

// Reader returns the lines of an E00 stream one at a time.
type Reader struct {
	rs     io.ReadSeeker
	br     *bufio.Reader
	number int   // number of the last line returned
	offset int64 // offset of the next line
	peeked *Line
	err    error
}

// NewReader creates a reader positioned at the start of rs.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{
		rs: rs,
		br: bufio.NewReaderSize(rs, 64*1024),
	}
}

// Seek repositions the reader so that the next line returned starts at
// offset and carries the given line number.
func (r *Reader) Seek(offset int64, number int) error {
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.br.Reset(r.rs)
	r.offset = offset
	r.number = number - 1
	r.peeked = nil
	r.err = nil
	return nil
}

// LineNumber returns the number of the last line returned by Next.
func (r *Reader) LineNumber() int {
	if r.peeked != nil {
		return r.peeked.Number - 1
	}
	return r.number
}

// Offset returns the byte offset of the next line.
func (r *Reader) Offset() int64 {
	if r.peeked != nil {
		return r.peeked.Offset
	}
	return r.offset
}

func (r *Reader) read() (Line, error) {
	if r.err != nil {
		return Line{}, r.err
	}
	raw, err := r.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.err = err
			return Line{}, err
		}
		if raw == "" {
			r.err = io.EOF
			return Line{}, io.EOF
		}
	}
	line := Line{
		Text:   strings.TrimRight(raw, "\r\n"),
		Number: r.number + 1,
		Offset: r.offset,
	}
	r.number++
	r.offset += int64(len(raw))
	return line, nil
}

// Next returns the next line, or io.EOF at the end of the stream.
func (r *Reader) Next() (Line, error) {
	if r.peeked != nil {
		line := *r.peeked
		r.peeked = nil
		return line, nil
	}
	return r.read()
}

// Peek returns the next line without consuming it.
func (r *Reader) Peek() (Line, error) {
	if r.peeked != nil {
		return *r.peeked, nil
	}
	line, err := r.read()
	if err != nil {
		return Line{}, err
	}
	r.peeked = &line
	return line, nil
}

// Expect returns the next line, turning io.EOF into a malformed-text error
// that names what was expected.
func (r *Reader) Expect(what string) (Line, error) {
	line, err := r.Next()
	if errors.Is(err, io.EOF) {
		return Line{}, Malformed(r.number+1, "unexpected end of stream, expected %s", what)
	}
	return line, err
}

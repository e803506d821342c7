// Package binread decodes the fixed-width big-endian primitives used by
// AVCBin coverage files.
//
// AVCBin tables are sequences of records. Geometry tables (ARC, PAL, CNT)
// prefix each record with its length in 16-bit words, LAB and TOL records
// have a fixed size, and INFO table rows are fixed-size byte blocks. A Cursor
// walks one such file forward, keeping track of the byte position so that a
// record can be bounded by its declared length.
package binread

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/encoding"
)

// ErrCorruptRecord is returned (wrapped in a *RecordError) when a record
// cannot be decoded from the available bytes.
var ErrCorruptRecord = errors.New("corrupt record")

// RecordError describes a structural decode failure at a byte offset.
type RecordError struct {
	Offset int64
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("corrupt record at offset %d: %s", e.Offset, e.Reason)
}

// Unwrap makes errors.Is(err, ErrCorruptRecord) hold.
func (e *RecordError) Unwrap() error {
	return ErrCorruptRecord
}

// Precision is the width of real values stored in a coverage file.
type Precision int

const (
	// Single precision files store reals as IEEE float32.
	Single Precision = 1
	// Double precision files store reals as IEEE float64.
	Double Precision = 2
)

// RealSize returns the number of bytes used by one real value.
func (p Precision) RealSize() int {
	if p == Double {
		return 8
	}
	return 4
}

func (p Precision) String() string {
	if p == Double {
		return "double"
	}
	return "single"
}

// Cursor is a forward-only reader of big-endian primitives.
type Cursor struct {
	r       *bufio.Reader
	order   binary.ByteOrder
	pos     int64
	limit   int64 // end of valid data, -1 when unknown
	end     int64 // end of the current record, -1 outside a record
	decoder *encoding.Decoder
	buf     [8]byte
}

// NewCursor creates a big-endian cursor positioned at offset 0 of r.
func NewCursor(r io.Reader) *Cursor {
	return &Cursor{
		r:     bufio.NewReaderSize(r, 32*1024),
		order: binary.BigEndian,
		limit: -1,
		end:   -1,
	}
}

// SetByteOrder overrides the default big-endian order.
func (c *Cursor) SetByteOrder(order binary.ByteOrder) {
	c.order = order
}

// SetLimit declares the number of valid data bytes in the underlying file.
// Bytes past the limit are never returned. A negative limit removes it.
func (c *Cursor) SetLimit(limit int64) {
	c.limit = limit
}

// SetDecoder sets the character decoder applied by String.
func (c *Cursor) SetDecoder(d *encoding.Decoder) {
	c.decoder = d
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// AtEnd reports whether no more data can be read.
func (c *Cursor) AtEnd() bool {
	if c.limit >= 0 && c.pos >= c.limit {
		return true
	}
	_, err := c.r.Peek(1)
	return err != nil
}

func (c *Cursor) corrupt(format string, args ...interface{}) error {
	return &RecordError{Offset: c.pos, Reason: fmt.Sprintf(format, args...)}
}

// Remaining returns the number of bytes that may still be read before the
// record end or the data limit, whichever comes first. It returns -1 when
// neither is known.
func (c *Cursor) Remaining() int64 {
	rem := int64(-1)
	if c.end >= 0 {
		rem = c.end - c.pos
	}
	if c.limit >= 0 && (rem < 0 || c.limit-c.pos < rem) {
		rem = c.limit - c.pos
	}
	if rem < -1 {
		rem = 0
	}
	return rem
}

// Need fails with ErrCorruptRecord unless count elements of size bytes fit
// in the remaining data. Counts read from a file go through Need before they
// size an allocation.
func (c *Cursor) Need(count, size int) error {
	if count < 0 || size < 0 {
		return c.corrupt("negative element count %d", count)
	}
	if rem := c.Remaining(); rem >= 0 && int64(count)*int64(size) > rem {
		return c.corrupt("%d elements of %d bytes exceed the %d bytes left", count, size, rem)
	}
	return nil
}

// check verifies that n more bytes may be consumed.
func (c *Cursor) check(n int) error {
	if n < 0 {
		return c.corrupt("negative length %d", n)
	}
	if c.end >= 0 && c.pos+int64(n) > c.end {
		return c.corrupt("read of %d bytes crosses record end at %d", n, c.end)
	}
	if c.limit >= 0 && c.pos+int64(n) > c.limit {
		return c.corrupt("read of %d bytes crosses end of data at %d", n, c.limit)
	}
	return nil
}

func (c *Cursor) fill(p []byte) error {
	if err := c.check(len(p)); err != nil {
		return err
	}
	n, err := io.ReadFull(c.r, p)
	c.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return c.corrupt("truncated: wanted %d bytes, got %d", len(p), n)
		}
		return err
	}
	return nil
}

// BeginRecord bounds the following reads to length bytes. Declaring a record
// that extends past the end of data fails with ErrCorruptRecord.
func (c *Cursor) BeginRecord(length int64) error {
	if length < 0 {
		return c.corrupt("negative record length %d", length)
	}
	if c.limit >= 0 && c.pos+length > c.limit {
		return c.corrupt("record length %d extends past end of data at %d", length, c.limit)
	}
	c.end = c.pos + length
	return nil
}

// EndRecord skips any unread bytes of the current record.
func (c *Cursor) EndRecord() error {
	if c.end < 0 {
		return nil
	}
	remaining := c.end - c.pos
	c.end = -1
	if remaining > 0 {
		return c.Skip(int(remaining))
	}
	return nil
}

// Int16 reads a signed 16-bit integer.
func (c *Cursor) Int16() (int16, error) {
	if err := c.fill(c.buf[:2]); err != nil {
		return 0, err
	}
	return int16(c.order.Uint16(c.buf[:2])), nil
}

// Int32 reads a signed 32-bit integer.
func (c *Cursor) Int32() (int32, error) {
	if err := c.fill(c.buf[:4]); err != nil {
		return 0, err
	}
	return int32(c.order.Uint32(c.buf[:4])), nil
}

// Int reads a signed 32-bit integer and widens it.
func (c *Cursor) Int() (int, error) {
	v, err := c.Int32()
	return int(v), err
}

// Float32 reads an IEEE single precision value.
func (c *Cursor) Float32() (float32, error) {
	if err := c.fill(c.buf[:4]); err != nil {
		return 0, err
	}
	return math.Float32frombits(c.order.Uint32(c.buf[:4])), nil
}

// Float64 reads an IEEE double precision value.
func (c *Cursor) Float64() (float64, error) {
	if err := c.fill(c.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(c.order.Uint64(c.buf[:8])), nil
}

// Real reads one real value of the given precision.
func (c *Cursor) Real(p Precision) (float64, error) {
	if p == Double {
		return c.Float64()
	}
	v, err := c.Float32()
	return float64(v), err
}

// Bytes reads n raw bytes.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := c.fill(p); err != nil {
		return nil, err
	}
	return p, nil
}

// String reads a fixed-width text field, trimming trailing blanks and NULs.
func (c *Cursor) String(n int) (string, error) {
	p, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	return DecodeText(p, c.decoder), nil
}

// Skip discards n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.check(n); err != nil {
		return err
	}
	skipped, err := c.r.Discard(n)
	c.pos += int64(skipped)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return c.corrupt("truncated: skipped %d of %d bytes", skipped, n)
		}
		return err
	}
	return nil
}

// SkipTo advances to the absolute offset pos.
func (c *Cursor) SkipTo(pos int64) error {
	if pos < c.pos {
		return c.corrupt("cannot move backwards to offset %d", pos)
	}
	return c.Skip(int(pos - c.pos))
}

// DecodeText converts a fixed-width field to a trimmed UTF-8 string.
func DecodeText(p []byte, d *encoding.Decoder) string {
	s := strings.TrimRight(string(p), " \x00")
	if d == nil {
		return s
	}
	out, err := d.String(s)
	if err != nil {
		return s
	}
	return out
}

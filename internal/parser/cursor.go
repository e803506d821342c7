package parser

import (
	"io"
)

// Cursor is a lazy, forward-only sequence of decoded records. Next returns
// io.EOF once the table is exhausted. The underlying file handle is released
// on exhaustion, on the first error, or by Close, whichever comes first.
//
// A Cursor is not safe for concurrent use.
type Cursor[T any] struct {
	next   func() (T, error)
	closer io.Closer
	done   bool
	err    error
}

func newCursor[T any](next func() (T, error), closer io.Closer) *Cursor[T] {
	return &Cursor[T]{next: next, closer: closer}
}

// emptyCursor yields nothing.
func emptyCursor[T any]() *Cursor[T] {
	return &Cursor[T]{done: true, err: io.EOF}
}

// Next returns the next record.
func (c *Cursor[T]) Next() (T, error) {
	var zero T
	if c.done {
		return zero, c.err
	}
	v, err := c.next()
	if err != nil {
		c.done = true
		c.err = err
		c.release()
		return zero, err
	}
	return v, nil
}

// Close releases the file handle. It is safe to call more than once.
func (c *Cursor[T]) Close() error {
	if !c.done {
		c.done = true
		c.err = io.EOF
	}
	return c.release()
}

func (c *Cursor[T]) release() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

// collect drains a cursor into a slice.
func collect[T any](c *Cursor[T]) ([]T, error) {
	defer c.Close()
	var out []T
	for {
		v, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// count drains a cursor and returns the number of records.
func count[T any](c *Cursor[T]) (int, error) {
	defer c.Close()
	n := 0
	for {
		_, err := c.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

package parser

import (
	"errors"
	"fmt"

	"github.com/beetlebugorg/avc/internal/binread"
	"github.com/beetlebugorg/avc/internal/e00"
)

// ErrorKind classifies decoder failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	NotRecognized
	UnsupportedEncoding
	CorruptRecord
	MalformedText
	UnresolvedArcReference
	InvalidProjection
)

func (k ErrorKind) String() string {
	switch k {
	case NotRecognized:
		return "not recognized"
	case UnsupportedEncoding:
		return "unsupported encoding"
	case CorruptRecord:
		return "corrupt record"
	case MalformedText:
		return "malformed text"
	case UnresolvedArcReference:
		return "unresolved arc reference"
	case InvalidProjection:
		return "invalid projection"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. The binary and text readers return errors that
// wrap the same values.
var (
	ErrNotRecognized          = errors.New("not an Arc/Info vector coverage")
	ErrUnsupportedEncoding    = e00.ErrUnsupportedEncoding
	ErrCorruptRecord          = binread.ErrCorruptRecord
	ErrMalformedText          = e00.ErrMalformedText
	ErrUnresolvedArcReference = errors.New("unresolved arc reference")
	ErrInvalidProjection      = errors.New("invalid projection")
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{NotRecognized, ErrNotRecognized},
	{UnsupportedEncoding, ErrUnsupportedEncoding},
	{CorruptRecord, ErrCorruptRecord},
	{MalformedText, ErrMalformedText},
	{UnresolvedArcReference, ErrUnresolvedArcReference},
	{InvalidProjection, ErrInvalidProjection},
}

// Error is a classified decoder error tied to a file.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("avc: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("avc: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind even when Err does not wrap it.
func (e *Error) Is(target error) bool {
	for _, ks := range kindSentinels {
		if ks.kind == e.Kind {
			return target == ks.err
		}
	}
	return false
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Kind
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}

// classify wraps err in an *Error, deriving the kind from the sentinel it
// wraps. Errors that are already classified are returned unchanged.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Path: path, Err: err}
}

// MissingArcError reports a polygon that references an arc absent from the
// coverage.
type MissingArcError struct {
	PolygonID int
	ArcID     int
}

func (e *MissingArcError) Error() string {
	return fmt.Sprintf("polygon %d references missing arc %d", e.PolygonID, e.ArcID)
}

func (e *MissingArcError) Unwrap() error {
	return ErrUnresolvedArcReference
}

// ProjectionError reports a PRJ definition that could not be parsed.
type ProjectionError struct {
	Line   int
	Reason string
}

func (e *ProjectionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("projection line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("projection: %s", e.Reason)
}

func (e *ProjectionError) Unwrap() error {
	return ErrInvalidProjection
}

package avc

import (
	"github.com/beetlebugorg/avc/internal/parser"
)

// ErrorKind classifies decoder failures.
type ErrorKind = parser.ErrorKind

// Error kinds.
const (
	KindUnknown            = parser.KindUnknown
	NotRecognized          = parser.NotRecognized
	UnsupportedEncoding    = parser.UnsupportedEncoding
	CorruptRecord          = parser.CorruptRecord
	MalformedText          = parser.MalformedText
	UnresolvedArcReference = parser.UnresolvedArcReference
	InvalidProjection      = parser.InvalidProjection
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrNotRecognized          = parser.ErrNotRecognized
	ErrUnsupportedEncoding    = parser.ErrUnsupportedEncoding
	ErrCorruptRecord          = parser.ErrCorruptRecord
	ErrMalformedText          = parser.ErrMalformedText
	ErrUnresolvedArcReference = parser.ErrUnresolvedArcReference
	ErrInvalidProjection      = parser.ErrInvalidProjection
)

// Error is a classified error tied to the file it was raised for.
type Error = parser.Error

// MissingArcError is the geometry error of a polygon that references an
// arc the coverage does not contain.
type MissingArcError = parser.MissingArcError

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	return parser.KindOf(err)
}

package e00

import (
	"fmt"
	"path"
	"strings"
)

// Header is the parsed "EXP" line that opens every E00 stream.
type Header struct {
	Compressed bool
	Path       string // original export path recorded by the writer
	Name       string // coverage name derived from Path, upper case
}

// ParseHeader parses the first line of an E00 stream.
//
// "EXP  0 /path/COVER.E00" is an uncompressed export. "EXP  1 ..." marks a
// compressed export, which fails with ErrUnsupportedEncoding.
func ParseHeader(text string) (Header, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != "EXP" {
		return Header{}, ErrNotE00
	}

	h := Header{}
	if len(fields) > 2 {
		h.Path = fields[2]
		h.Name = coverageName(h.Path)
	}

	switch fields[1] {
	case "0":
		return h, nil
	case "1":
		h.Compressed = true
		return h, fmt.Errorf("%w: compressed E00 export %q cannot be decoded, uncompress it first", ErrUnsupportedEncoding, h.Path)
	default:
		return Header{}, ErrNotE00
	}
}

// coverageName turns "/home/data/WELLS.E00" or "C:\DATA\WELLS.E00" into "WELLS".
func coverageName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToUpper(base)
}

// SectionLine is a parsed section header such as "ARC  2".
type SectionLine struct {
	Code   string
	Double bool
}

// ParseSection recognises section header lines. "EOS" is returned with an
// empty precision.
func ParseSection(text string) (SectionLine, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "EOS" {
		return SectionLine{Code: "EOS"}, true
	}
	fields := strings.Fields(trimmed)
	if len(fields) != 2 || len(fields[0]) != 3 {
		return SectionLine{}, false
	}
	code := strings.ToUpper(fields[0])
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return SectionLine{}, false
		}
	}
	switch fields[1] {
	case "2":
		return SectionLine{Code: code}, true
	case "3":
		return SectionLine{Code: code, Double: true}, true
	}
	return SectionLine{}, false
}

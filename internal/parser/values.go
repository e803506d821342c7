package parser

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/avc/internal/binread"
)

// decodeBinaryRow extracts the visible items of one binary INFO record.
func decodeBinaryRow(raw []byte, fields []FieldDef, dec *encoding.Decoder) (Row, error) {
	row := make(Row, len(fields))
	for i, f := range fields {
		start := f.Offset - 1
		end := start + f.Size
		if start < 0 || end > len(raw) {
			return nil, errors.Wrapf(ErrCorruptRecord, "item %s at offset %d size %d exceeds record of %d bytes",
				f.Name, f.Offset, f.Size, len(raw))
		}
		v, err := decodeBinaryValue(raw[start:end], f, dec)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func decodeBinaryValue(raw []byte, f FieldDef, dec *encoding.Decoder) (interface{}, error) {
	switch f.Type {
	case FieldBinInt:
		switch len(raw) {
		case 4:
			return int(int32(binary.BigEndian.Uint32(raw))), nil
		case 2:
			return int(int16(binary.BigEndian.Uint16(raw))), nil
		}
		return nil, errors.Wrapf(ErrCorruptRecord, "item %s: binary integer of size %d", f.Name, len(raw))
	case FieldBinFloat:
		switch len(raw) {
		case 4:
			return float64(math.Float32frombits(binary.BigEndian.Uint32(raw))), nil
		case 8:
			return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
		}
		return nil, errors.Wrapf(ErrCorruptRecord, "item %s: binary float of size %d", f.Name, len(raw))
	default:
		return parseTextValue(binread.DecodeText(raw, dec), f), nil
	}
}

// decodeTextRow extracts the visible items of one E00 table record. Items
// follow each other without separators, each TextWidth characters wide.
func decodeTextRow(rec string, fields []FieldDef, dec *encoding.Decoder) Row {
	row := make(Row, len(fields))
	pos := 0
	for i, f := range fields {
		w := f.TextWidth()
		var text string
		if pos < len(rec) {
			end := pos + w
			if end > len(rec) {
				end = len(rec)
			}
			text = rec[pos:end]
		}
		pos += w
		row[i] = parseTextValue(binread.DecodeText([]byte(text), dec), f)
	}
	return row
}

// parseTextValue converts the character form of an item. Numbers that do
// not parse decode to nil.
func parseTextValue(text string, f FieldDef) interface{} {
	switch f.Type.Kind() {
	case KindInteger:
		s := strings.TrimSpace(text)
		if s == "" {
			return 0
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			// FIXINT items are sometimes written with a decimal part.
			fv, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return nil
			}
			return int(fv)
		}
		return v
	case KindReal:
		s := strings.TrimSpace(text)
		if s == "" {
			return 0.0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return v
	default:
		return strings.TrimRight(text, " ")
	}
}

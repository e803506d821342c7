package parser

// e00_info.go - INFO tables embedded in the IFO section of an E00 export

import (
	"strings"

	"github.com/beetlebugorg/avc/internal/e00"
)

// textTable is an IFO table and the position of its first record.
type textTable struct {
	Def    TableDef
	Offset int64
	Line   int
}

// Column layout of an IFO field definition line:
// %-16.16s%3d%2d%4d%1d%2d%4d%2d%3d%2d%4d%4d%2d%-16.16s%4d-
const (
	ifoNameCol     = 0
	ifoSizeCol     = 16
	ifoOffsetCol   = 21
	ifoFmtWidthCol = 28
	ifoFmtPrecCol  = 32
	ifoTypeCol     = 34
	ifoAltNameCol  = 49
	ifoIndexCol    = 65
)

// parseTableHeader decodes "%-32.32s%s%4d%4d%4d%10d": name, external flag,
// field count (twice), binary record size, record count.
func parseTableHeader(line e00.Line) (TableDef, error) {
	def := TableDef{
		Name:     strings.TrimSpace(e00.Column(line.Text, 0, 32)),
		External: e00.Column(line.Text, 32, 2) == "XX",
	}
	if def.Name == "" {
		return TableDef{}, e00.Malformed(line.Number, "table header without a name")
	}
	numFields, err := e00.Int(line, 34, 4)
	if err != nil {
		return TableDef{}, err
	}
	if def.RecordSize, err = e00.Int(line, 42, 4); err != nil {
		return TableDef{}, err
	}
	if def.NumRecords, err = e00.Int(line, 46, 10); err != nil {
		return TableDef{}, err
	}
	if numFields < 0 || def.NumRecords < 0 {
		return TableDef{}, e00.Malformed(line.Number, "negative field or record count")
	}
	def.Fields = make([]FieldDef, numFields)
	return def, nil
}

func parseFieldDef(line e00.Line) (FieldDef, error) {
	f := FieldDef{
		Name:    strings.TrimSpace(e00.Column(line.Text, ifoNameCol, 16)),
		AltName: strings.TrimSpace(e00.Column(line.Text, ifoAltNameCol, 16)),
	}
	var err error
	if f.Size, err = e00.Int(line, ifoSizeCol, 3); err != nil {
		return FieldDef{}, err
	}
	if f.Offset, err = e00.Int(line, ifoOffsetCol, 4); err != nil {
		return FieldDef{}, err
	}
	typ, err := e00.Int(line, ifoTypeCol, 3)
	if err != nil {
		return FieldDef{}, err
	}
	f.Type = FieldType(typ)
	if f.Index, err = e00.Int(line, ifoIndexCol, 4); err != nil {
		return FieldDef{}, err
	}
	// Display format columns are informative only.
	f.FmtWidth, _ = e00.Int(line, ifoFmtWidthCol, 4)
	f.FmtPrec, _ = e00.Int(line, ifoFmtPrecCol, 2)
	return f, nil
}

// readTableDef reads a table header and its field definitions. ok is false
// when the section terminator EOI was read instead.
func readTableDef(r *e00.Reader) (def TableDef, ok bool, err error) {
	line, err := r.Expect("table header or EOI")
	if err != nil {
		return TableDef{}, false, err
	}
	if strings.TrimSpace(line.Text) == "EOI" {
		return TableDef{}, false, nil
	}
	if def, err = parseTableHeader(line); err != nil {
		return TableDef{}, false, err
	}
	for i := range def.Fields {
		fl, err := r.Expect("field definition")
		if err != nil {
			return TableDef{}, false, err
		}
		if def.Fields[i], err = parseFieldDef(fl); err != nil {
			return TableDef{}, false, err
		}
	}
	return def, true, nil
}

// indexIFO walks the IFO section, recording each table and skipping its
// records.
func indexIFO(r *e00.Reader) ([]*textTable, error) {
	var tables []*textTable
	for {
		def, ok, err := readTableDef(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			return tables, nil
		}
		t := &textTable{Def: def, Offset: r.Offset(), Line: r.LineNumber() + 1}
		size := def.TextRecordSize()
		for i := 0; i < def.NumRecords; i++ {
			if _, err := e00.ReadRecord(r, size); err != nil {
				return nil, err
			}
		}
		tables = append(tables, t)
	}
}

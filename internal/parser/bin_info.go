package parser

// bin_info.go - INFO attribute tables of AVCBin coverages
//
// The INFO directory sits next to the coverage directories and is shared by
// every coverage of the workspace. arc.dir lists all tables; each table has a
// field definition file arcNNNN.nit and a data file arcNNNN.dat. External
// tables store the path of their real data file in the .dat instead.

import (
	"encoding/binary"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/avc/internal/binread"
)

const (
	arcDirRecordSize   = 380
	nitRecordSize      = 144
	externalPathLength = 80
)

// arcDirEntry is one table entry of arc.dir.
type arcDirEntry struct {
	TableName  string
	InfoFile   string
	NumFields  int
	RecordSize int
	NumRecords int
	Deleted    bool
	External   bool
}

// readArcDir decodes every entry of an arc.dir file.
func readArcDir(r io.Reader, dec *encoding.Decoder) ([]arcDirEntry, error) {
	var out []arcDirEntry
	buf := make([]byte, arcDirRecordSize)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return out, nil
		}
		if err == io.ErrUnexpectedEOF {
			// Some writers leave a short trailing record.
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		e := arcDirEntry{
			TableName:  binread.DecodeText(buf[0:32], dec),
			InfoFile:   binread.DecodeText(buf[32:40], dec),
			NumFields:  int(int16(binary.BigEndian.Uint16(buf[40:42]))),
			RecordSize: int(int16(binary.BigEndian.Uint16(buf[42:44]))),
			Deleted:    buf[62] != 0 && buf[62] != ' ',
			NumRecords: int(int32(binary.BigEndian.Uint32(buf[64:68]))),
			External:   string(buf[78:80]) == "XX",
		}
		out = append(out, e)
	}
}

// readNit decodes the field definitions of a table.
func readNit(r io.Reader, numFields int, dec *encoding.Decoder) ([]FieldDef, error) {
	c := binread.NewCursor(r)
	c.SetDecoder(dec)
	fields := make([]FieldDef, 0, numFields)
	for i := 0; i < numFields; i++ {
		start := c.Pos()
		name, err := c.String(16)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		// size, v2, offset, v4, v5, fmtWidth, fmtPrec, type1, type2,
		// v10, v11, v12, v13
		var v [13]int16
		for j := range v {
			if v[j], err = c.Int16(); err != nil {
				return nil, errors.Wrapf(err, "field %d", i+1)
			}
		}
		alt, err := c.String(16)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		if err := c.Skip(56); err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		index, err := c.Int16()
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		if err := c.SkipTo(start + nitRecordSize); err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		fields = append(fields, FieldDef{
			Name:     name,
			Size:     int(v[0]),
			Offset:   int(v[2]),
			FmtWidth: int(v[5]),
			FmtPrec:  int(v[6]),
			Type:     FieldType(int(v[7]) * 10),
			Index:    int(index),
			AltName:  alt,
		})
	}
	return fields, nil
}

// findInfoDir locates the INFO directory, matching its name
// case-insensitively. It returns "" when the coverage has none.
func findInfoDir(coverDir string) string {
	parent := filepath.Dir(filepath.Clean(coverDir))
	names, err := listDir(parent)
	if err != nil {
		return ""
	}
	if actual, ok := names["info"]; ok {
		return filepath.Join(parent, actual)
	}
	return ""
}

// loadBinTables reads the definitions of the INFO tables that belong to
// the coverage named cover.
func loadBinTables(coverDir, cover string, enc encoding.Encoding) ([]TableDef, error) {
	infoDir := findInfoDir(coverDir)
	if infoDir == "" {
		return nil, nil
	}
	infoNames, err := listDir(infoDir)
	if err != nil {
		return nil, err
	}
	dirFile, ok := infoNames["arc.dir"]
	if !ok {
		return nil, nil
	}

	dec := newDecoder(enc)
	f, err := os.Open(filepath.Join(infoDir, dirFile))
	if err != nil {
		return nil, err
	}
	entries, err := readArcDir(f, dec)
	f.Close()
	if err != nil {
		return nil, errors.Wrap(err, "arc.dir")
	}

	prefix := strings.ToUpper(cover) + "."
	var tables []TableDef
	for _, e := range entries {
		if e.Deleted || !strings.HasPrefix(strings.ToUpper(e.TableName), prefix) {
			continue
		}
		base := strings.ToLower(e.InfoFile)
		nitName, ok := infoNames[base+".nit"]
		if !ok {
			return nil, errors.Wrapf(ErrCorruptRecord, "table %s: missing %s.nit", e.TableName, base)
		}
		nf, err := os.Open(filepath.Join(infoDir, nitName))
		if err != nil {
			return nil, err
		}
		fields, err := readNit(nf, e.NumFields, dec)
		nf.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "table %s definition", e.TableName)
		}

		def := TableDef{
			Name:       e.TableName,
			External:   e.External,
			Fields:     fields,
			RecordSize: e.RecordSize,
			NumRecords: e.NumRecords,
		}
		datName, ok := infoNames[base+".dat"]
		if !ok {
			return nil, errors.Wrapf(ErrCorruptRecord, "table %s: missing %s.dat", e.TableName, base)
		}
		def.dataFile = filepath.Join(infoDir, datName)
		if e.External {
			if def.dataFile, err = resolveExternal(def.dataFile, coverDir); err != nil {
				return nil, errors.Wrapf(err, "table %s", e.TableName)
			}
		}
		tables = append(tables, def)
	}
	return tables, nil
}

// resolveExternal reads the data file path stored in an external table's
// .dat and resolves its base name inside the coverage directory.
func resolveExternal(datPath, coverDir string) (string, error) {
	f, err := os.Open(datPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, externalPathLength)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", err
	}
	ref := strings.TrimRight(string(buf[:n]), " \x00")
	ref = strings.ReplaceAll(ref, "\\", "/")
	base := strings.ToLower(path.Base(ref))

	names, err := listDir(coverDir)
	if err != nil {
		return "", err
	}
	actual, ok := names[base]
	if !ok {
		return "", errors.Wrapf(ErrCorruptRecord, "external data file %q not found", ref)
	}
	return filepath.Join(coverDir, actual), nil
}

// binRowSize is the on-disk row stride: rows are padded to an even size.
func binRowSize(def *TableDef) int {
	return (def.RecordSize + 1) &^ 1
}

// openBinRows returns a cursor over the rows of a binary INFO table.
func openBinRows(def *TableDef, enc encoding.Encoding) (*Cursor[Row], error) {
	if def.NumRecords <= 0 || def.RecordSize <= 0 {
		return emptyCursor[Row](), nil
	}
	f, err := os.Open(def.dataFile)
	if err != nil {
		return nil, err
	}
	c := binread.NewCursor(f)
	dec := newDecoder(enc)
	stride := binRowSize(def)
	fields := def.VisibleFields()
	i := 0
	next := func() (Row, error) {
		if i >= def.NumRecords {
			return nil, io.EOF
		}
		raw, err := c.Bytes(def.RecordSize)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s row %d", def.Name, i+1)
		}
		i++
		if pad := stride - def.RecordSize; pad > 0 && i < def.NumRecords {
			if err := c.Skip(pad); err != nil {
				return nil, errors.Wrapf(err, "table %s row %d", def.Name, i)
			}
		}
		return decodeBinaryRow(raw, fields, dec)
	}
	return newCursor(next, f), nil
}

func newDecoder(enc encoding.Encoding) *encoding.Decoder {
	if enc == nil {
		return nil
	}
	return enc.NewDecoder()
}

package avctest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	arcDirRecordSize = 380
	nitRecordSize    = 144
)

// WriteBinary writes cov as an AVCBin coverage directory inside workspace,
// together with its INFO tables in workspace/info. Several coverages can
// share a workspace. It returns the coverage directory.
func WriteBinary(workspace string, cov *Coverage) (string, error) {
	dir := filepath.Join(workspace, strings.ToLower(cov.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	prec := int32(1)
	if cov.Double {
		prec = 1001
	}

	if len(cov.Arcs) > 0 {
		var body bytes.Buffer
		for _, a := range cov.Arcs {
			writeArc(&body, a, cov.Double)
		}
		if err := writeTable(filepath.Join(dir, "arc.adf"), prec, 0, body.Bytes()); err != nil {
			return "", err
		}
	}
	if len(cov.Polygons) > 0 {
		var body bytes.Buffer
		for _, p := range cov.Polygons {
			var rec bytes.Buffer
			for _, b := range p.Bounds {
				putReal(&rec, b, cov.Double)
			}
			put(&rec, int32(len(p.Arcs)))
			for _, pa := range p.Arcs {
				put(&rec, int32(pa.ArcID), int32(pa.FNode), int32(pa.AdjPoly))
			}
			writeVarRecord(&body, p.ID, rec.Bytes())
		}
		if err := writeTable(filepath.Join(dir, "pal.adf"), prec, 0, body.Bytes()); err != nil {
			return "", err
		}
	}
	if len(cov.Centroids) > 0 {
		var body bytes.Buffer
		for _, c := range cov.Centroids {
			var rec bytes.Buffer
			putReal(&rec, c.X, cov.Double)
			putReal(&rec, c.Y, cov.Double)
			put(&rec, int32(len(c.LabelIDs)))
			for _, id := range c.LabelIDs {
				put(&rec, int32(id))
			}
			writeVarRecord(&body, c.ID, rec.Bytes())
		}
		if err := writeTable(filepath.Join(dir, "cnt.adf"), prec, 0, body.Bytes()); err != nil {
			return "", err
		}
	}
	if len(cov.Labels) > 0 {
		var body bytes.Buffer
		for _, l := range cov.Labels {
			put(&body, int32(l.ValueID), int32(l.PolyID))
			for _, c := range l.Coords {
				putReal(&body, c[0], cov.Double)
				putReal(&body, c[1], cov.Double)
			}
		}
		if err := writeTable(filepath.Join(dir, "lab.adf"), prec, 0, body.Bytes()); err != nil {
			return "", err
		}
	}
	if len(cov.Tolerances) > 0 {
		var body bytes.Buffer
		for _, t := range cov.Tolerances {
			put(&body, int32(t.Index), int32(t.Flag))
			putReal(&body, t.Value, cov.Double)
		}
		name := "tol.adf"
		if cov.Double {
			name = "par.adf"
		}
		if err := os.WriteFile(filepath.Join(dir, name), body.Bytes(), 0o644); err != nil {
			return "", err
		}
	}
	if len(cov.Prj) > 0 {
		text := strings.Join(cov.Prj, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(dir, "prj.adf"), []byte(text), 0o644); err != nil {
			return "", err
		}
	}

	if len(cov.Tables) > 0 {
		if err := writeInfo(workspace, dir, cov); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// MustWriteBinary is WriteBinary for tests.
func MustWriteBinary(t testing.TB, workspace string, cov *Coverage) string {
	t.Helper()
	dir, err := WriteBinary(workspace, cov)
	if err != nil {
		t.Fatalf("writing AVCBin coverage %s: %v", cov.Name, err)
	}
	return dir
}

func put(buf *bytes.Buffer, values ...interface{}) {
	for _, v := range values {
		_ = binary.Write(buf, binary.BigEndian, v)
	}
}

func putReal(buf *bytes.Buffer, v float64, double bool) {
	if double {
		put(buf, v)
		return
	}
	put(buf, float32(v))
}

// writeTable writes the 100 byte header followed by body.
func writeTable(path string, precision, recordSize int32, body []byte) error {
	var buf bytes.Buffer
	put(&buf, int32(9993), precision, recordSize)
	buf.Write(make([]byte, 12))
	put(&buf, int32((100+len(body))/2))
	buf.Write(make([]byte, 100-buf.Len()))
	buf.Write(body)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeVarRecord writes the id and the length in 16-bit words of rec,
// followed by rec.
func writeVarRecord(buf *bytes.Buffer, id int, rec []byte) {
	put(buf, int32(id), int32(len(rec)/2))
	buf.Write(rec)
}

func writeArc(buf *bytes.Buffer, a Arc, double bool) {
	var rec bytes.Buffer
	n := int32(len(a.Vertices))
	if a.Packed {
		n = -n
	}
	put(&rec, int32(a.UserID), int32(a.FNode), int32(a.TNode), int32(a.LPoly), int32(a.RPoly), n)
	if a.Packed {
		xs := make([]float64, len(a.Vertices))
		ys := make([]float64, len(a.Vertices))
		for i, v := range a.Vertices {
			xs[i], ys[i] = v[0], v[1]
		}
		writePacked(&rec, xs, double)
		writePacked(&rec, ys, double)
	} else {
		for _, v := range a.Vertices {
			putReal(&rec, v[0], double)
			putReal(&rec, v[1], double)
		}
	}
	writeVarRecord(buf, a.ID, rec.Bytes())
}

// writePacked encodes a column as runs: repeated values as a negative
// count and one value, everything else as literal runs.
func writePacked(buf *bytes.Buffer, col []float64, double bool) {
	var literals []float64
	flush := func() {
		if len(literals) == 0 {
			return
		}
		put(buf, int16(len(literals)))
		for _, v := range literals {
			putReal(buf, v, double)
		}
		literals = nil
	}
	for i := 0; i < len(col); {
		j := i
		for j < len(col) && col[j] == col[i] {
			j++
		}
		if j-i >= 2 {
			flush()
			put(buf, int16(-(j - i)))
			putReal(buf, col[i], double)
		} else {
			literals = append(literals, col[i])
		}
		i = j
	}
	flush()
}

// writeInfo appends the coverage tables to workspace/info/arc.dir and
// writes their .nit and .dat files.
func writeInfo(workspace, coverDir string, cov *Coverage) error {
	info := filepath.Join(workspace, "info")
	if err := os.MkdirAll(info, 0o755); err != nil {
		return err
	}
	dirPath := filepath.Join(info, "arc.dir")
	var existing []byte
	if b, err := os.ReadFile(dirPath); err == nil {
		existing = b
	}
	next := len(existing) / arcDirRecordSize

	dir := bytes.NewBuffer(existing)
	for _, tab := range cov.Tables {
		tab := tab
		recSize := tab.Layout()
		base := fmt.Sprintf("arc%04d", next)
		next++

		entry := make([]byte, arcDirRecordSize)
		copy(entry, pad(strings.ToUpper(cov.Name)+"."+tab.Suffix, 32))
		copy(entry[32:40], pad(strings.ToUpper(base), 8))
		binary.BigEndian.PutUint16(entry[40:42], uint16(len(tab.Fields)))
		binary.BigEndian.PutUint16(entry[42:44], uint16(recSize))
		binary.BigEndian.PutUint32(entry[64:68], uint32(len(tab.Rows)))
		if tab.External {
			copy(entry[78:80], "XX")
		} else {
			copy(entry[78:80], "  ")
		}
		dir.Write(entry)

		var nit bytes.Buffer
		for _, f := range tab.Fields {
			rec := bytes.NewBuffer(make([]byte, 0, nitRecordSize))
			rec.WriteString(pad(f.Name, 16))
			put(rec, int16(f.Size), int16(-1), int16(f.Offset), int16(4), int16(-1),
				int16(f.Width), int16(f.Prec), int16(f.Type/10), int16(-1),
				int16(-1), int16(-1), int16(-1), int16(-1))
			rec.WriteString(pad("", 16))
			rec.Write(make([]byte, 56))
			put(rec, int16(f.Index))
			rec.Write(make([]byte, nitRecordSize-rec.Len()))
			nit.Write(rec.Bytes())
		}
		if err := os.WriteFile(filepath.Join(info, base+".nit"), nit.Bytes(), 0o644); err != nil {
			return err
		}

		var dat bytes.Buffer
		for _, row := range tab.Rows {
			raw, err := encodeBinaryRow(&tab, row, recSize)
			if err != nil {
				return fmt.Errorf("table %s: %w", tab.Suffix, err)
			}
			dat.Write(raw)
			if recSize%2 == 1 {
				dat.WriteByte(0)
			}
		}
		datPath := filepath.Join(info, base+".dat")
		if tab.External {
			ext := strings.ToLower(tab.Suffix) + ".dat"
			if err := os.WriteFile(filepath.Join(coverDir, ext), dat.Bytes(), 0o644); err != nil {
				return err
			}
			ref := "/arc/workspace/" + strings.ToLower(cov.Name) + "/" + ext
			if err := os.WriteFile(datPath, []byte(pad(ref, 80)), 0o644); err != nil {
				return err
			}
			continue
		}
		if err := os.WriteFile(datPath, dat.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(dirPath, dir.Bytes(), 0o644)
}

func encodeBinaryRow(tab *Table, row []interface{}, recSize int) ([]byte, error) {
	raw := make([]byte, recSize)
	vis := tab.visible()
	if len(row) != len(vis) {
		return nil, fmt.Errorf("row has %d values for %d items", len(row), len(vis))
	}
	for i, f := range vis {
		dst := raw[f.Offset-1 : f.Offset-1+f.Size]
		switch f.Type {
		case BinInt:
			v := toInt(row[i])
			if f.Size == 2 {
				binary.BigEndian.PutUint16(dst, uint16(int16(v)))
			} else {
				binary.BigEndian.PutUint32(dst, uint32(int32(v)))
			}
		case BinFloat:
			v := toFloat(row[i])
			if f.Size == 8 {
				binary.BigEndian.PutUint64(dst, math.Float64bits(v))
			} else {
				binary.BigEndian.PutUint32(dst, math.Float32bits(float32(v)))
			}
		default:
			copy(dst, textValue(f, row[i]))
		}
	}
	return raw, nil
}

// textValue renders the character form shared by binary CHAR, DATE,
// FIXINT and FIXNUM items and by E00 records.
func textValue(f Field, v interface{}) string {
	switch f.Type {
	case FixInt:
		return fmt.Sprintf("%*d", f.Size, toInt(v))
	case FixNum:
		return fmt.Sprintf("%*.*f", f.Size, f.Prec, toFloat(v))
	default:
		return pad(fmt.Sprint(v), f.Size)
	}
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

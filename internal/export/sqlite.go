// Package export writes coverage layers and INFO tables to SQLite.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/beetlebugorg/avc/pkg/avc"
)

// Options configures an export.
type Options struct {
	// BatchSize is the number of rows inserted per transaction.
	BatchSize int

	// Tables also copies the INFO tables that are not joined to a layer,
	// such as BND and TIC.
	Tables bool

	// Progress draws a progress bar on terminals.
	Progress bool
}

// DefaultOptions returns export options with defaults.
func DefaultOptions() Options {
	return Options{BatchSize: 1000, Tables: true}
}

// Stats summarizes an export.
type Stats struct {
	Layers   int
	Features int
	Tables   int
	Rows     int
}

// Exporter writes coverages to one SQLite database.
type Exporter struct {
	db   *sql.DB
	path string
	opts Options
}

// Open creates or opens the database at path.
func Open(path string, opts Options) (*Exporter, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing database connection: %w", err)
	}

	e := &Exporter{db: db, path: path, opts: opts}
	if _, err := db.Exec(layersSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating layer catalog: %w", err)
	}
	return e, nil
}

const layersSchema = `CREATE TABLE IF NOT EXISTS avc_layers (
	table_name    TEXT PRIMARY KEY,
	coverage      TEXT NOT NULL,
	layer         TEXT NOT NULL,
	geometry_type TEXT NOT NULL,
	feature_count INTEGER NOT NULL,
	srs           TEXT
)`

// DB returns the underlying connection.
func (e *Exporter) DB() *sql.DB {
	return e.db
}

// Close closes the database.
func (e *Exporter) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	if err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// Coverage writes every layer of cov to a table named
// <coverage>_<layer>, replacing existing tables of the same name. Features
// carry their FID, their geometry as WKT and one column per field.
func (e *Exporter) Coverage(ctx context.Context, cov *avc.Coverage) (Stats, error) {
	var stats Stats

	total := 0
	counts := make([]int, cov.LayerCount())
	for i, l := range cov.Layers() {
		n, err := l.FeatureCount()
		if err != nil {
			return stats, fmt.Errorf("counting %s features: %w", l.Name(), err)
		}
		counts[i] = n
		total += n
	}

	progress := NewProgress(total, e.opts.Progress)
	defer progress.Finish()

	done := 0
	for i, l := range cov.Layers() {
		n, err := e.layer(ctx, cov, l, counts[i], func(written int) {
			progress.Update(done+written, cov.Name()+" "+l.Name())
		})
		if err != nil {
			return stats, err
		}
		done += n
		stats.Layers++
		stats.Features += n
	}

	if e.opts.Tables {
		for _, t := range cov.Tables() {
			if joinedTable(t.Name) {
				continue
			}
			n, err := e.table(ctx, cov, t)
			if err != nil {
				return stats, err
			}
			stats.Tables++
			stats.Rows += n
		}
	}

	slog.Debug("exported coverage",
		"coverage", cov.Name(), "database", e.path,
		"layers", stats.Layers, "features", stats.Features, "tables", stats.Tables)
	return stats, nil
}

// joinedTable reports whether an INFO table is already part of a layer.
func joinedTable(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	switch strings.ToUpper(name[i+1:]) {
	case "AAT", "PAT":
		return true
	}
	return false
}

func (e *Exporter) layer(ctx context.Context, cov *avc.Coverage, l *avc.Layer, count int, report func(int)) (int, error) {
	table := TableName(cov.Name(), l.Name())
	cols := ColumnNames(fieldNames(l.Fields()), "fid", "geometry")

	defs := []string{`"fid" INTEGER PRIMARY KEY`, `"geometry" TEXT`}
	for i, f := range l.Fields() {
		defs = append(defs, fmt.Sprintf("%s %s", quote(cols[i]), sqlType(f.Type)))
	}
	if err := e.recreate(ctx, table, defs); err != nil {
		return 0, err
	}

	var srs sql.NullString
	if ref := l.SpatialReference(); ref != nil {
		srs = sql.NullString{String: ref.WKT(), Valid: true}
	}
	if _, err := e.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO avc_layers (table_name, coverage, layer, geometry_type, feature_count, srs) VALUES (?, ?, ?, ?, ?, ?)`,
		table, cov.Name(), l.Name(), l.GeometryType().String(), count, srs); err != nil {
		return 0, fmt.Errorf("registering %s: %w", table, err)
	}

	names := append([]string{"fid", "geometry"}, cols...)
	insert := insertSQL(table, names)

	it, err := l.Iterate()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	b := newBatcher(ctx, e.db, insert, e.opts.BatchSize)
	n := 0
	for it.Next() {
		f := it.Feature()
		args := make([]interface{}, 0, len(names))
		var geom interface{}
		if wkt := f.WKT(); wkt != "" {
			geom = wkt
		}
		args = append(args, f.FID(), geom)
		for i := 0; i < len(cols); i++ {
			args = append(args, sqlValue(f.Field(i)))
		}
		if err := b.add(args); err != nil {
			b.abort()
			return n, fmt.Errorf("inserting into %s: %w", table, err)
		}
		n++
		report(n)
	}
	if err := it.Err(); err != nil {
		b.abort()
		return n, err
	}
	if err := b.flush(); err != nil {
		return n, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return n, nil
}

func (e *Exporter) table(ctx context.Context, cov *avc.Coverage, t avc.TableInfo) (int, error) {
	table := TableName(t.Name)
	var names []string
	var types []string
	for _, it := range t.Items {
		if it.Redefined {
			continue
		}
		names = append(names, it.Name)
		types = append(types, itemSQLType(it.Type))
	}
	if len(names) == 0 {
		return 0, nil
	}
	cols := ColumnNames(names)

	defs := make([]string, len(cols))
	for i := range cols {
		defs[i] = fmt.Sprintf("%s %s", quote(cols[i]), types[i])
	}
	if err := e.recreate(ctx, table, defs); err != nil {
		return 0, err
	}

	rows, err := cov.Rows(t.Name)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := newBatcher(ctx, e.db, insertSQL(table, cols), e.opts.BatchSize)
	n := 0
	for rows.Next() {
		row := rows.Row()
		args := make([]interface{}, len(cols))
		for i := range args {
			if i < len(row) {
				args[i] = sqlValue(row[i])
			}
		}
		if err := b.add(args); err != nil {
			b.abort()
			return n, fmt.Errorf("inserting into %s: %w", table, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		b.abort()
		return n, err
	}
	if err := b.flush(); err != nil {
		return n, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return n, nil
}

func (e *Exporter) recreate(ctx context.Context, table string, defs []string) error {
	if _, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table)); err != nil {
		return fmt.Errorf("dropping %s: %w", table, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quote(table), strings.Join(defs, ",\n\t"))
	if _, err := e.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating %s: %w", table, err)
	}
	return nil
}

func fieldNames(fields []avc.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func sqlType(t avc.FieldType) string {
	switch t {
	case avc.FieldInteger:
		return "INTEGER"
	case avc.FieldReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func itemSQLType(t string) string {
	switch t {
	case "BININT", "FIXINT":
		return "INTEGER"
	case "BINFLOAT", "FIXNUM":
		return "REAL"
	default:
		return "TEXT"
	}
}

// sqlValue stores integer lists as JSON arrays.
func sqlValue(v interface{}) interface{} {
	if l, ok := v.([]int); ok {
		data, _ := json.Marshal(l)
		return string(data)
	}
	return v
}

func insertSQL(table string, cols []string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// TableName joins parts into a lower case SQL table name, e.g.
// TableName("ROADS", "ARC") is "roads_arc" and TableName("ROADS.BND") is
// "roads_bnd".
func TableName(parts ...string) string {
	return sanitize(strings.Join(parts, "_"))
}

// ColumnNames sanitizes field names into unique column names. Names listed
// in reserved are avoided as well.
func ColumnNames(names []string, reserved ...string) []string {
	used := make(map[string]bool, len(names)+len(reserved))
	for _, r := range reserved {
		used[r] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		base := sanitize(n)
		if base == "" {
			base = fmt.Sprintf("field_%d", i+1)
		}
		name := base
		for k := 2; used[name]; k++ {
			name = fmt.Sprintf("%s_%d", base, k)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// sanitize lower cases s and maps every character outside [a-z0-9_] to an
// underscore: "ROADS-ID" is "roads_id", "ROADS#" is "roads_".
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

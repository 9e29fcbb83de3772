package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/queryloom/queryloom/internal/models"
)

var (
	ErrTableNotFound      = errors.New("table not found")
	ErrUnsupportedDialect = errors.New("schema introspection not supported for dialect")
)

// Column is raw introspection output before descriptions are attached.
type Column struct {
	Name string
	Type string
}

// Introspector extracts the live shape of one dialect's tables. Column order
// must match the order reported by the database.
type Introspector interface {
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)
	Columns(ctx context.Context, db *sql.DB, table string) ([]Column, error)
	PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error)
	ForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string]models.ForeignKeyRef, error)
}

// IntrospectorFor returns the introspector for a dialect name.
func IntrospectorFor(dialect string) (Introspector, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return postgresIntrospector{}, nil
	case "mysql":
		return mysqlIntrospector{}, nil
	case "sqlite", "sqlite3":
		return sqliteIntrospector{}, nil
	case "snowflake":
		return snowflakeIntrospector{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
}

// ─── PostgreSQL ───────────────────────────────────────────────────────────────

type postgresIntrospector struct{}

func (postgresIntrospector) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT table_name FROM information_schema.tables
		  WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		  ORDER BY table_name`)
}

func (postgresIntrospector) Columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		  WHERE table_schema = 'public' AND table_name = $1
		  ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return cols, nil
}

func (postgresIntrospector) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT kcu.column_name
		   FROM information_schema.table_constraints tc
		   JOIN information_schema.key_column_usage kcu
		     ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		  WHERE tc.constraint_type = 'PRIMARY KEY'
		    AND tc.table_schema = 'public' AND tc.table_name = $1
		  ORDER BY kcu.ordinal_position`, table)
}

func (postgresIntrospector) ForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string]models.ForeignKeyRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT kcu.column_name, ccu.table_name, ccu.column_name
		   FROM information_schema.table_constraints tc
		   JOIN information_schema.key_column_usage kcu
		     ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		   JOIN information_schema.constraint_column_usage ccu
		     ON ccu.constraint_name = tc.constraint_name
		    AND ccu.table_schema = tc.table_schema
		  WHERE tc.constraint_type = 'FOREIGN KEY'
		    AND tc.table_schema = 'public' AND tc.table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForeignKeys(rows)
}

// ─── MySQL ────────────────────────────────────────────────────────────────────

type mysqlIntrospector struct{}

func (mysqlIntrospector) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT table_name FROM information_schema.tables
		  WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		  ORDER BY table_name`)
}

func (mysqlIntrospector) Columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, column_type FROM information_schema.columns
		  WHERE table_schema = DATABASE() AND table_name = ?
		  ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return cols, nil
}

func (mysqlIntrospector) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT column_name FROM information_schema.key_column_usage
		  WHERE table_schema = DATABASE() AND table_name = ?
		    AND constraint_name = 'PRIMARY'
		  ORDER BY ordinal_position`, table)
}

func (mysqlIntrospector) ForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string]models.ForeignKeyRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, referenced_table_name, referenced_column_name
		   FROM information_schema.key_column_usage
		  WHERE table_schema = DATABASE() AND table_name = ?
		    AND referenced_table_name IS NOT NULL`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForeignKeys(rows)
}

// ─── SQLite ───────────────────────────────────────────────────────────────────

type sqliteIntrospector struct{}

func (sqliteIntrospector) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT name FROM sqlite_master
		  WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		  ORDER BY name`)
}

func (sqliteIntrospector) Columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	// PRAGMA arguments cannot be bound; the identifier is quoted instead.
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Type: colType})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return cols, nil
}

func (sqliteIntrospector) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			pks = append(pks, name)
		}
	}
	return pks, rows.Err()
}

func (sqliteIntrospector) ForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string]models.ForeignKeyRef, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]models.ForeignKeyRef)
	for rows.Next() {
		var (
			id, seq                         int
			refTable, from, onUpd, onDel, m string
			to                              sql.NullString
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpd, &onDel, &m); err != nil {
			return nil, err
		}
		if to.Valid {
			fks[from] = models.ForeignKeyRef{Table: refTable, Column: to.String}
		}
	}
	return fks, rows.Err()
}

// ─── Snowflake ────────────────────────────────────────────────────────────────

// Snowflake exposes information_schema but does not populate key_column_usage,
// so key flags stay unset for this dialect.
type snowflakeIntrospector struct{}

func (snowflakeIntrospector) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	return scanStrings(ctx, db,
		`SELECT table_name FROM information_schema.tables
		  WHERE table_schema = CURRENT_SCHEMA() AND table_type = 'BASE TABLE'
		  ORDER BY table_name`)
}

func (snowflakeIntrospector) Columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		  WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?
		  ORDER BY ordinal_position`, strings.ToUpper(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}
	return cols, nil
}

func (snowflakeIntrospector) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	return nil, nil
}

func (snowflakeIntrospector) ForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string]models.ForeignKeyRef, error) {
	return map[string]models.ForeignKeyRef{}, nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func scanStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanForeignKeys(rows *sql.Rows) (map[string]models.ForeignKeyRef, error) {
	fks := make(map[string]models.ForeignKeyRef)
	for rows.Next() {
		var col, refTable, refCol string
		if err := rows.Scan(&col, &refTable, &refCol); err != nil {
			return nil, err
		}
		fks[col] = models.ForeignKeyRef{Table: refTable, Column: refCol}
	}
	return fks, rows.Err()
}

// Package schema produces the authoritative, annotated shape of a data
// source's tables: live introspection merged with curated descriptions.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/store"
)

// ErrNoSchema is returned when a resolution yields no tables at all.
// Downstream SQL generation cannot proceed without schema, so a wholly empty
// resolution is a pipeline-level error rather than an empty list.
var ErrNoSchema = errors.New("no schema could be resolved")

// protectedTables are the pipeline's own metadata tables. They are never
// exposed as queryable, even when requested explicitly.
var protectedTables = map[string]bool{
	"query_logs":      true,
	"table_metadata":  true,
	"column_metadata": true,
	"data_sources":    true,
	"chat_sessions":   true,
	"chat_messages":   true,
}

// MetadataStore is the slice of the metadata layer the resolver needs.
type MetadataStore interface {
	GetDataSource(ctx context.Context, id int64) (*models.DataSource, error)
	GetTableDescriptions(ctx context.Context, dataSourceID int64) (map[string]string, error)
	GetColumnDescriptions(ctx context.Context, dataSourceID int64, tables []string) (map[store.ColumnKey]string, error)
}

// OpenFunc opens a live connection for a data-source configuration.
type OpenFunc func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error)

type Resolver struct {
	meta MetadataStore
	open OpenFunc
}

func NewResolver(meta MetadataStore, open OpenFunc) *Resolver {
	return &Resolver{meta: meta, open: open}
}

// ListTableNames returns every table known to the data source's live
// connection, minus the protected metadata tables.
func (r *Resolver) ListTableNames(ctx context.Context, dataSourceID int64) ([]string, error) {
	ds, err := r.meta.GetDataSource(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}

	db, err := r.open(ctx, ds.Config)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	intr, err := IntrospectorFor(ds.Config.Dialect)
	if err != nil {
		return nil, err
	}

	names, err := intr.ListTables(ctx, db)
	if err != nil {
		return nil, err
	}

	out := names[:0]
	for _, name := range names {
		if !protectedTables[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Resolve introspects the requested tables and attaches curated column
// descriptions. A nil/empty table list (or the single entry "all") resolves
// every table. Per-table failures are captured in the entry's Error field;
// only a wholly empty resolution is an error.
func (r *Resolver) Resolve(ctx context.Context, dataSourceID int64, tables []string) ([]models.TableSchema, error) {
	ds, err := r.meta.GetDataSource(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}

	db, err := r.open(ctx, ds.Config)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	intr, err := IntrospectorFor(ds.Config.Dialect)
	if err != nil {
		return nil, err
	}

	if len(tables) == 0 || (len(tables) == 1 && tables[0] == "all") {
		all, err := intr.ListTables(ctx, db)
		if err != nil {
			return nil, err
		}
		tables = all
	}

	requested := tables[:0:0]
	for _, t := range tables {
		if protectedTables[t] {
			log.Warn().Str("table", t).Msg("protected table requested, skipping")
			continue
		}
		requested = append(requested, t)
	}

	colDescs, err := r.meta.GetColumnDescriptions(ctx, dataSourceID, requested)
	if err != nil {
		return nil, err
	}

	out := make([]models.TableSchema, 0, len(requested))
	for _, table := range requested {
		ts, err := r.resolveTable(ctx, db, intr, dataSourceID, table, colDescs)
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("table introspection failed")
			out = append(out, models.TableSchema{
				TableName: table,
				Columns:   []models.ColumnInfo{},
				Error:     err.Error(),
			})
			continue
		}
		out = append(out, *ts)
	}

	if len(out) == 0 {
		return nil, ErrNoSchema
	}
	return out, nil
}

func (r *Resolver) resolveTable(
	ctx context.Context,
	db *sql.DB,
	intr Introspector,
	dataSourceID int64,
	table string,
	colDescs map[store.ColumnKey]string,
) (*models.TableSchema, error) {
	cols, err := intr.Columns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	pks, err := intr.PrimaryKey(ctx, db, table)
	if err != nil {
		return nil, err
	}
	fks, err := intr.ForeignKeys(ctx, db, table)
	if err != nil {
		return nil, err
	}

	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}

	infos := make([]models.ColumnInfo, 0, len(cols))
	for _, col := range cols {
		info := models.ColumnInfo{
			Name:         col.Name,
			Type:         col.Type,
			Description:  models.NoDescription,
			IsPrimaryKey: pkSet[col.Name],
		}
		if desc, ok := colDescs[store.ColumnKey{Table: table, Column: col.Name}]; ok && desc != "" {
			info.Description = desc
		}
		if ref, ok := fks[col.Name]; ok {
			refCopy := ref
			info.IsForeignKey = true
			info.References = &refCopy
		}
		infos = append(infos, info)
	}

	return &models.TableSchema{TableName: table, Columns: infos}, nil
}

// DescribeTables returns the curated table-level descriptions for one data
// source, independent of live introspection. The coarse table-selection step
// uses this because it must be cheap and must not require a connection.
func (r *Resolver) DescribeTables(ctx context.Context, dataSourceID int64) (map[string]string, error) {
	return r.meta.GetTableDescriptions(ctx, dataSourceID)
}

// DescribeTablesMarkdown renders the curated descriptions deterministically,
// one bullet per table under a fixed header.
func DescribeTablesMarkdown(descriptions map[string]string) string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{"# Tables:"}
	for _, name := range names {
		desc := descriptions[name]
		if desc == "" {
			desc = models.NoDescription
		}
		lines = append(lines, "- `"+name+"`: "+desc)
	}
	return strings.Join(lines, "\n")
}

package schema

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/queryloom/queryloom/internal/models"
	"github.com/queryloom/queryloom/internal/store"
)

type fakeMeta struct{}

func (fakeMeta) GetDataSource(ctx context.Context, id int64) (*models.DataSource, error) {
	return &models.DataSource{
		ID:     id,
		Name:   "test",
		Kind:   models.KindDatabase,
		Config: models.DataSourceConfig{Dialect: "postgres", Host: "db", Database: "app"},
	}, nil
}

func (fakeMeta) GetTableDescriptions(ctx context.Context, id int64) (map[string]string, error) {
	return map[string]string{}, nil
}

func (fakeMeta) GetColumnDescriptions(ctx context.Context, id int64, tables []string) (map[store.ColumnKey]string, error) {
	return map[store.ColumnKey]string{
		{Table: "orders", Column: "order_id"}: "Order id",
	}, nil
}

// openWith builds an OpenFunc whose connections list the given tables and
// introspect every table as zero columns, which the introspector reports as
// not found.
func openWith(tables []string) OpenFunc {
	return func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		if err != nil {
			return nil, err
		}
		mock.MatchExpectationsInOrder(false)

		tableRows := sqlmock.NewRows([]string{"table_name"})
		for _, t := range tables {
			tableRows.AddRow(t)
		}
		mock.ExpectQuery("information_schema.tables").WillReturnRows(tableRows)

		for i := 0; i < len(tables); i++ {
			mock.ExpectQuery("information_schema.columns").
				WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))
		}
		mock.ExpectClose()
		return db, nil
	}
}

func TestListTableNamesFiltersProtected(t *testing.T) {
	resolver := NewResolver(fakeMeta{}, openWith(
		[]string{"data_sources", "orders", "query_logs", "users"}))

	names, err := resolver.ListTableNames(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListTableNames: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"orders", "users"}) {
		t.Errorf("names = %v, want protected tables removed", names)
	}
}

func TestResolveSkipsProtectedTables(t *testing.T) {
	open := func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		if err != nil {
			return nil, err
		}
		mock.MatchExpectationsInOrder(false)
		mock.ExpectQuery("information_schema.columns").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
				AddRow("order_id", "integer"))
		mock.ExpectQuery("PRIMARY KEY").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("order_id"))
		mock.ExpectQuery("FOREIGN KEY").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "table_name", "column_name"}))
		mock.ExpectClose()
		return db, nil
	}
	resolver := NewResolver(fakeMeta{}, open)

	out, err := resolver.Resolve(context.Background(), 1, []string{"orders", "query_logs", "chat_messages"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].TableName != "orders" {
		t.Fatalf("resolved = %+v, want only orders", out)
	}
	if out[0].Columns[0].Description != "Order id" {
		t.Errorf("description = %q, want curated text attached", out[0].Columns[0].Description)
	}
	if !out[0].Columns[0].IsPrimaryKey {
		t.Error("order_id should be flagged as primary key")
	}
}

func TestResolveCapturesPerTableErrors(t *testing.T) {
	open := func(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		if err != nil {
			return nil, err
		}
		mock.MatchExpectationsInOrder(false)
		// Zero columns means the table does not exist.
		mock.ExpectQuery("information_schema.columns").
			WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))
		mock.ExpectClose()
		return db, nil
	}
	resolver := NewResolver(fakeMeta{}, open)

	out, err := resolver.Resolve(context.Background(), 1, []string{"ghost"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("resolved = %d entries, want 1", len(out))
	}
	if out[0].Error == "" {
		t.Error("expected per-table error to be captured")
	}
	if len(out[0].Columns) != 0 {
		t.Errorf("columns = %v, want empty", out[0].Columns)
	}
}

func TestResolveAllProtectedIsError(t *testing.T) {
	resolver := NewResolver(fakeMeta{}, openWith([]string{"query_logs"}))

	_, err := resolver.Resolve(context.Background(), 1, []string{"query_logs", "data_sources"})
	if err == nil {
		t.Fatal("expected error when nothing resolvable remains")
	}
}

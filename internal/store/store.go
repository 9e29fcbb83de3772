package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("data source name already exists")
)

// Store is the persistent metadata layer: registered data sources, curated
// table/column descriptions, the query audit log and the chat history. It is
// backed by a single Postgres database.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadata store ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports metadata database connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS data_sources (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		type TEXT NOT NULL,
		config TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS table_metadata (
		data_source_id BIGINT NOT NULL,
		table_name TEXT NOT NULL,
		table_description TEXT,
		PRIMARY KEY (data_source_id, table_name)
	)`,
	`CREATE TABLE IF NOT EXISTS column_metadata (
		data_source_id BIGINT NOT NULL,
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		column_description TEXT,
		PRIMARY KEY (data_source_id, table_name, column_name)
	)`,
	`CREATE TABLE IF NOT EXISTS query_logs (
		id BIGSERIAL PRIMARY KEY,
		query_id VARCHAR(32) UNIQUE NOT NULL,
		user_query TEXT NOT NULL,
		sql_query TEXT NOT NULL,
		status VARCHAR(20) NOT NULL,
		execution_time_ms BIGINT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id UUID PRIMARY KEY,
		title TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		type TEXT NOT NULL,
		content JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Init creates the metadata tables if they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("init metadata schema: %w", err)
		}
	}
	log.Info().Msg("metadata schema ready")
	return nil
}

// ─── Data sources ─────────────────────────────────────────────────────────────

func (s *Store) RegisterDataSource(ctx context.Context, name, kind string, cfg models.DataSourceConfig) (int64, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM data_sources WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check data source name: %w", err)
	}
	if exists {
		return 0, ErrDuplicateName
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshal config: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO data_sources (name, type, config) VALUES ($1, $2, $3) RETURNING id`,
		name, kind, string(raw)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert data source: %w", err)
	}
	return id, nil
}

func (s *Store) GetDataSource(ctx context.Context, id int64) (*models.DataSource, error) {
	var ds models.DataSource
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, type, config FROM data_sources WHERE id = $1`, id).
		Scan(&ds.ID, &ds.Name, &ds.Kind, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get data source %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &ds.Config); err != nil {
		return nil, fmt.Errorf("decode data source %d config: %w", id, err)
	}
	return &ds, nil
}

func (s *Store) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, type, config FROM data_sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list data sources: %w", err)
	}
	defer rows.Close()

	var out []models.DataSource
	for rows.Next() {
		var ds models.DataSource
		var raw string
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Kind, &raw); err != nil {
			return nil, fmt.Errorf("scan data source: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &ds.Config); err != nil {
			return nil, fmt.Errorf("decode data source %d config: %w", ds.ID, err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// ─── Descriptions ─────────────────────────────────────────────────────────────

// GetTableDescriptions returns curated table-level descriptions for one data
// source. Missing descriptions are simply absent from the map.
func (s *Store) GetTableDescriptions(ctx context.Context, dataSourceID int64) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_name, COALESCE(table_description, '')
		   FROM table_metadata WHERE data_source_id = $1 ORDER BY table_name`, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("get table descriptions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, desc string
		if err := rows.Scan(&name, &desc); err != nil {
			return nil, fmt.Errorf("scan table description: %w", err)
		}
		out[name] = desc
	}
	return out, rows.Err()
}

// ColumnKey addresses one column description.
type ColumnKey struct {
	Table  string
	Column string
}

// GetColumnDescriptions returns curated column descriptions for the given
// tables of one data source.
func (s *Store) GetColumnDescriptions(ctx context.Context, dataSourceID int64, tables []string) (map[ColumnKey]string, error) {
	if len(tables) == 0 {
		return map[ColumnKey]string{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT table_name, column_name, COALESCE(column_description, '')
		   FROM column_metadata
		  WHERE data_source_id = $1 AND table_name = ANY($2)`, dataSourceID, tables)
	if err != nil {
		return nil, fmt.Errorf("get column descriptions: %w", err)
	}
	defer rows.Close()

	out := make(map[ColumnKey]string)
	for rows.Next() {
		var key ColumnKey
		var desc string
		if err := rows.Scan(&key.Table, &key.Column, &desc); err != nil {
			return nil, fmt.Errorf("scan column description: %w", err)
		}
		out[key] = desc
	}
	return out, rows.Err()
}

// UpsertDescriptions writes table and column descriptions in one transaction.
// Column keys use the "table.column" form. Returns (tables, columns) counts.
func (s *Store) UpsertDescriptions(ctx context.Context, p models.DescriptionPayload) (int, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for table, desc := range p.Tables {
		_, err := tx.Exec(ctx,
			`INSERT INTO table_metadata (data_source_id, table_name, table_description)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (data_source_id, table_name)
			 DO UPDATE SET table_description = EXCLUDED.table_description`,
			p.DataSourceID, table, desc)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert table description %q: %w", table, err)
		}
	}

	for key, desc := range p.Columns {
		table, column := splitColumnKey(key)
		_, err := tx.Exec(ctx,
			`INSERT INTO column_metadata (data_source_id, table_name, column_name, column_description)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (data_source_id, table_name, column_name)
			 DO UPDATE SET column_description = EXCLUDED.column_description`,
			p.DataSourceID, table, column, desc)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert column description %q: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit upsert: %w", err)
	}
	return len(p.Tables), len(p.Columns), nil
}

// ─── Query log ────────────────────────────────────────────────────────────────

func (s *Store) InsertQueryLog(ctx context.Context, e models.QueryLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO query_logs (query_id, user_query, sql_query, status, execution_time_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		e.QueryID, e.UserQuery, e.SQLQuery, e.Status, e.ExecutionTimeMs, e.ErrorMessage)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

func (s *Store) ListQueryLogs(ctx context.Context) ([]models.QueryLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, query_id, user_query, sql_query, status,
		        COALESCE(execution_time_ms, 0), COALESCE(error_message, ''), created_at
		   FROM query_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	defer rows.Close()

	var out []models.QueryLogEntry
	for rows.Next() {
		var e models.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.QueryID, &e.UserQuery, &e.SQLQuery,
			&e.Status, &e.ExecutionTimeMs, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func splitColumnKey(key string) (table, column string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

// Package connect translates a logical data-source configuration into a
// driver name and DSN, and opens short-lived database/sql connections.
package connect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"         // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"         // PostgreSQL driver (registers "pgx")
	_ "github.com/mattn/go-sqlite3"            // SQLite driver
	_ "github.com/snowflakedb/gosnowflake"     // Snowflake driver

	"github.com/queryloom/queryloom/internal/models"
)

var (
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrNoSQLDriver        = errors.New("dialect is not served by a database/sql driver")
	ErrMissingDatabase    = errors.New("database name is required")
)

// Target is a resolved connection descriptor. The DSN embeds credentials and
// must never be logged.
type Target struct {
	Driver string
	DSN    string
}

// Build deterministically maps a DataSourceConfig to a driver/DSN pair. Pure
// function, no I/O. BigQuery is executed through its SDK rather than
// database/sql, so it returns ErrNoSQLDriver.
func Build(cfg models.DataSourceConfig) (Target, error) {
	dialect := strings.ToLower(strings.TrimSpace(cfg.Dialect))
	switch dialect {
	case "postgres", "postgresql":
		if cfg.Database == "" {
			return Target{}, ErrMissingDatabase
		}
		host := cfg.Host
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(host, strconv.Itoa(port)),
			Path:   "/" + cfg.Database,
		}
		if cfg.Username != "" {
			if cfg.Password != "" {
				u.User = url.UserPassword(cfg.Username, cfg.Password)
			} else {
				u.User = url.User(cfg.Username)
			}
		}
		return Target{Driver: "pgx", DSN: u.String()}, nil

	case "mysql":
		if cfg.Database == "" {
			return Target{}, ErrMissingDatabase
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		var sb strings.Builder
		if cfg.Username != "" {
			sb.WriteString(cfg.Username)
			if cfg.Password != "" {
				sb.WriteString(":")
				sb.WriteString(cfg.Password)
			}
			sb.WriteString("@")
		}
		fmt.Fprintf(&sb, "tcp(%s)/%s", net.JoinHostPort(cfg.Host, strconv.Itoa(port)), cfg.Database)
		return Target{Driver: "mysql", DSN: sb.String()}, nil

	case "sqlite", "sqlite3":
		if cfg.Database == "" {
			return Target{}, ErrMissingDatabase
		}
		// SQLite uses the file path directly
		return Target{Driver: "sqlite3", DSN: cfg.Database}, nil

	case "snowflake":
		// Warehouse dialects need routing parameters beyond host:port/database.
		if cfg.Database == "" {
			return Target{}, ErrMissingDatabase
		}
		account := cfg.Account
		if account == "" {
			account = cfg.Host
		}
		warehouse := cfg.Warehouse
		if warehouse == "" {
			warehouse = "compute_wh"
		}
		role := cfg.Role
		if role == "" {
			role = "public"
		}
		dsn := fmt.Sprintf("%s:%s@%s/%s/public?warehouse=%s&role=%s",
			cfg.Username, cfg.Password, account, cfg.Database,
			url.QueryEscape(warehouse), url.QueryEscape(role))
		return Target{Driver: "snowflake", DSN: dsn}, nil

	case "bigquery":
		return Target{}, ErrNoSQLDriver

	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedDialect, cfg.Dialect)
	}
}

// Open builds the target and opens a connection, verifying it with a ping.
// The caller owns the returned handle and must close it on every exit path.
func Open(ctx context.Context, cfg models.DataSourceConfig) (*sql.DB, error) {
	target, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", target.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", target.Driver, err)
	}
	return db, nil
}

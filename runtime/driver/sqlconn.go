package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/query/sqlgen"
)

// Config describes a connection
type Config struct {
	Provider string `mapstructure:"provider"`
	// DSN is used as is when set
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DriverName maps a provider name to a database/sql driver name
func DriverName(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// FormatDSN builds the data source name for the configured provider
func (c Config) FormatDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch DriverName(c.Provider) {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.DBName = c.Database
		if c.Host != "" {
			port := c.Port
			if port == 0 {
				port = 3306
			}
			mc.Net = "tcp"
			mc.Addr = fmt.Sprintf("%s:%d", c.Host, port)
		}
		return mc.FormatDSN(), nil
	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, port, c.User, c.Password, c.Database), nil
	case "sqlite3":
		if c.Database == "" {
			return ":memory:", nil
		}
		return c.Database, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", c.Provider)
	}
}

// SQLConn implements Conn over database/sql
type SQLConn struct {
	db      *sql.DB
	dialect sqlgen.Dialect
}

// Open opens and pings a connection
func Open(ctx context.Context, cfg Config) (*SQLConn, error) {
	driverName := DriverName(cfg.Provider)
	if driverName == "" {
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	dsn, err := cfg.FormatDSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	conn, err := NewSQLConn(cfg.Provider, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

// NewSQLConn wraps an existing database handle
func NewSQLConn(provider string, db *sql.DB) (*SQLConn, error) {
	d, err := sqlgen.For(provider)
	if err != nil {
		return nil, err
	}
	return &SQLConn{db: db, dialect: d}, nil
}

// DB returns the underlying database handle
func (c *SQLConn) DB() *sql.DB { return c.db }

// Dialect returns the connection's dialect
func (c *SQLConn) Dialect() sqlgen.Dialect { return c.dialect }

// Execute runs sql, returning rows for statements that produce them
func (c *SQLConn) Execute(ctx context.Context, sql string, params []any) (*Result, error) {
	return execute(ctx, c.db, c.dialect, sql, params)
}

// Begin starts a transaction
func (c *SQLConn) Begin(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, dialect: c.dialect}, nil
}

// Close closes the database handle
func (c *SQLConn) Close() error { return c.db.Close() }

type sqlTx struct {
	tx      *sql.Tx
	dialect sqlgen.Dialect
}

func (t *sqlTx) Execute(ctx context.Context, sql string, params []any) (*Result, error) {
	return execute(ctx, t.tx, t.dialect, sql, params)
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func returnsRows(sql string) bool {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "PRAGMA", "VALUES":
		return true
	}
	return strings.Contains(strings.ToUpper(sql), " RETURNING ")
}

func execute(ctx context.Context, q queryer, d sqlgen.Dialect, sql string, params []any) (*Result, error) {
	stmt := d.Rebind(sql)

	if !returnsRows(sql) {
		res, err := q.ExecContext(ctx, stmt, params...)
		if err != nil {
			return nil, err
		}
		out := &Result{}
		// not every driver reports these
		out.LastInsertID, _ = res.LastInsertId()
		out.RowsAffected, _ = res.RowsAffected()
		return out, nil
	}

	rows, err := q.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scanned, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	out := &Result{Rows: scanned, RowsAffected: int64(len(scanned))}
	if len(scanned) == 1 && strings.Contains(strings.ToUpper(sql), " RETURNING ") {
		for _, v := range scanned[0] {
			if id, ok := v.(int64); ok {
				out.LastInsertID = id
			}
		}
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]query.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []query.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(query.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	if out == nil {
		out = []query.Row{}
	}
	return out, nil
}

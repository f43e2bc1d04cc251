// Package client provides the data access client: CRUD primitives built from
// criteria, raw statement execution, table locks and transactions.
package client

import (
	"context"
	"errors"
	"regexp"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/satishbabariya/docsql/query/sqlgen"
	"github.com/satishbabariya/docsql/runtime/driver"
)

var (
	// ErrEmptyCriteria is returned when a criteria-scoped mutation has no WHERE clause
	ErrEmptyCriteria = errors.New("invalid or empty WHERE clause")
	// ErrMissingIDField is returned when a document declares no id field
	ErrMissingIDField = errors.New("document has no id field")
	// ErrNoActiveTransaction is returned by commit and rollback without a transaction
	ErrNoActiveTransaction = errors.New("no transaction")
	// ErrTransactionActive is returned when a second transaction is started
	ErrTransactionActive = errors.New("a transaction is already active")
	// ErrNotASelect is returned when found rows are requested after a statement other than SELECT
	ErrNotASelect = errors.New("selectFoundRows must be called after a SELECT query")
	// ErrNoValues is returned when an update has nothing to set
	ErrNoValues = errors.New("no values to update")
)

// Logger receives statement logs. *slog.Logger satisfies it.
type Logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Client executes statements on a connection, or on the active transaction
// when there is one. A client is safe for concurrent use. The last statement
// it records is shared, so concurrent callers count with CountFoundRows
// rather than SelectFoundRows.
type Client struct {
	conn    driver.Conn
	dialect sqlgen.Dialect
	logger  Logger

	middlewares []Middleware

	mu         sync.Mutex
	lastSQL    string
	lastParams []any
	tx         driver.Tx
	txID       string
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the statement logger
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMiddleware adds middlewares to the chain
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, mw...) }
}

// New creates a client. A nil dialect defaults to MySQL.
func New(conn driver.Conn, dialect sqlgen.Dialect, opts ...Option) *Client {
	if dialect == nil {
		dialect = sqlgen.MySQL{}
	}
	c := &Client{conn: conn, dialect: dialect}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the client's dialect
func (c *Client) Dialect() sqlgen.Dialect { return c.dialect }

// Close closes the underlying connection
func (c *Client) Close() error { return c.conn.Close() }

// RawQuery executes sql with positional parameters. Driver errors are
// returned unchanged.
func (c *Client) RawQuery(ctx context.Context, sql string, params []any) (*driver.Result, error) {
	c.mu.Lock()
	c.lastSQL = sql
	c.lastParams = params
	var exec driver.Executor = c.conn
	if c.tx != nil {
		exec = c.tx
	}
	txID := c.txID
	c.mu.Unlock()

	c.debug(ctx, "query", "sql", sql, "params", params)

	var res *driver.Result
	event := &QueryEvent{SQL: sql, Params: params, Type: statementType(sql), TxID: txID}
	err := c.run(ctx, event, func() error {
		var err error
		res, err = exec.Execute(ctx, sql, params)
		return err
	})
	if err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "query failed", "sql", sql, "error", err, "stack", string(debug.Stack()))
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) debug(ctx context.Context, msg string, args ...any) {
	if c.logger != nil {
		c.logger.DebugContext(ctx, msg, args...)
	}
}

// LastSQL returns the last statement sent
func (c *Client) LastSQL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSQL
}

// LastSQLParams returns the parameters of the last statement
func (c *Client) LastSQLParams() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastParams
}

// LastQueryType returns the upper-cased first keyword of the last statement,
// or "" when there is none.
func (c *Client) LastQueryType() string {
	return statementType(c.LastSQL())
}

func statementType(sql string) string {
	sql = strings.TrimSpace(sql)
	idx := strings.IndexAny(sql, " \t\n")
	if idx < 0 {
		return ""
	}
	return strings.ToUpper(sql[:idx])
}

var countStrip = regexp.MustCompile(`(?is)^\s*select.*?from|limit \d+\s*,?\s*\d*|offset \d+`)

// DeriveCountSQL turns a SELECT into "SELECT count(*) as numRows FROM ..." by
// dropping everything up to the first FROM and any LIMIT or OFFSET. It is a
// textual rewrite: a FROM inside a selected subquery or a LIMIT inside a
// string literal produce a wrong count statement.
func DeriveCountSQL(sql string) string {
	return "SELECT count(*) as numRows FROM " + strings.TrimSpace(countStrip.ReplaceAllString(sql, " "))
}

// SelectFoundRows counts the rows the last SELECT would return without its
// LIMIT and OFFSET.
func (c *Client) SelectFoundRows(ctx context.Context) (int64, error) {
	c.mu.Lock()
	last, params := c.lastSQL, c.lastParams
	c.mu.Unlock()
	return c.CountFoundRows(ctx, last, params)
}

// CountFoundRows counts the rows the SELECT sql would return without its
// LIMIT and OFFSET.
func (c *Client) CountFoundRows(ctx context.Context, sql string, params []any) (int64, error) {
	if statementType(sql) != "SELECT" {
		return 0, ErrNotASelect
	}
	res, err := c.RawQuery(ctx, DeriveCountSQL(sql), params)
	if err != nil {
		return 0, err
	}
	return firstInt(res, "numRows"), nil
}

// firstInt reads column from the first row. Drivers that fold alias case
// are handled by falling back to the only column.
func firstInt(res *driver.Result, column string) int64 {
	if res == nil || len(res.Rows) == 0 {
		return 0
	}
	row := res.Rows[0]
	if v, ok := row[column]; ok {
		return cast.ToInt64(v)
	}
	for k, v := range row {
		if strings.EqualFold(k, column) || len(row) == 1 {
			return cast.ToInt64(v)
		}
	}
	return 0
}

// CreateLock locks tables for the session
func (c *Client) CreateLock(ctx context.Context, locks ...sqlgen.Lock) (*driver.Result, error) {
	sql, err := c.dialect.LockTables(locks)
	if err != nil {
		return nil, err
	}
	return c.RawQuery(ctx, sql, nil)
}

// ReleaseLock releases the session's table locks. Providers whose locks end
// with the transaction issue no statement.
func (c *Client) ReleaseLock(ctx context.Context) (*driver.Result, error) {
	sql := c.dialect.UnlockTables()
	if sql == "" {
		return &driver.Result{}, nil
	}
	return c.RawQuery(ctx, sql, nil)
}

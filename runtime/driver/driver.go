// Package driver provides the database transport used by the data access client.
package driver

import (
	"context"
	"database/sql"

	"github.com/satishbabariya/docsql/query"
)

// Result is the outcome of one statement
type Result struct {
	Rows         []query.Row
	LastInsertID int64
	RowsAffected int64
}

// Executor executes a statement with positional parameters
type Executor interface {
	Execute(ctx context.Context, sql string, params []any) (*Result, error)
}

// Conn is a database connection that can start transactions
type Conn interface {
	Executor
	Begin(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
}

// Tx is a transaction scoped executor
type Tx interface {
	Executor
	Commit() error
	Rollback() error
}

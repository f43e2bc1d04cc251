package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (default)
	ReadCommitted IsolationLevel = iota
	// ReadUncommitted allows dirty reads
	ReadUncommitted
	// RepeatableRead prevents dirty reads and non-repeatable reads
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads, and phantom reads
	Serializable
)

// ToSQLIsolationLevel converts IsolationLevel to sql.IsolationLevel
func (level IsolationLevel) ToSQLIsolationLevel() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// ParseIsolationLevel parses names such as "serializable" or "repeatable read"
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch s {
	case "", "read committed", "read_committed":
		return ReadCommitted, nil
	case "read uncommitted", "read_uncommitted":
		return ReadUncommitted, nil
	case "repeatable read", "repeatable_read":
		return RepeatableRead, nil
	case "serializable":
		return Serializable, nil
	}
	return ReadCommitted, fmt.Errorf("unknown isolation level: %s", s)
}

// NewTxOptions creates sql.TxOptions from isolation level
func NewTxOptions(isolation IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: isolation.ToSQLIsolationLevel(),
		ReadOnly:  readOnly,
	}
}

// StartTransaction begins a transaction. Statements sent through the client
// run inside it until it is committed or rolled back. It returns the
// transaction id used in logs and query events.
func (c *Client) StartTransaction(ctx context.Context, opts *sql.TxOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return "", ErrTransactionActive
	}

	tx, err := c.conn.Begin(ctx, opts)
	if err != nil {
		return "", err
	}
	c.tx = tx
	c.txID = uuid.NewString()
	c.debug(ctx, "START TRANSACTION", "tx", c.txID)
	return c.txID, nil
}

// InTransaction reports whether a transaction is active
func (c *Client) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// CommitTransaction commits the active transaction
func (c *Client) CommitTransaction(ctx context.Context) error {
	tx, id, err := c.takeTx()
	if err != nil {
		return err
	}
	c.debug(ctx, "COMMIT", "tx", id)
	return tx.Commit()
}

// RollbackTransaction rolls back the active transaction
func (c *Client) RollbackTransaction(ctx context.Context) error {
	tx, id, err := c.takeTx()
	if err != nil {
		return err
	}
	c.debug(ctx, "ROLLBACK", "tx", id)
	return tx.Rollback()
}

// takeTx detaches the active transaction. It is cleared even when commit or
// rollback fails.
func (c *Client) takeTx() (txHandle, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return nil, "", ErrNoActiveTransaction
	}
	tx, id := c.tx, c.txID
	c.tx, c.txID = nil, ""
	return tx, id, nil
}

type txHandle interface {
	Commit() error
	Rollback() error
}

// Transaction runs fn inside a transaction, rolling back when fn returns an
// error or panics and committing otherwise.
func (c *Client) Transaction(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if _, err := c.StartTransaction(ctx, opts); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = c.RollbackTransaction(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := c.RollbackTransaction(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := c.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

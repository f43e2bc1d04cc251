package client

import (
	"context"
	"time"
)

// QueryEvent describes one statement passing through the middleware chain
type QueryEvent struct {
	SQL    string
	Params []any
	// Type is the statement keyword, e.g. SELECT
	Type string
	// TxID is set when the statement runs inside a transaction
	TxID     string
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware intercepts statements. It must call next to execute the statement.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use adds a middleware to the chain. It must not be called while statements run.
func (c *Client) Use(mw Middleware) {
	c.middlewares = append(c.middlewares, mw)
}

func (c *Client) run(ctx context.Context, event *QueryEvent, exec func() error) error {
	if len(c.middlewares) == 0 {
		return exec()
	}

	event.Start = time.Now()
	index := 0
	var next func() error
	next = func() error {
		if index >= len(c.middlewares) {
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}
		mw := c.middlewares[index]
		index++
		return mw(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware logs each statement and its outcome
func LoggingMiddleware(logger func(format string, args ...any)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		logger("executing query: %s with args: %v", event.SQL, event.Params)
		err := next()
		if err != nil {
			logger("query failed: %v", err)
		} else {
			logger("query completed in %v", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of each statement
func TimingMiddleware(onTiming func(sql string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.SQL, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements
func ErrorMiddleware(onError func(sql string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.SQL, err)
		}
		return err
	}
}

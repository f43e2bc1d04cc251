package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docsql/runtime/client"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()
	c.Record("SELECT", "SELECT 1", 10*time.Millisecond, nil)
	c.Record("SELECT", "SELECT 2", 30*time.Millisecond, nil)
	c.Record("DELETE", "DELETE FROM users", 5*time.Millisecond, errors.New("boom"))
	c.Record("", "SHOW TABLES", time.Millisecond, nil)

	snap := c.Snapshot()
	assert.Equal(t, 4, snap.Statements)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, 46*time.Millisecond, snap.Total)
	assert.Equal(t, "SHOW TABLES", snap.LastSQL)

	require.Len(t, snap.Types, 3)
	assert.Equal(t, "DELETE", snap.Types[0].Type)
	assert.Equal(t, "OTHER", snap.Types[1].Type)
	sel := snap.Types[2]
	assert.Equal(t, 2, sel.Count)
	assert.Equal(t, 20*time.Millisecond, sel.Average())
	assert.Equal(t, 30*time.Millisecond, sel.Max)
}

func TestCollectorMiddleware(t *testing.T) {
	c := NewCollector()
	mw := c.Middleware()

	event := &client.QueryEvent{SQL: "UPDATE users SET a = ?", Type: "UPDATE", Duration: time.Second}
	err := mw(context.Background(), event, func() error { return nil })
	require.NoError(t, err)

	failure := errors.New("locked")
	err = mw(context.Background(), event, func() error { return failure })
	assert.ErrorIs(t, err, failure)

	snap := c.Snapshot()
	require.Len(t, snap.Types, 1)
	assert.Equal(t, 2, snap.Types[0].Count)
	assert.Equal(t, 1, snap.Types[0].Errors)

	c.Reset()
	assert.Zero(t, c.Snapshot().Statements)
	assert.Equal(t, TypeStats{}.Average(), time.Duration(0))
}

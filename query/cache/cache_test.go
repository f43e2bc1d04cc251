package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](2, 0)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used
	c.Set("c", 3, 0)
	_, ok = c.Get("b")
	assert.False(t, ok)

	v, ok = c.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string](4, 0)
	c.Set("k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestLRUInvalidateAndClear(t *testing.T) {
	c := NewLRU[string](4, time.Minute)
	c.Set("a", "1", 0)
	c.Set("b", "2", 0)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, Stats{MaxSize: 4}, c.Stats())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("SELECT * FROM users WHERE id = :id")
	b := Fingerprint("SELECT * FROM users WHERE id = :id")
	c := Fingerprint("SELECT * FROM users WHERE id = :uid")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("sql_")+16)
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRunsOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 1"), 0644))

	var calls atomic.Int32
	w, err := NewWatcher(file, func() error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(file, []byte("SELECT 2"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	// other files in the directory are ignored
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.sql"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

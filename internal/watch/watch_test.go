package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.yaml")
	require.NoError(t, os.WriteFile(file, []byte("table: users\n"), 0o644))

	var runs atomic.Int32
	w, err := NewWatcher(file, 20*time.Millisecond, func(_ context.Context, path string) error {
		assert.Equal(t, file, path)
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	t.Run("Burst of writes reloads once", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, os.WriteFile(file, []byte("table: orders\n"), 0o644))
		}
		require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(2), runs.Load())
	})

	t.Run("Other files are ignored", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(2), runs.Load())
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherInitialError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	boom := errors.New("bad state")
	w, err := NewWatcher(file, 0, func(context.Context, string) error { return boom })
	require.NoError(t, err)
	assert.Equal(t, file, w.File())
	assert.ErrorIs(t, w.Run(context.Background()), boom)
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "state.yaml"), 0, nil)
	assert.Error(t, err)
}

package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, fired *atomic.Int32) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	w, err := New(Options{
		Root:     root,
		Debounce: 50 * time.Millisecond,
		OnChange: func() { fired.Add(1) },
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close() //nolint:errcheck // Test cleanup
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_FiresOnNewFile(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, root, &fired)

	require.NoError(t, os.WriteFile(filepath.Join(root, "Portal (2007).zip"), []byte("x"), 0644))

	waitFor(t, func() bool { return fired.Load() >= 1 })
}

func TestWatcher_DebouncesEventBursts(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, root, &fired)

	for i := 0; i < 10; i++ {
		name := filepath.Join(root, "game"+string(rune('a'+i))+".zip")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	}

	waitFor(t, func() bool { return fired.Load() >= 1 })

	// The burst settles into one, maybe two callbacks, never ten.
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, fired.Load(), int32(2))
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, root, &fired)

	sub := filepath.Join(root, "Shooters")
	require.NoError(t, os.Mkdir(sub, 0755))
	waitFor(t, func() bool { return fired.Load() >= 1 })

	before := fired.Load()
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "DOOM (1993).zip"), []byte("x"), 0644))

	waitFor(t, func() bool { return fired.Load() > before })
}

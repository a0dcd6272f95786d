package watcher

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
	"go.uber.org/zap/zaptest"
)

func TestIsMediaFile(t *testing.T) {
	tests := map[string]bool{
		"talk.mp4":         true,
		"/tmp/clip.MOV":    true,
		"episode.webm":     true,
		"voice.wav":        true,
		"notes.txt":        false,
		"transcript":       false,
		"archive.mp4.part": false,
	}

	for path, want := range tests {
		assert.Equal(t, want, IsMediaFile(path), path)
	}
}

func TestWatcherHandlesNewMediaFiles(t *testing.T) {
	dir := t.TempDir()
	handled := make(chan string, 4)

	w, err := New(dir, func(ctx context.Context, path string) error {
		handled <- path
		return nil
	}, 1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Stop()
	w.settleDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// fsnotify only reports files created after the watch is registered
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	video := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0o644))

	select {
	case path := <-handled:
		assert.Equal(t, video, path)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for handler")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Watcher did not stop")
	}

	assert.Empty(t, handled, "non-media files must be ignored")
}

func TestWatcherLimitsConcurrency(t *testing.T) {
	dir := t.TempDir()
	var running, peak atomic.Int32
	finished := make(chan struct{}, 3)

	w, err := New(dir, func(ctx context.Context, path string) error {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
		finished <- struct{}{}
		return errors.New("handler failures are only logged")
	}, 1, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Stop()
	w.settleDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	for _, name := range []string{"a.mp4", "b.mkv", "c.mov"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for handler %d", i+1)
		}
	}

	cancel()
	<-done

	assert.Equal(t, int32(1), peak.Load())
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, 1, zaptest.NewLogger(t))
	assert.Error(t, err)
}

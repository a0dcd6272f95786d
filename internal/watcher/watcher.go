package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultSettleDelay = 500 * time.Millisecond

// Handler processes a newly created media file
type Handler func(ctx context.Context, path string) error

var mediaExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".m4v": true, ".flv": true, ".mp3": true, ".wav": true, ".m4a": true,
}

// Watcher runs a handler for every media file created in a directory
type Watcher struct {
	dir           string
	handler       Handler
	logger        *zap.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	settleDelay   time.Duration
	wg            sync.WaitGroup
}

// New creates a watcher on dir running at most maxConcurrent handlers at once
func New(dir string, handler Handler, maxConcurrent int, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		logger.Info("Using default max concurrent", zap.Int("maxConcurrent", 2))
		maxConcurrent = 2
	}

	return &Watcher{
		dir:           dir,
		handler:       handler,
		logger:        logger,
		watcher:       fsw,
		maxConcurrent: maxConcurrent,
		semaphore:     make(chan struct{}, maxConcurrent),
		settleDelay:   defaultSettleDelay,
	}, nil
}

// Start blocks until ctx is done, then waits for running handlers
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("File watcher started",
		zap.String("dir", w.dir),
		zap.Int("maxConcurrent", w.maxConcurrent))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Waiting for ongoing processing to complete")
			w.wg.Wait()
			w.logger.Info("File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !IsMediaFile(event.Name) {
				w.logger.Debug("Ignoring non-media file", zap.String("path", event.Name))
				continue
			}

			w.logger.Info("New media file detected", zap.String("path", event.Name))

			// Let the writer finish before handing the file over
			select {
			case <-time.After(w.settleDelay):
			case <-ctx.Done():
				continue
			}

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(path string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					if err := w.handler(ctx, path); err != nil {
						w.logger.Error("Failed to process file", zap.String("path", path), zap.Error(err))
					}
				}(event.Name)
			case <-ctx.Done():
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// Stop closes the underlying file watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// IsMediaFile reports whether path has a supported audio or video extension
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches rapid mirror rewrites into a single evaluation.
const watchDebounce = 200 * time.Millisecond

// Watcher monitors the cookie mirror file for external credential
// invalidation: another process of the same origin clearing the access-token
// key. It is the cross-process analog of a browser storage event.
//
// Events written by the watcher's own store (matched by writer id) are
// ignored, so only genuinely external clears trigger the callback.
type Watcher struct {
	mirrorPath string
	selfID     string
	logger     *slog.Logger
	onClear    func()

	mu        sync.Mutex
	hadAccess bool
}

// NewWatcher creates a watcher over the given mirror. selfID must match the
// writer id the local store stamps into the mirror file. onClear is invoked
// once per external transition from "access token present" to "absent".
func NewWatcher(mirror *CookieMirror, selfID string, logger *slog.Logger, onClear func()) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	keys, _, err := ReadMirror(mirror.Path())
	hadAccess := false
	if err == nil {
		_, hadAccess = keys[KeyAccessToken]
	}

	return &Watcher{
		mirrorPath: mirror.Path(),
		selfID:     selfID,
		logger:     logger,
		onClear:    onClear,
		hadAccess:  hadAccess,
	}
}

// Watch blocks until ctx is cancelled, delivering external-clear
// notifications as they are observed. The mirror's directory is watched
// rather than the file itself because the store replaces the file by rename.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.mirrorPath)); err != nil {
		return fmt.Errorf("watching mirror dir: %w", err)
	}

	w.logger.Debug("mirror watcher started", slog.String("path", w.mirrorPath))

	var debounce *time.Timer
	fired := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.mirrorPath) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case fired <- struct{}{}:
				default:
				}
			})

		case <-fired:
			w.evaluate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("mirror watcher error", "error", err)
		}
	}
}

// Poke re-evaluates the mirror immediately. Tests use it to avoid waiting on
// filesystem event delivery.
func (w *Watcher) Poke() {
	w.evaluate()
}

// evaluate serializes transitions so a clear fires the callback exactly
// once even when the debounce timer and Poke overlap.
func (w *Watcher) evaluate() {
	keys, writer, err := ReadMirror(w.mirrorPath)
	if err != nil {
		w.logger.Warn("reading mirror failed", "error", err)
		return
	}

	_, hasAccess := keys[KeyAccessToken]
	external := writer != w.selfID

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hadAccess && !hasAccess && external {
		w.logger.Info("session cleared externally", slog.String("writer", writer))
		if w.onClear != nil {
			w.onClear()
		}
	}
	w.hadAccess = hasAccess
}

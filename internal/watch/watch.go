// Package watch re-resolves settings when the secret or override files in the
// data directory change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces editor save bursts into a single reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls Reload after files named in Names change inside Dir.
type Watcher struct {
	Dir      string
	Names    []string
	Debounce time.Duration
	Reload   func() error
	Logger   *zap.Logger
}

// Run watches until ctx is cancelled. The directory is watched rather than
// the files so that atomic replace-by-rename and late creation are seen.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	logger.Info("watching data directory", zap.String("dir", w.Dir), zap.Strings("files", w.Names))

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("settings file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(debounce)

		case <-timer.C:
			if err := w.Reload(); err != nil {
				logger.Error("reload failed, keeping previous settings", zap.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return slices.Contains(w.Names, filepath.Base(ev.Name))
}

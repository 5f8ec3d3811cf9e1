package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RuleWatcher watches the rule file for changes and reloads it,
// grounded on the same fsnotify directory-watch pattern the store
// package's FileWatcher used for its persistence file.
type RuleWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	logger   *slog.Logger

	mu               sync.Mutex
	running          bool
	done             chan struct{}
	onReloadCallback func(*RuleFileConfig)
	onErrorCallback  func(error)
}

// NewRuleWatcher creates a watcher for the rule file at path.
func NewRuleWatcher(path string, logger *slog.Logger) (*RuleWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &RuleWatcher{
		watcher:  watcher,
		filePath: path,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// SetReloadCallback sets the callback invoked with the freshly parsed
// rule file after every change.
func (w *RuleWatcher) SetReloadCallback(cb func(*RuleFileConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = cb
}

// SetErrorCallback sets the callback invoked when a changed rule file
// fails to parse; the previous rule set stays in effect.
func (w *RuleWatcher) SetErrorCallback(cb func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = cb
}

// Start begins watching the rule file's directory (directory watches
// survive editors that replace the file rather than write in place).
func (w *RuleWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.filePath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()
	w.logger.Debug("rule watcher started", "path", w.filePath)
	return nil
}

func (w *RuleWatcher) watch() {
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadRuleFileConfigFrom(w.filePath)
			if err != nil {
				w.logger.Warn("rule file changed but failed to parse", "error", err)
				w.mu.Lock()
				cb := w.onErrorCallback
				w.mu.Unlock()
				if cb != nil {
					cb(err)
				}
				continue
			}

			w.logger.Info("rule file reloaded", "rules", len(cfg.Rule))
			w.mu.Lock()
			cb := w.onReloadCallback
			w.mu.Unlock()
			if cb != nil {
				cb(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rule watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher.
func (w *RuleWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}

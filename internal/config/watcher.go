package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/greencloud/reqattr/internal/observability"
)

// ReloadFunc receives the runtime settings of a reloaded configuration.
type ReloadFunc func(RuntimeConfig)

// ErrorCallback is called when watching or reloading fails.
type ErrorCallback func(error)

// Watcher follows a configuration file. Each valid rewrite hands its
// RuntimeConfig to the reload func; changes to restart-only settings are
// logged and otherwise ignored. An invalid rewrite keeps the last good
// configuration.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	onReload ReloadFunc
	onError  ErrorCallback
	logger   observability.Logger
	debounce time.Duration

	mu      sync.RWMutex
	running *Config // configuration the process started with
	current *Config
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the file must stay quiet before a reload.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = delay
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback sets the function told about watch and reload errors.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.onError = callback
	}
}

// NewWatcher creates a Watcher for the file at path.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		fs:       fs,
		onReload: onReload,
		logger:   observability.NopLogger(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the file as the running configuration and watches it until
// ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done != nil {
		return nil
	}

	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	// Editors often replace the file on save, dropping a watch on the file
	// itself.
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.running = cfg
	w.current = cfg

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)

	w.logger.Info("watching configuration file", observability.String("path", w.path))
	return nil
}

// Stop ends watching and releases the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return w.fs.Close()
}

// LastConfig returns the last configuration loaded without error.
func (w *Watcher) LastConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("config watcher stopped")
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.isConfigWrite(event) {
				quiet.Reset(w.debounce)
			}

		case <-quiet.C:
			if err := w.ForceReload(); err != nil {
				w.logger.Error("failed to reload configuration, keeping previous",
					observability.String("path", w.path),
					observability.Error(err),
				)
				w.notifyError(err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", observability.Error(err))
			w.notifyError(err)
		}
	}
}

func (w *Watcher) isConfigWrite(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == w.path &&
		event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) notifyError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// ForceReload loads the file now. A valid file becomes the last
// configuration and its runtime settings go to the reload func; restart-only
// differences from the running configuration are logged as a warning. On
// error nothing changes.
func (w *Watcher) ForceReload() error {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.running == nil {
		w.running = cfg
	}
	running := w.running
	w.current = cfg
	w.mu.Unlock()

	if fields := RestartRequired(running, cfg); len(fields) > 0 {
		w.logger.Warn("configuration changes take effect after restart",
			observability.String("path", w.path),
			observability.Strings("fields", fields),
		)
	}

	runtime := cfg.Runtime()
	w.logger.Info("configuration reloaded",
		observability.String("path", w.path),
		observability.String("log_level", runtime.LogLevel),
		observability.Bool("include_headers", runtime.IncludeHeaders),
	)
	if w.onReload != nil {
		w.onReload(runtime)
	}
	return nil
}

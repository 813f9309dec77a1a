package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher turns a drop directory into a deletion spool. Manifest files
// (.yaml or .yml) written into the directory are executed through the
// Loader and removed afterward. Writes are debounced per file so a
// manifest still being copied in is not picked up half-written.
type Watcher struct {
	loader *Loader
	config WatcherConfig
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	running bool
}

// WatcherConfig contains configuration for the drop directory watcher.
type WatcherConfig struct {
	// DropDir is the directory to watch.
	DropDir string

	// DebounceInterval is the quiet period after the last write event
	// before a manifest is executed.
	// Default: 200ms
	DebounceInterval time.Duration
}

// NewWatcher creates a Watcher for the given drop directory.
func NewWatcher(cfg WatcherConfig, loader *Loader, logger *slog.Logger) (*Watcher, error) {
	if cfg.DropDir == "" {
		return nil, fmt.Errorf("drop directory cannot be empty")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		loader:  loader,
		config:  cfg,
		logger:  logger.With("component", "bulk.watcher"),
		pending: map[string]*time.Timer{},
	}, nil
}

// Watch blocks processing drop directory events until ctx is cancelled.
// Manifests already present when Watch starts are executed first.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.DropDir); err != nil {
		return fmt.Errorf("failed to watch drop directory %q: %w", w.config.DropDir, err)
	}

	w.logger.Info("bulk deletion watcher started",
		"drop_dir", w.config.DropDir,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	w.drainExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("bulk deletion watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !isManifestFile(event.Name) {
				continue
			}
			w.scheduleRun(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// drainExisting executes manifests already sitting in the drop directory.
func (w *Watcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.config.DropDir)
	if err != nil {
		w.logger.Error("failed to read drop directory", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		w.runManifest(ctx, filepath.Join(w.config.DropDir, entry.Name()))
	}
}

// scheduleRun (re)arms the per-file debounce timer.
func (w *Watcher) scheduleRun(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.runManifest(ctx, path)
	})
}

// runManifest executes one manifest file and removes it afterward.
func (w *Watcher) runManifest(ctx context.Context, path string) {
	result, err := w.loader.RunFile(ctx, path)
	if err != nil {
		w.logger.Error("failed to execute deletion manifest", "path", path, "error", err)
		return
	}

	w.logger.Info("deletion manifest executed",
		"path", path,
		"deleted", result.Deleted(),
		"failed", result.Failed(),
	)

	if err := os.Remove(path); err != nil {
		w.logger.Warn("failed to remove processed manifest", "path", path, "error", err)
	}
}

func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

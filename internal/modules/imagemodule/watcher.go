package imagemodule

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Watcher evicts cache entries whose backing file in the managed image
// directory is removed or rewritten outside the store, keeping the
// cache consistent with disk without ever affecting correctness (a
// dropped entry is just a re-read).
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cache     *Cache
	logger    hclog.Logger
	done      chan struct{}
}

// NewWatcher watches imageDir and evicts stale entries from the cache
func NewWatcher(imageDir string, cache *Cache, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsWatcher.Add(imageDir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch image directory: %w", err)
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		cache:     cache,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start begins processing filesystem events until Close is called
func (w *Watcher) Start() {
	go w.run()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			ref := filepath.Base(event.Name)
			if !IsGeneratedRef(ref) {
				continue
			}
			w.cache.Remove(ref)
			w.logger.Debug("evicted cache entry after filesystem change", "reference", ref, "op", event.Op.String())
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsWatcher.Close()
}

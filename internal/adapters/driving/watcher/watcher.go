package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before its change is applied.
const DefaultDebounce = 300 * time.Millisecond

var errClosed = errors.New("watcher: closed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before changes are applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMIMETypes restricts the watcher to files of the given types.
// Without it every regular file is considered.
func WithMIMETypes(types []string) Option {
	return func(w *Watcher) {
		w.mimeTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			w.mimeTypes[strings.ToLower(t)] = struct{}{}
		}
	}
}

// WithIndexOptions sets the upload details used for every indexed file.
func WithIndexOptions(opts driving.IndexOptions) Option {
	return func(w *Watcher) {
		w.indexOpts = opts
	}
}

// Watcher applies file changes under a root directory to the index.
type Watcher struct {
	root      string
	docs      driving.DocumentService
	debounce  time.Duration
	mimeTypes map[string]struct{}
	indexOpts driving.IndexOptions

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a watcher for root.
func New(root string, docs driving.DocumentService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		docs:     docs,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Watch starts watching root and its subdirectories.
// The returned channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.DocumentChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errClosed
	}
	if err := checkRoot(w.root); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watcher = fsw

	changes := make(chan domain.DocumentChange, 64)
	go w.forward(ctx, fsw, changes)
	return changes, nil
}

// Run watches root and applies changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	pending := make(map[string]domain.ChangeType)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errClosed
			}
			pending[change.Path] = change.Type
			timer.Reset(w.debounce)
		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]domain.ChangeType)
		}
	}
}

// Sync reprocesses every matching file under root.
// Returns the number of files indexed.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	if err := checkRoot(w.root); err != nil {
		return 0, err
	}

	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("watcher: walk %s: %w", w.root, err)
	}

	indexed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := w.Apply(ctx, domain.DocumentChange{Type: domain.ChangeUpdated, Path: path}); err != nil {
			logger.Warn("Sync %s: %v", path, err)
			continue
		}
		indexed++
	}
	logger.Info("Synced %d of %d files under %s", indexed, len(paths), w.root)
	return indexed, nil
}

// Apply updates the index for one change.
func (w *Watcher) Apply(ctx context.Context, change domain.DocumentChange) error {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		opts := w.indexOpts
		opts.OriginalFilename = ""
		added, err := w.docs.ReprocessFile(ctx, change.Path, change.Path, opts)
		if err != nil {
			return err
		}
		logger.Debug("Indexed %s (%s): %d chunks", change.Path, change.Type, added)
		return nil
	case domain.ChangeDeleted:
		removed, err := w.docs.RemoveDocument(ctx, change.Path)
		if err != nil {
			return err
		}
		logger.Debug("Removed %s: %d chunks", change.Path, removed)
		return nil
	default:
		return fmt.Errorf("%w: change type %d", domain.ErrInvalidInput, change.Type)
	}
}

// Close stops watching. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}

func (w *Watcher) flush(ctx context.Context, pending map[string]domain.ChangeType) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		change := domain.DocumentChange{Type: pending[path], Path: path}
		if err := w.Apply(ctx, change); err != nil {
			logger.Warn("Apply %s %s: %v", change.Type, path, err)
		}
	}
}

// forward translates fsnotify events until ctx is done or the watcher closes.
func (w *Watcher) forward(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.DocumentChange) {
	defer close(out)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			change, ok := w.translate(fsw, event)
			if !ok {
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

func (w *Watcher) translate(fsw *fsnotify.Watcher, event fsnotify.Event) (domain.DocumentChange, bool) {
	path := event.Name
	if isHidden(path) {
		return domain.DocumentChange{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := addTree(fsw, path); err != nil {
				logger.Warn("Watch %s: %v", path, err)
			}
			return domain.DocumentChange{}, false
		}
		if !w.accepts(path) {
			return domain.DocumentChange{}, false
		}
		return domain.DocumentChange{Type: domain.ChangeCreated, Path: path}, true
	case event.Has(fsnotify.Write):
		if !w.accepts(path) {
			return domain.DocumentChange{}, false
		}
		return domain.DocumentChange{Type: domain.ChangeUpdated, Path: path}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.matchesType(path) {
			return domain.DocumentChange{}, false
		}
		return domain.DocumentChange{Type: domain.ChangeDeleted, Path: path}, true
	default:
		return domain.DocumentChange{}, false
	}
}

// accepts reports whether path is a regular file of a watched type.
func (w *Watcher) accepts(path string) bool {
	if isHidden(path) || !w.matchesType(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (w *Watcher) matchesType(path string) bool {
	if w.mimeTypes == nil {
		return true
	}
	_, ok := w.mimeTypes[domain.MIMETypeForPath(path)]
	return ok
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watcher: root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watcher: root path error: %s is not a directory", root)
	}
	return nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watcher: add %s: %w", path, err)
		}
		return nil
	})
}

// isHidden matches dotfiles and editor backup files.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}

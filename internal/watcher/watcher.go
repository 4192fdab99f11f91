// Package watcher observes a directory tree for filesystem changes and
// triggers full re-renders, discarding events caused by the renderer's own
// output files.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/cardeck/cardeck/internal/logging"
)

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if an event's path should be acted on.
type FileFilter func(path string) bool

// ChangeHandler handles a batch of debounced file change events. Handlers
// run one at a time on the watch goroutine: two rapid bursts produce two
// sequential invocations, never overlapping ones.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// FileWatcher watches a directory tree, debounces rapid event bursts, and
// dispatches batches to registered handlers after dropping self-owned
// output paths and ignored files.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	registry  *Registry
	filters   []FileFilter
	handlers  []ChangeHandler
	log       logging.Logger
	mutex     sync.RWMutex
}

// NewFileWatcher creates a file watcher. Events on paths in registry are
// discarded before they reach any handler.
func NewFileWatcher(debounceDelay time.Duration, registry *Registry, log logging.Logger) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher: fsw,
		debouncer: &debouncer{
			delay:  debounceDelay,
			events: make(chan ChangeEvent, 100),
			output: make(chan []ChangeEvent, 10),
		},
		registry: registry,
		log:      log,
	}, nil
}

// Registry returns the output registry consulted for self-event
// suppression.
func (fw *FileWatcher) Registry() *Registry {
	return fw.registry
}

// AddFilter adds a file filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive adds root and all its subdirectories to the watch set.
func (fw *FileWatcher) AddRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.watcher.Add(path)
		}

		return nil
	})
}

// Start launches the watch, debounce, and dispatch goroutines. They run
// until ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.run(ctx)
	go fw.dispatch(ctx)
	go fw.watchLoop(ctx)
}

// Stop closes the underlying watcher.
func (fw *FileWatcher) Stop() error {
	fw.debouncer.stop()

	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn(ctx, err, "watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Self-write suppression: output documents are never triggering
	// inputs.
	if fw.registry != nil && fw.registry.Contains(event.Name) {
		fw.log.Debug(ctx, "ignoring own output", "path", event.Name)
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	// New directories must join the watch set or changes inside them go
	// unseen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.log.Warn(ctx, err, "watching new directory", "path", event.Name)
			}
		}
	}

	change := ChangeEvent{
		Type: eventType(event.Op),
		Path: event.Name,
	}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
	}

	fw.log.Debug(ctx, "file event", "path", event.Name, "kind", change.Type.String())

	select {
	case fw.debouncer.events <- change:
	default:
		// Channel full under extreme churn; the pending batch will
		// trigger a full re-render anyway.
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create != 0:
		return EventTypeCreated
	case op&fsnotify.Write != 0:
		return EventTypeModified
	case op&fsnotify.Remove != 0:
		return EventTypeDeleted
	case op&fsnotify.Rename != 0:
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.log.Error(ctx, err, "change handler failed")
				}
			}
		}
	}
}

// debouncer groups rapid file changes into one batch.
type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.add(event)
		}
	}
}

func (d *debouncer) add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Deduplicate by path, keeping the last event for each.
	byPath := make(map[string]ChangeEvent, len(d.pending))
	order := make([]string, 0, len(d.pending))
	for _, event := range d.pending {
		if _, seen := byPath[event.Path]; !seen {
			order = append(order, event.Path)
		}
		byPath[event.Path] = event
	}

	batch := make([]ChangeEvent, 0, len(order))
	for _, path := range order {
		batch = append(batch, byPath[path])
	}

	select {
	case d.output <- batch:
	default:
	}

	d.pending = d.pending[:0]
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// IgnoreFilter builds a filter that drops paths matching any of the given
// doublestar glob patterns.
func IgnoreFilter(patterns []string) FileFilter {
	return func(path string) bool {
		slashed := filepath.ToSlash(path)
		for _, pattern := range patterns {
			if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
				return false
			}
			// Also match against the bare filename so "*.tmp" style
			// patterns work regardless of directory depth.
			if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
				return false
			}
		}

		return true
	}
}

// NoTempFilter drops editor temp and backup files.
func NoTempFilter(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".cardeck-") && strings.HasSuffix(base, ".tmp") {
		return false
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}

	return true
}

// NoGitFilter drops anything under a .git directory.
func NoGitFilter(path string) bool {
	slashed := filepath.ToSlash(path)

	return !strings.HasPrefix(slashed, ".git/") && !strings.Contains(slashed, "/.git/")
}

package watcher

import (
	"path/filepath"
	"sync"
)

// Registry is the set of paths the system itself writes. Events on these
// paths must never trigger a render, or every pass would schedule the
// next one. Paths are normalized on the way in so the comparison survives
// relative/absolute and symlinked variants of the same file.
type Registry struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// NewRegistry creates an empty output registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]struct{})}
}

// Add registers a path as system-owned output. Both the absolute and the
// symlink-resolved form are stored, since the output file may not exist
// yet at registration time.
func (r *Registry) Add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[normalize(path)] = struct{}{}
	if resolved, err := filepath.EvalSymlinks(normalize(path)); err == nil {
		r.paths[resolved] = struct{}{}
	}
}

// Contains reports whether path is a registered output.
func (r *Registry) Contains(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	norm := normalize(path)
	if _, ok := r.paths[norm]; ok {
		return true
	}
	if resolved, err := filepath.EvalSymlinks(norm); err == nil {
		if _, ok := r.paths[resolved]; ok {
			return true
		}
	}

	return false
}

// Paths returns a snapshot of the registered paths.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}

	return out
}

func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// Package session holds per-session mutable state shared across tool calls.
package session

import (
	"slices"
	"sync"
)

// Tracker records which files have been read during the current session.
// It is the safety oracle for the read-before-write rule: a file that
// already exists must have been observed before a tool may edit or
// overwrite it, so the model never clobbers content it has not seen.
//
// Tracker is instance-based rather than global so tests and concurrent
// sessions get independent state. Within the executor all access is
// single-threaded; the mutex protects against callers outside this core
// (an IPC trigger, a future UI thread).
type Tracker struct {
	mu    sync.Mutex
	reads map[string]struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{reads: make(map[string]struct{})}
}

// RecordRead marks path as read for the rest of the session.
// Paths should be in resolved absolute form so lookups are exact.
func (t *Tracker) RecordRead(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads[path] = struct{}{}
}

// WasRead reports whether path has been read this session.
func (t *Tracker) WasRead(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.reads[path]
	return ok
}

// Clear forgets all recorded reads. Used when a new session starts.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads = make(map[string]struct{})
}

// All returns a sorted copy of the recorded paths.
func (t *Tracker) All() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.reads))
	for p := range t.reads {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

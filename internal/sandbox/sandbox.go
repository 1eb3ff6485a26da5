// Package sandbox confines tool file access to a single directory tree.
// The root is fixed at session start (normally the working directory) and
// every path a tool wants to touch is checked against it before any
// filesystem operation happens.
package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for sandbox rejections.
var (
	// ErrParentTraversal is returned for paths containing a ".." segment.
	ErrParentTraversal = errors.New("sandbox: path contains parent traversal")

	// ErrOutsideRoot is returned when a resolved path escapes the root.
	ErrOutsideRoot = errors.New("sandbox: path is outside the sandbox root")
)

// Checker decides whether a path may be touched by a tool.
// It is immutable after creation; the root never changes for the session.
type Checker struct {
	root     string
	disabled bool
}

// New creates a Checker rooted at root. If disabled is true, every path
// is permitted (the --no-sandbox escape hatch).
func New(root string, disabled bool) (*Checker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving root %s: %w", root, err)
	}
	return &Checker{root: filepath.Clean(abs), disabled: disabled}, nil
}

// Root returns the absolute sandbox root.
func (c *Checker) Root() string { return c.root }

// Disabled reports whether sandbox enforcement is turned off.
func (c *Checker) Disabled() bool { return c.disabled }

// Resolve returns the absolute form of path. Relative paths are resolved
// against the sandbox root, not the process working directory, so the
// result is stable even if the process later chdirs.
func (c *Checker) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.root, path)
}

// Check validates path against the sandbox and returns its resolved
// absolute form. The resolved path is returned even on rejection so
// callers can show the user exactly what was denied and why.
func (c *Checker) Check(path string) (string, error) {
	resolved := c.Resolve(path)
	if c.disabled {
		return resolved, nil
	}

	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return resolved, fmt.Errorf("%w: %q", ErrParentTraversal, path)
		}
	}

	if resolved == c.root || strings.HasPrefix(resolved, c.root+string(filepath.Separator)) {
		return resolved, nil
	}
	return resolved, fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, resolved, c.root)
}

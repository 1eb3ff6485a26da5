package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/tool"
)

// ListDir lists a directory inside the sandbox. Directories get a
// trailing separator so the model can tell them from files.
type ListDir struct {
	sandbox *sandbox.Checker
}

// NewListDir creates the list_dir tool.
func NewListDir(sb *sandbox.Checker) *ListDir {
	return &ListDir{sandbox: sb}
}

// Name implements tool.Tool.
func (l *ListDir) Name() string { return "list_dir" }

// Description implements tool.Tool.
func (l *ListDir) Description() string {
	return "List the entries of a directory. Directories are suffixed with a slash."
}

// Schema implements tool.Tool.
func (l *ListDir) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Directory to list; defaults to the working directory"}
		}
	}`)
}

// Category implements tool.Tool.
func (l *ListDir) Category() tool.Category { return tool.CategoryInternal }

// AutoApproved implements tool.Tool.
func (l *ListDir) AutoApproved() bool { return true }

// FormatArguments implements tool.ArgumentFormatter.
func (l *ListDir) FormatArguments(args map[string]any) string {
	if p := stringArg(args, "path"); p != "" {
		return p
	}
	return "."
}

// Execute implements tool.Tool.
func (l *ListDir) Execute(_ context.Context, args map[string]any) (tool.Output, error) {
	path := stringArg(args, "path")
	if path == "" {
		path = "."
	}

	resolved, err := l.sandbox.Check(path)
	if err != nil {
		return tool.Output{}, err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return tool.Output{}, fmt.Errorf("listing %s: %w", resolved, err)
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name())
		if e.IsDir() {
			b.WriteByte(os.PathSeparator)
		}
		b.WriteByte('\n')
	}

	listing := b.String()
	if listing == "" {
		listing = "(empty directory)"
	}

	return tool.Output{
		Friendly: fmt.Sprintf("Listed %d entries in %s", len(entries), path),
		Fields: []tool.Field{
			{Key: "entries", Value: listing},
		},
	}, nil
}

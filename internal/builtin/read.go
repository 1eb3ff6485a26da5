package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/session"
	"github.com/flemzord/wrench/internal/tool"
)

// maxReadBytes bounds how much file content a single read returns.
// Larger files must be read by other means (shell, ranged tooling).
const maxReadBytes = 1 << 20 // 1 MiB

// ReadFile reads a file inside the sandbox and records it in the
// session tracker, unlocking later edits of the same path.
type ReadFile struct {
	sandbox *sandbox.Checker
	tracker *session.Tracker
}

// NewReadFile creates the read_file tool.
func NewReadFile(sb *sandbox.Checker, tr *session.Tracker) *ReadFile {
	return &ReadFile{sandbox: sb, tracker: tr}
}

// Name implements tool.Tool.
func (r *ReadFile) Name() string { return "read_file" }

// Description implements tool.Tool.
func (r *ReadFile) Description() string {
	return "Read the contents of a file. Must be called before editing or overwriting an existing file."
}

// Schema implements tool.Tool.
func (r *ReadFile) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file, relative to the working directory or absolute"}
		},
		"required": ["file_path"]
	}`)
}

// Category implements tool.Tool.
func (r *ReadFile) Category() tool.Category { return tool.CategoryInternal }

// AutoApproved implements tool.Tool. Reading is side-effect free.
func (r *ReadFile) AutoApproved() bool { return true }

// ValidateArguments implements tool.ArgumentValidator.
func (r *ReadFile) ValidateArguments(args map[string]any) error {
	_, err := requireString(args, "file_path")
	return err
}

// FormatArguments implements tool.ArgumentFormatter.
func (r *ReadFile) FormatArguments(args map[string]any) string {
	return stringArg(args, "file_path")
}

// Execute implements tool.Tool.
func (r *ReadFile) Execute(_ context.Context, args map[string]any) (tool.Output, error) {
	path, err := requireString(args, "file_path")
	if err != nil {
		return tool.Output{}, err
	}

	resolved, err := r.sandbox.Check(path)
	if err != nil {
		return tool.Output{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return tool.Output{}, fmt.Errorf("reading %s: %w", resolved, err)
	}
	if info.IsDir() {
		return tool.Output{}, fmt.Errorf("%s is a directory, not a file", resolved)
	}
	if info.Size() > maxReadBytes {
		return tool.Output{}, fmt.Errorf("%s is %d bytes, larger than the %d byte read limit", resolved, info.Size(), maxReadBytes)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tool.Output{}, fmt.Errorf("reading %s: %w", resolved, err)
	}

	r.tracker.RecordRead(resolved)

	return tool.Output{
		Friendly: fmt.Sprintf("Read %d bytes from %s", len(data), path),
		Fields: []tool.Field{
			{Key: "content", Value: string(data)},
		},
	}, nil
}

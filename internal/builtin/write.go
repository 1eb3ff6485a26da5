package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flemzord/wrench/internal/diffview"
	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/session"
	"github.com/flemzord/wrench/internal/tool"
)

// WriteFile writes full file contents. Creating a new file is always
// approvable; overwriting a file the session never read is flagged so
// the approval gate refuses it.
type WriteFile struct {
	sandbox *sandbox.Checker
	tracker *session.Tracker
}

// NewWriteFile creates the write_file tool.
func NewWriteFile(sb *sandbox.Checker, tracker *session.Tracker) *WriteFile {
	return &WriteFile{sandbox: sb, tracker: tracker}
}

// Name implements tool.Tool.
func (w *WriteFile) Name() string { return "write_file" }

// Description implements tool.Tool.
func (w *WriteFile) Description() string {
	return "Write content to a file, creating it if needed. Overwriting requires the file to have been read first."
}

// Schema implements tool.Tool.
func (w *WriteFile) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path of the file to write"},
			"content": {"type": "string", "description": "Full new contents of the file"}
		},
		"required": ["file_path", "content"]
	}`)
}

// Category implements tool.Tool.
func (w *WriteFile) Category() tool.Category { return tool.CategoryInternal }

// AutoApproved implements tool.Tool.
func (w *WriteFile) AutoApproved() bool { return false }

// ValidateArguments implements tool.ArgumentValidator.
func (w *WriteFile) ValidateArguments(args map[string]any) error {
	if _, err := requireString(args, "file_path"); err != nil {
		return err
	}
	if _, ok := args["content"]; !ok {
		return fmt.Errorf("%w: %q is required", tool.ErrInvalidArguments, "content")
	}
	return nil
}

// FormatArguments implements tool.ArgumentFormatter.
func (w *WriteFile) FormatArguments(args map[string]any) string {
	return stringArg(args, "file_path")
}

// Preview implements tool.Previewer.
func (w *WriteFile) Preview(args map[string]any) tool.Preview {
	path := stringArg(args, "file_path")
	content := stringArg(args, "content")

	resolved, err := w.sandbox.Check(path)
	if err != nil {
		return tool.Blocked("write "+path, err.Error())
	}

	// Stat before reading: an existing file that cannot be read must
	// block the write, not masquerade as a new file and skip the
	// unread-overwrite gate.
	old := ""
	exists := false
	if info, statErr := os.Stat(resolved); statErr == nil {
		if info.IsDir() {
			return tool.Blocked("write "+path, fmt.Sprintf("%s is a directory, not a file", path))
		}
		exists = true
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			return tool.Blocked("write "+path, fmt.Sprintf("cannot read existing %s: %v", path, readErr))
		}
		old = string(data)
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return tool.Blocked("write "+path, fmt.Sprintf("checking %s: %v", path, statErr))
	}

	diff := diffview.Compare(old, content, path)
	if diff.ExitCode == diffview.ExitError {
		return tool.Blocked("write "+path, diff.Text)
	}

	p := tool.Preview{
		Summary:    fmt.Sprintf("write %s (%d bytes)", path, len(content)),
		Content:    diff.Text,
		IsDiff:     true,
		CanApprove: diff.HasChanges,
	}
	if !diff.HasChanges {
		p.Content = "No changes: file already has this content."
		p.IsDiff = false
		return p
	}
	if exists && !w.tracker.WasRead(resolved) {
		p.Warning = fmt.Sprintf("%s exists but was not read this session; read it before overwriting", path)
		p.CanApprove = false
	}
	return p
}

// Execute implements tool.Tool.
func (w *WriteFile) Execute(_ context.Context, args map[string]any) (tool.Output, error) {
	path, err := requireString(args, "file_path")
	if err != nil {
		return tool.Output{}, err
	}
	content := stringArg(args, "content")

	resolved, err := w.sandbox.Check(path)
	if err != nil {
		return tool.Output{}, err
	}

	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tool.Output{}, fmt.Errorf("creating parent directory: %w", err)
		}
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return tool.Output{}, fmt.Errorf("writing %s: %w", resolved, err)
	}

	// The session now knows the file's contents.
	w.tracker.RecordRead(resolved)

	return tool.Output{
		Friendly: fmt.Sprintf("Wrote %d bytes to %s", len(content), path),
		Fields: []tool.Field{
			{Key: "result", Value: fmt.Sprintf("Write completed: %s (%d bytes)", path, len(content))},
		},
	}, nil
}

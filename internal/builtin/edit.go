package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/flemzord/wrench/internal/diffview"
	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/session"
	"github.com/flemzord/wrench/internal/tool"
)

// EditFile replaces every occurrence of a string in a file. The file
// must have been read this session before it can be edited.
type EditFile struct {
	sandbox *sandbox.Checker
	tracker *session.Tracker
}

// NewEditFile creates the edit_file tool.
func NewEditFile(sb *sandbox.Checker, tracker *session.Tracker) *EditFile {
	return &EditFile{sandbox: sb, tracker: tracker}
}

// Name implements tool.Tool.
func (e *EditFile) Name() string { return "edit_file" }

// Description implements tool.Tool.
func (e *EditFile) Description() string {
	return "Replace all occurrences of old_string with new_string in a file. The file must have been read first."
}

// Schema implements tool.Tool.
func (e *EditFile) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path of the file to edit"},
			"old_string": {"type": "string", "description": "Exact text to replace"},
			"new_string": {"type": "string", "description": "Replacement text"}
		},
		"required": ["file_path", "old_string", "new_string"]
	}`)
}

// Category implements tool.Tool.
func (e *EditFile) Category() tool.Category { return tool.CategoryInternal }

// AutoApproved implements tool.Tool.
func (e *EditFile) AutoApproved() bool { return false }

// ValidateArguments implements tool.ArgumentValidator.
func (e *EditFile) ValidateArguments(args map[string]any) error {
	if _, err := requireString(args, "file_path"); err != nil {
		return err
	}
	if _, err := requireString(args, "old_string"); err != nil {
		return err
	}
	if _, ok := args["new_string"]; !ok {
		return fmt.Errorf("%w: %q is required", tool.ErrInvalidArguments, "new_string")
	}
	return nil
}

// FormatArguments implements tool.ArgumentFormatter.
func (e *EditFile) FormatArguments(args map[string]any) string {
	return stringArg(args, "file_path")
}

// Preview implements tool.Previewer.
func (e *EditFile) Preview(args map[string]any) tool.Preview {
	path := stringArg(args, "file_path")
	oldStr := stringArg(args, "old_string")
	newStr := stringArg(args, "new_string")

	resolved, err := e.sandbox.Check(path)
	if err != nil {
		return tool.Blocked("edit "+path, err.Error())
	}

	if !e.tracker.WasRead(resolved) {
		return tool.Blocked("edit "+path,
			fmt.Sprintf("%s was not read this session; read it before editing", path))
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tool.Blocked("edit "+path, fmt.Sprintf("reading %s: %v", path, err))
	}
	content := string(data)

	if !strings.Contains(content, oldStr) {
		return tool.Blocked("edit "+path,
			fmt.Sprintf("old_string not found in %s; it must match the file exactly", path))
	}

	updated := strings.ReplaceAll(content, oldStr, newStr)
	diff := diffview.Compare(content, updated, path)
	if diff.ExitCode == diffview.ExitError {
		return tool.Blocked("edit "+path, diff.Text)
	}

	p := tool.Preview{
		Summary:    fmt.Sprintf("edit %s (%d occurrences)", path, strings.Count(content, oldStr)),
		Content:    diff.Text,
		IsDiff:     true,
		CanApprove: diff.HasChanges,
	}
	if !diff.HasChanges {
		p.Content = "No changes: replacement produces identical content."
		p.IsDiff = false
	}
	return p
}

// Execute implements tool.Tool.
func (e *EditFile) Execute(_ context.Context, args map[string]any) (tool.Output, error) {
	path, err := requireString(args, "file_path")
	if err != nil {
		return tool.Output{}, err
	}
	oldStr, err := requireString(args, "old_string")
	if err != nil {
		return tool.Output{}, err
	}
	newStr := stringArg(args, "new_string")

	resolved, err := e.sandbox.Check(path)
	if err != nil {
		return tool.Output{}, err
	}

	if !e.tracker.WasRead(resolved) {
		return tool.Output{}, fmt.Errorf("%s was not read this session; read it before editing", path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tool.Output{}, fmt.Errorf("reading %s: %w", resolved, err)
	}
	content := string(data)

	count := strings.Count(content, oldStr)
	if count == 0 {
		return tool.Output{}, fmt.Errorf("old_string not found in %s", path)
	}

	updated := strings.ReplaceAll(content, oldStr, newStr)
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return tool.Output{}, fmt.Errorf("writing %s: %w", resolved, err)
	}

	e.tracker.RecordRead(resolved)

	return tool.Output{
		Friendly: fmt.Sprintf("Edited %s (%d replacements)", path, count),
		Fields: []tool.Field{
			{Key: "result", Value: fmt.Sprintf("Edit completed: %s (%d replacements)", path, count)},
		},
	}, nil
}

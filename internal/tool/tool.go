// Package tool defines the tool interface, registry, and preview types
// for wrench. Tools are the security boundary: every action the model
// proposes goes through a registered tool, the sandbox, and the approval
// gate before it touches the filesystem or a subprocess.
package tool

import (
	"context"
	"encoding/json"
)

// Category classifies where a tool comes from.
type Category string

// Category values.
const (
	CategoryInternal Category = "internal"
	CategoryPlugin   Category = "plugin"
)

// Tool is the interface all wrench tools implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Schema returns a JSON Schema describing the tool's parameters.
	Schema() json.RawMessage

	// Category reports whether the tool is built in or plugin-provided.
	Category() Category

	// AutoApproved reports whether the tool may run without user
	// confirmation. Only tools with no side effects should return true.
	AutoApproved() bool

	// Execute runs the tool with the parsed arguments.
	Execute(ctx context.Context, args map[string]any) (Output, error)
}

// Previewer is implemented by tools that can describe their effect before
// execution. The executor displays the preview and consults CanApprove
// before the approval gate; a non-approvable preview short-circuits the
// call entirely.
type Previewer interface {
	Preview(args map[string]any) Preview
}

// ArgumentValidator is implemented by tools that check their arguments
// up front. Validation failures become soft tool results, never panics.
type ArgumentValidator interface {
	ValidateArguments(args map[string]any) error
}

// ArgumentFormatter is implemented by tools that can render their
// arguments as a short human-readable line for prompts and audit logs.
type ArgumentFormatter interface {
	FormatArguments(args map[string]any) string
}

// Output is the successful result of a tool execution, before the
// formatter turns it into the two audience-specific views.
type Output struct {
	// Friendly is the one-line human summary shown in the terminal.
	Friendly string

	// Fields are the labeled sections that make up the model-facing view,
	// in the order they should appear.
	Fields []Field
}

// Field is one labeled section of a tool output.
type Field struct {
	Key   string
	Value string

	// DisplayOnly marks terminal-only fields that are omitted from the
	// model view.
	DisplayOnly bool
}

// TextOutput builds an Output with a friendly line and a single
// model-facing field. Most tools need nothing more.
func TextOutput(friendly, key, value string) Output {
	return Output{
		Friendly: friendly,
		Fields:   []Field{{Key: key, Value: value}},
	}
}

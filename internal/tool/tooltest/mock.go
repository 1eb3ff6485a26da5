// Package tooltest provides test helpers and mocks for the tool package.
package tooltest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flemzord/wrench/internal/tool"
)

// MockTool is a configurable mock implementation of tool.Tool.
// The zero value is a usable read-only, auto-approved tool named
// "mock-tool" that returns "ok".
type MockTool struct {
	NameValue    string
	AutoApprove  bool
	CategoryVal  tool.Category
	SchemaValue  json.RawMessage
	ExecuteFunc  func(ctx context.Context, args map[string]any) (tool.Output, error)
	ValidateFunc func(args map[string]any) error

	mu           sync.Mutex
	ExecuteCalls int
}

// Name implements tool.Tool.
func (m *MockTool) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock-tool"
}

// Description implements tool.Tool.
func (m *MockTool) Description() string { return "a mock tool" }

// Schema implements tool.Tool.
func (m *MockTool) Schema() json.RawMessage {
	if m.SchemaValue != nil {
		return m.SchemaValue
	}
	return json.RawMessage(`{"type":"object"}`)
}

// Category implements tool.Tool.
func (m *MockTool) Category() tool.Category {
	if m.CategoryVal != "" {
		return m.CategoryVal
	}
	return tool.CategoryInternal
}

// AutoApproved implements tool.Tool.
func (m *MockTool) AutoApproved() bool { return m.AutoApprove }

// Execute implements tool.Tool, counting calls.
func (m *MockTool) Execute(ctx context.Context, args map[string]any) (tool.Output, error) {
	m.mu.Lock()
	m.ExecuteCalls++
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return tool.TextOutput("ok", "result", "ok"), nil
}

// Calls returns how many times Execute ran.
func (m *MockTool) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// MockPreviewTool is a MockTool that also implements tool.Previewer.
// Kept separate so plain MockTool values do not accidentally satisfy
// the capability interface in executor tests.
type MockPreviewTool struct {
	MockTool
	PreviewFunc func(args map[string]any) tool.Preview
}

// Preview implements tool.Previewer.
func (m *MockPreviewTool) Preview(args map[string]any) tool.Preview {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(args)
	}
	return tool.Preview{Summary: "mock preview", CanApprove: true}
}

// ValidateArguments implements tool.ArgumentValidator when ValidateFunc
// is set; with a nil func it accepts everything.
func (m *MockTool) ValidateArguments(args map[string]any) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(args)
	}
	return nil
}

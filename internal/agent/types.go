// Package agent runs tool calls through the invocation pipeline:
// lookup, rate limiting, validation, preview, approval, execution, and
// result formatting. The executor here is the single chokepoint every
// tool call passes through.
package agent

import (
	"context"
	"encoding/json"
)

// ToolCall is one requested tool invocation, decoded from the model's
// wire format.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// toolCallWire mirrors the provider wire shape:
// {"id": ..., "function": {"name": ..., "arguments": ...}} where
// arguments arrive either as a JSON string or an inline object.
type toolCallWire struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// UnmarshalJSON decodes both argument encodings providers use: a JSON
// string containing the arguments object, or the object inline.
func (c *ToolCall) UnmarshalJSON(data []byte) error {
	var wire toolCallWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.ID = wire.ID
	c.Name = wire.Function.Name
	c.Arguments = wire.Function.Arguments

	var asString string
	if json.Unmarshal(wire.Function.Arguments, &asString) == nil {
		c.Arguments = json.RawMessage(asString)
	}
	return nil
}

// MarshalJSON re-encodes the call in the wire shape with arguments as
// a JSON string.
func (c ToolCall) MarshalJSON() ([]byte, error) {
	var wire toolCallWire
	wire.ID = c.ID
	wire.Function.Name = c.Name
	encoded, err := json.Marshal(string(c.Arguments))
	if err != nil {
		return nil, err
	}
	wire.Function.Arguments = encoded
	return json.Marshal(wire)
}

// ParsedArguments decodes the arguments into a map. Malformed or empty
// JSON yields an empty map: the tool's own validation then produces an
// actionable message instead of a bare parse error.
func (c ToolCall) ParsedArguments() map[string]any {
	args := map[string]any{}
	if len(c.Arguments) == 0 {
		return args
	}
	if err := json.Unmarshal(c.Arguments, &args); err != nil {
		return map[string]any{}
	}
	return args
}

// Result is the outcome of one tool call, in the shape conversation
// history expects. Detailed is the model-facing content; Friendly is
// what the terminal showed.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	Detailed   string `json:"content"`
	ToolName   string `json:"-"`
	Friendly   string `json:"-"`
	Success    bool   `json:"-"`
}

// History receives pipeline outcomes. Implementations persist them or
// keep them in memory for the conversation loop.
type History interface {
	// AppendToolResults records the results of one batch, in call order.
	AppendToolResults(ctx context.Context, results []Result) error

	// AppendSystemMessage records an out-of-band note, such as a
	// request for an unknown tool.
	AppendSystemMessage(ctx context.Context, text string) error
}

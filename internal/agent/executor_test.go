package agent_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/flemzord/wrench/internal/agent"
	"github.com/flemzord/wrench/internal/security"
	"github.com/flemzord/wrench/internal/tool"
	"github.com/flemzord/wrench/internal/tool/tooltest"
)

// memoryHistory records appended results and system notes for assertions.
type memoryHistory struct {
	mu       sync.Mutex
	batches  [][]agent.Result
	messages []string
}

func (h *memoryHistory) AppendToolResults(_ context.Context, results []agent.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, results)
	return nil
}

func (h *memoryHistory) AppendSystemMessage(_ context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, text)
	return nil
}

// recordingApprover captures requests and returns a fixed decision.
type recordingApprover struct {
	decision agent.Decision
	requests []agent.Request
}

func (a *recordingApprover) Approve(_ context.Context, req agent.Request) (agent.Decision, error) {
	a.requests = append(a.requests, req)
	return a.decision, nil
}

func newCall(id, name, args string) agent.ToolCall {
	return agent.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestExecuteBatchAutoApprovedTool(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "probe", AutoApprove: true}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	hist := &memoryHistory{}
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, History: hist})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "probe", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].Success {
		t.Errorf("result not successful: %+v", results[0])
	}
	if results[0].ToolCallID != "c1" {
		t.Errorf("ToolCallID = %q, want %q", results[0].ToolCallID, "c1")
	}
	if !strings.Contains(results[0].Detailed, "Result: ok") {
		t.Errorf("Detailed = %q, want labeled result", results[0].Detailed)
	}
	if mock.Calls() != 1 {
		t.Errorf("Execute called %d times, want 1", mock.Calls())
	}
	if len(hist.batches) != 1 || len(hist.batches[0]) != 1 {
		t.Errorf("history batches = %+v, want one batch of one result", hist.batches)
	}
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	for _, name := range []string{"one", "two"} {
		if err := reg.Register(&tooltest.MockTool{NameValue: name, AutoApprove: true}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	hist := &memoryHistory{}
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, History: hist})

	calls := []agent.ToolCall{
		newCall("c1", "two", `{}`),
		newCall("c2", "missing", `{}`),
		newCall("c3", "one", `{}`),
	}
	results, err := exec.ExecuteBatch(context.Background(), calls)
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if results[i].ToolCallID != want {
			t.Errorf("results[%d].ToolCallID = %q, want %q", i, results[i].ToolCallID, want)
		}
	}
	if results[1].Success {
		t.Error("unknown tool reported success")
	}
	if len(hist.messages) != 1 || !strings.Contains(hist.messages[0], "missing") {
		t.Errorf("system notes = %v, want one naming the missing tool", hist.messages)
	}
}

func TestExecuteApprovalDenied(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "danger"}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	apr := &recordingApprover{decision: agent.DecisionDenied}
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, Approver: apr})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "danger", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if results[0].Success {
		t.Error("denied call reported success")
	}
	if results[0].Detailed != "cancelled by user" {
		t.Errorf("Detailed = %q, want %q", results[0].Detailed, "cancelled by user")
	}
	if mock.Calls() != 0 {
		t.Errorf("Execute ran %d times after denial, want 0", mock.Calls())
	}
	if len(apr.requests) != 1 || apr.requests[0].ToolName != "danger" {
		t.Errorf("approver requests = %+v", apr.requests)
	}
	if apr.requests[0].ID == "" {
		t.Error("approval request has no ID")
	}
}

func TestExecuteYoloSkipsApproval(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "danger"}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	apr := &recordingApprover{decision: agent.DecisionDenied}
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, Approver: apr, YOLO: true})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "danger", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if !results[0].Success {
		t.Errorf("result not successful: %+v", results[0])
	}
	if len(apr.requests) != 0 {
		t.Error("approver consulted in yolo mode")
	}
	if mock.Calls() != 1 {
		t.Errorf("Execute called %d times, want 1", mock.Calls())
	}
}

func TestExecuteBlockedPreviewNeverRuns(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockPreviewTool{
		MockTool: tooltest.MockTool{NameValue: "mutate"},
		PreviewFunc: func(map[string]any) tool.Preview {
			return tool.Blocked("mutate f.txt", "f.txt was not read this session")
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Even yolo mode must not bypass a refusing preview.
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, YOLO: true})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "mutate", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if results[0].Success {
		t.Error("blocked call reported success")
	}
	if !strings.Contains(results[0].Detailed, "not read") {
		t.Errorf("Detailed = %q, want the preview warning", results[0].Detailed)
	}
	if mock.Calls() != 0 {
		t.Errorf("Execute ran %d times despite blocked preview, want 0", mock.Calls())
	}
}

func TestExecuteNoOpPreviewSucceedsWithoutRunning(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockPreviewTool{
		MockTool: tooltest.MockTool{NameValue: "mutate", AutoApprove: true},
		PreviewFunc: func(map[string]any) tool.Preview {
			return tool.Preview{Summary: "write f.txt", Content: "No changes: file already has this content."}
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "mutate", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if !results[0].Success {
		t.Errorf("no-op reported as failure: %+v", results[0])
	}
	if !strings.Contains(results[0].Detailed, "No changes") {
		t.Errorf("Detailed = %q, want the no-op notice", results[0].Detailed)
	}
	if mock.Calls() != 0 {
		t.Errorf("Execute ran %d times for a no-op, want 0", mock.Calls())
	}
}

func TestExecuteValidationFailure(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{
		NameValue:   "strict",
		AutoApprove: true,
		ValidateFunc: func(map[string]any) error {
			return errors.New(`"file_path" is required`)
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "strict", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if results[0].Success {
		t.Error("invalid call reported success")
	}
	if !strings.Contains(results[0].Detailed, "file_path") {
		t.Errorf("Detailed = %q, want the validation message", results[0].Detailed)
	}
	if mock.Calls() != 0 {
		t.Errorf("Execute ran %d times on invalid args, want 0", mock.Calls())
	}
}

func TestExecuteMalformedArgumentsFallBackToValidation(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{
		NameValue:   "strict",
		AutoApprove: true,
		ValidateFunc: func(args map[string]any) error {
			if _, ok := args["file_path"]; !ok {
				return errors.New(`"file_path" is required`)
			}
			return nil
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "strict", `{not json`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if results[0].Success {
		t.Error("malformed call reported success")
	}
	if !strings.Contains(results[0].Detailed, "file_path") {
		t.Errorf("Detailed = %q, want the validation message naming the key", results[0].Detailed)
	}
}

func TestExecutePanicRecovery(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{
		NameValue:   "boom",
		AutoApprove: true,
		ExecuteFunc: func(context.Context, map[string]any) (tool.Output, error) {
			panic("kaboom")
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "boom", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if results[0].Success {
		t.Error("panicking call reported success")
	}
	if !strings.Contains(results[0].Detailed, "kaboom") {
		t.Errorf("Detailed = %q, want the panic value", results[0].Detailed)
	}
}

func TestExecuteRateLimited(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "probe", AutoApprove: true}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	limiter := security.NewRateLimiter(security.RateLimitConfig{ToolCallsPerMin: 1})
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, Limiter: limiter})

	calls := []agent.ToolCall{
		newCall("c1", "probe", `{}`),
		newCall("c2", "probe", `{}`),
	}
	results, err := exec.ExecuteBatch(context.Background(), calls)
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if !results[0].Success {
		t.Errorf("first call failed: %+v", results[0])
	}
	if results[1].Success {
		t.Error("rate-limited call reported success")
	}
	if !strings.Contains(results[1].Detailed, "rate limit") {
		t.Errorf("Detailed = %q, want a rate limit message", results[1].Detailed)
	}
	if mock.Calls() != 1 {
		t.Errorf("Execute called %d times, want 1", mock.Calls())
	}
}

func TestExecuteResultTruncation(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{
		NameValue:   "bigread",
		AutoApprove: true,
		ExecuteFunc: func(context.Context, map[string]any) (tool.Output, error) {
			return tool.TextOutput("read a lot", "content", strings.Repeat("x", 4000)), nil
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, MaxResultBytes: 1000})

	results, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "bigread", `{}`)})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results[0].Detailed) > 1000 {
		t.Errorf("Detailed is %d bytes, want at most 1000", len(results[0].Detailed))
	}
	if !strings.Contains(results[0].Detailed, "truncated") {
		t.Errorf("Detailed = %q, want a truncation notice", results[0].Detailed)
	}
}

func TestExecuteAuditsPipeline(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{NameValue: "danger"}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var events []security.AuditEvent
	audit := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) { events = append(events, e) },
	})

	apr := &recordingApprover{decision: agent.DecisionApproved}
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, Approver: apr, Audit: audit})

	if _, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "danger", `{}`)}); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}

	var types []security.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []security.EventType{security.EventToolCall, security.EventApproval, security.EventToolResult}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestExecuteWritesFriendlyLine(t *testing.T) {
	t.Parallel()

	reg := tool.NewRegistry()
	mock := &tooltest.MockTool{
		NameValue:   "probe",
		AutoApprove: true,
		ExecuteFunc: func(context.Context, map[string]any) (tool.Output, error) {
			return tool.TextOutput("Probed 3 targets", "result", "details here"), nil
		},
	}
	if err := reg.Register(mock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var out bytes.Buffer
	exec := agent.NewExecutor(agent.ExecutorConfig{Registry: reg, Out: &out})

	if _, err := exec.ExecuteBatch(context.Background(), []agent.ToolCall{newCall("c1", "probe", `{}`)}); err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if !strings.Contains(out.String(), "Probed 3 targets") {
		t.Errorf("terminal output = %q, want the friendly line", out.String())
	}
	if strings.Contains(out.String(), "details here") {
		t.Error("detail text shown without detail mode")
	}
}

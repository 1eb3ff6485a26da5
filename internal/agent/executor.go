package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/flemzord/wrench/internal/diffview"
	"github.com/flemzord/wrench/internal/format"
	"github.com/flemzord/wrench/internal/metrics"
	"github.com/flemzord/wrench/internal/security"
	"github.com/flemzord/wrench/internal/tool"
)

// ExecutorConfig holds the dependencies of the tool pipeline.
type ExecutorConfig struct {
	Registry *tool.Registry
	Approver Approver
	History  History
	Audit    *security.AuditLogger
	Limiter  *security.RateLimiter
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// Out receives previews and friendly result lines. Nil discards.
	Out io.Writer

	// YOLO skips the approval gate. The preview gate still applies:
	// calls a preview refuses never run, approver or not.
	YOLO bool

	// Detail switches the terminal view to the full model-facing text.
	Detail bool

	// Color enables ANSI colors for diff previews.
	Color bool

	// MaxResultBytes caps the model-facing result text. <= 0 means
	// unlimited.
	MaxResultBytes int
}

// Executor runs batches of tool calls through the pipeline and records
// their results in history.
type Executor struct {
	registry *tool.Registry
	approver Approver
	history  History
	audit    *security.AuditLogger
	limiter  *security.RateLimiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	out      io.Writer
	yolo     bool
	detail   bool
	color    bool
	maxBytes int
}

// NewExecutor creates an Executor from the given configuration.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &Executor{
		registry: cfg.Registry,
		approver: cfg.Approver,
		history:  cfg.History,
		audit:    cfg.Audit,
		limiter:  cfg.Limiter,
		metrics:  cfg.Metrics,
		logger:   logger,
		out:      out,
		yolo:     cfg.YOLO,
		detail:   cfg.Detail,
		color:    cfg.Color,
		maxBytes: cfg.MaxResultBytes,
	}
}

// ExecuteBatch runs the calls in order and appends all results to
// history in a single call, preserving call order. Unknown tools also
// leave a system note so the model learns the registry's actual shape.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []ToolCall) ([]Result, error) {
	results := make([]Result, 0, len(calls))
	var notes []string

	for _, call := range calls {
		res, note := e.executeSingle(ctx, call)
		results = append(results, res)
		if note != "" {
			notes = append(notes, note)
		}
	}

	if e.history != nil {
		if err := e.history.AppendToolResults(ctx, results); err != nil {
			return results, fmt.Errorf("recording results: %w", err)
		}
		for _, note := range notes {
			if err := e.history.AppendSystemMessage(ctx, note); err != nil {
				return results, fmt.Errorf("recording system note: %w", err)
			}
		}
	}
	return results, nil
}

// executeSingle runs one call through every gate. The returned note is
// non-empty only for unknown tools.
func (e *Executor) executeSingle(ctx context.Context, call ToolCall) (Result, string) {
	start := time.Now()
	res := Result{ToolCallID: call.ID, ToolName: call.Name}

	t, err := e.registry.Get(call.Name)
	if err != nil {
		res.Detailed = fmt.Sprintf("tool %q is not available", call.Name)
		res.Friendly = res.Detailed
		e.record(call, metrics.OutcomeNotFound, start)
		note := fmt.Sprintf("The tool %q does not exist. Available tools: %v", call.Name, e.registry.Names())
		return res, note
	}

	if e.limiter != nil {
		if err := e.limiter.Allow(); err != nil {
			e.auditEvent(security.EventRateLimit, call, err.Error(), nil)
			res.Detailed = "rate limit exceeded; slow down and retry"
			res.Friendly = res.Detailed
			e.record(call, metrics.OutcomeRateLimited, start)
			return res, ""
		}
	}

	// Size and depth bombs are hard failures; merely malformed JSON
	// falls through to the empty-map parse so the tool's validation
	// can name the missing keys.
	if err := security.CheckArguments(call.Arguments, 0, 0); err != nil && !errors.Is(err, security.ErrInvalidJSON) {
		res.Detailed = fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)
		res.Friendly = res.Detailed
		e.record(call, metrics.OutcomeInvalidArgs, start)
		return res, ""
	}
	args := call.ParsedArguments()

	e.auditEvent(security.EventToolCall, call, formatArguments(t, call, args), nil)

	if v, ok := t.(tool.ArgumentValidator); ok {
		if err := v.ValidateArguments(args); err != nil {
			res.Detailed = fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)
			res.Friendly = res.Detailed
			e.record(call, metrics.OutcomeInvalidArgs, start)
			return res, ""
		}
	}

	var preview tool.Preview
	if p, ok := t.(tool.Previewer); ok {
		preview = p.Preview(args)
		e.showPreview(call.Name, preview)

		if !preview.CanApprove {
			if preview.Warning != "" {
				e.auditEvent(security.EventPreviewDenied, call, preview.Warning, nil)
				res.Detailed = preview.Warning
				res.Friendly = preview.Warning
				e.record(call, metrics.OutcomeBlocked, start)
				return res, ""
			}
			// No warning means a no-op, not a refusal.
			res.Detailed = preview.Content
			res.Friendly = preview.Content
			res.Success = true
			e.record(call, metrics.OutcomeOK, start)
			return res, ""
		}
	}

	if !t.AutoApproved() && !e.yolo {
		decision, err := e.approve(ctx, call, t, args, preview)
		if err != nil {
			res.Detailed = fmt.Sprintf("approval failed: %v", err)
			res.Friendly = res.Detailed
			e.record(call, metrics.OutcomeError, start)
			return res, ""
		}
		if decision != DecisionApproved {
			res.Detailed = "cancelled by user"
			res.Friendly = res.Detailed
			e.record(call, metrics.OutcomeDenied, start)
			return res, ""
		}
	}

	out, err := e.runTool(ctx, t, args)
	if err != nil {
		res.Detailed = fmt.Sprintf("%s failed: %v", call.Name, err)
		res.Friendly = res.Detailed
		e.auditEvent(security.EventToolResult, call, security.TruncateDetail(err.Error()), map[string]string{"outcome": metrics.OutcomeError})
		e.record(call, metrics.OutcomeError, start)
		return res, ""
	}

	detailed := format.ForModel(out)
	if e.maxBytes > 0 {
		var truncated bool
		detailed, truncated = format.EnforceSizeLimit(detailed, call.Name, e.maxBytes)
		if truncated && e.metrics != nil {
			e.metrics.RecordTruncation()
		}
	}

	res.Detailed = detailed
	res.Friendly = format.ForDisplay(out, e.detail)
	res.Success = true

	fmt.Fprintln(e.out, res.Friendly)
	e.auditEvent(security.EventToolResult, call, security.TruncateDetail(detailed), map[string]string{"outcome": metrics.OutcomeOK})
	e.record(call, metrics.OutcomeOK, start)
	return res, ""
}

// approve runs the approval gate and audits the decision.
func (e *Executor) approve(ctx context.Context, call ToolCall, t tool.Tool, args map[string]any, preview tool.Preview) (Decision, error) {
	summary := preview.Summary
	if summary == "" {
		summary = formatArguments(t, call, args)
	}

	if e.approver == nil {
		return DecisionDenied, errors.New("no approver configured")
	}

	req := NewRequest(call.Name, summary, preview)
	decision, err := e.approver.Approve(ctx, req)
	if err != nil {
		return DecisionDenied, err
	}

	e.auditEvent(security.EventApproval, call, string(decision), map[string]string{"request_id": req.ID})
	if e.metrics != nil {
		e.metrics.RecordApproval(call.Name, string(decision))
	}
	return decision, nil
}

// runTool executes the tool with panic recovery so one misbehaving
// tool cannot take down the session.
func (e *Executor) runTool(ctx context.Context, t tool.Tool, args map[string]any) (out tool.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", t.Name(), "panic", r)
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}

// showPreview prints the preview body, colorizing diffs when enabled.
func (e *Executor) showPreview(name string, p tool.Preview) {
	if p.Summary != "" {
		fmt.Fprintf(e.out, "%s: %s\n", name, p.Summary)
	}
	content := p.Content
	if p.IsDiff && e.color {
		content = diffview.Colorize(content)
	}
	if content != "" {
		fmt.Fprintln(e.out, content)
	}
	if p.Warning != "" {
		fmt.Fprintf(e.out, "warning: %s\n", p.Warning)
	}
}

func (e *Executor) auditEvent(typ security.EventType, call ToolCall, detail string, meta map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.Log(security.AuditEvent{
		Type:       typ,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Detail:     detail,
		Metadata:   meta,
	})
}

func (e *Executor) record(call ToolCall, outcome string, start time.Time) {
	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordExecution(call.Name, outcome, elapsed)
	}
	e.logger.Debug("tool call finished",
		"tool", call.Name,
		"call_id", call.ID,
		"outcome", outcome,
		"elapsed", elapsed,
	)
}

// formatArguments renders the call's arguments for display and audit,
// preferring the tool's own formatter.
func formatArguments(t tool.Tool, call ToolCall, args map[string]any) string {
	if f, ok := t.(tool.ArgumentFormatter); ok {
		if s := f.FormatArguments(args); s != "" {
			return s
		}
	}
	return security.TruncateDetail(string(call.Arguments))
}

// Package security provides the audit trail, secret redaction, rate
// limiting, and argument hygiene for the tool pipeline. The executor is
// the security boundary; everything that crosses it is logged here.
package security

import (
	"encoding/json"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering every gate the pipeline enforces.
const (
	EventSessionStart  EventType = "session_start"
	EventToolCall      EventType = "tool_call"
	EventPreviewDenied EventType = "preview_denied"
	EventApproval      EventType = "approval"
	EventToolResult    EventType = "tool_result"
	EventRateLimit     EventType = "rate_limit"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	SessionID  string            `json:"session_id,omitempty"`
	ToolName   string            `json:"tool_name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are
	// only dispatched to OnEvent (useful for testing).
	Writer io.Writer

	// Redactor, if non-nil, is applied to Detail and Metadata values
	// before writing.
	Redactor *Redactor

	// SessionID is stamped on every event that does not carry its own.
	SessionID string

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL with optional
// redaction. Safe for concurrent use.
type AuditLogger struct {
	writer    io.Writer
	redactor  *Redactor
	sessionID string
	onEvent   func(AuditEvent)
	now       func() time.Time
	mu        sync.Mutex
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:    cfg.Writer,
		redactor:  cfg.Redactor,
		sessionID: cfg.SessionID,
		onEvent:   cfg.OnEvent,
		now:       now,
	}
}

// Log writes an audit event. The timestamp is set automatically and the
// session ID is filled in when the event has none. Detail and Metadata
// are redacted if a Redactor is configured; the caller's Metadata map is
// never mutated.
func (l *AuditLogger) Log(event AuditEvent) {
	event.Timestamp = l.now()
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	if len(event.Metadata) > 0 {
		cp := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			cp[k] = v
		}
		event.Metadata = cp
	}

	if l.redactor != nil {
		event.Detail = l.redactor.Redact(event.Detail)
		for k, v := range event.Metadata {
			event.Metadata[k] = l.redactor.Redact(v)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}
	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}
}

// maxAuditDetailLen caps audit detail strings so large tool outputs do
// not bloat the log.
const maxAuditDetailLen = 4096

// TruncateDetail shortens s to the audit detail cap, walking back to a
// UTF-8 rune boundary so multi-byte characters are never split.
func TruncateDetail(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}

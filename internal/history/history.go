// Package history stores tool-call outcomes for the conversation loop,
// either in memory or in SQLite.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/wrench/internal/agent"
)

// Kind discriminates history entries.
type Kind string

// Entry kinds.
const (
	KindToolResult Kind = "tool_result"
	KindSystem     Kind = "system"
)

// Entry is one recorded history item.
type Entry struct {
	SessionID  string
	Seq        int
	Kind       Kind
	ToolCallID string
	ToolName   string
	Content    string
	Success    bool
	CreatedAt  time.Time
}

// Memory is an in-memory history for a single session. Safe for
// concurrent use.
type Memory struct {
	sessionID string

	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewMemory creates an in-memory history for the given session.
func NewMemory(sessionID string) *Memory {
	return &Memory{sessionID: sessionID, now: time.Now}
}

// AppendToolResults implements agent.History.
func (m *Memory) AppendToolResults(_ context.Context, results []agent.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.entries = append(m.entries, Entry{
			SessionID:  m.sessionID,
			Seq:        len(m.entries) + 1,
			Kind:       KindToolResult,
			ToolCallID: r.ToolCallID,
			ToolName:   r.ToolName,
			Content:    r.Detailed,
			Success:    r.Success,
			CreatedAt:  m.now(),
		})
	}
	return nil
}

// AppendSystemMessage implements agent.History.
func (m *Memory) AppendSystemMessage(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		SessionID: m.sessionID,
		Seq:       len(m.entries) + 1,
		Kind:      KindSystem,
		Content:   text,
		CreatedAt: m.now(),
	})
	return nil
}

// Entries returns a copy of all recorded entries in order.
func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/flemzord/wrench/internal/tool"
)

// Decision is the outcome of an approval request.
type Decision string

// Approval decisions.
const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// Request carries everything the user needs to judge a proposed tool
// call.
type Request struct {
	ID       string
	ToolName string
	Summary  string
	Preview  tool.Preview
}

// NewRequest builds an approval request with a fresh ID.
func NewRequest(toolName, summary string, preview tool.Preview) Request {
	return Request{
		ID:       uuid.NewString(),
		ToolName: toolName,
		Summary:  summary,
		Preview:  preview,
	}
}

// Approver decides whether a previewed tool call may run.
type Approver interface {
	Approve(ctx context.Context, req Request) (Decision, error)
}

// InteractiveApprover prompts the user on the terminal. Aborting the
// prompt (ctrl-c) counts as a denial, not an error.
type InteractiveApprover struct {
	// Out receives the prompt title context; the form itself renders
	// on the controlling terminal.
	Out io.Writer
}

// Approve implements Approver.
func (a *InteractiveApprover) Approve(ctx context.Context, req Request) (Decision, error) {
	approved := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Allow %s?", req.ToolName)).
			Description(req.Summary).
			Affirmative("Approve").
			Negative("Deny").
			Value(&approved),
	))

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return DecisionDenied, nil
		}
		return DecisionDenied, fmt.Errorf("approval prompt: %w", err)
	}

	if approved {
		return DecisionApproved, nil
	}
	return DecisionDenied, nil
}

// StaticApprover returns a fixed decision. Used for non-interactive
// runs and in tests.
type StaticApprover struct {
	Decision Decision
}

// Approve implements Approver.
func (a *StaticApprover) Approve(context.Context, Request) (Decision, error) {
	return a.Decision, nil
}

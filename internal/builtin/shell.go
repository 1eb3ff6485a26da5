package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/tool"
)

const (
	defaultShellTimeout  = 30 * time.Second
	defaultMaxShellBytes = 1 << 20
)

// RunShell executes a command through bash in the sandbox root. The
// command runs in its own process group so a timeout kills the whole
// tree, not just the shell.
type RunShell struct {
	sandbox  *sandbox.Checker
	timeout  time.Duration
	maxBytes int
}

// NewRunShell creates the run_shell tool. A zero timeout or byte limit
// falls back to the defaults.
func NewRunShell(sb *sandbox.Checker, timeout time.Duration, maxBytes int) *RunShell {
	if timeout <= 0 {
		timeout = defaultShellTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxShellBytes
	}
	return &RunShell{sandbox: sb, timeout: timeout, maxBytes: maxBytes}
}

// Name implements tool.Tool.
func (r *RunShell) Name() string { return "run_shell" }

// Description implements tool.Tool.
func (r *RunShell) Description() string {
	return "Run a shell command in the working directory and return its combined output and exit code."
}

// Schema implements tool.Tool.
func (r *RunShell) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Command to pass to bash -c"},
			"timeout_seconds": {"type": "number", "description": "Override the default timeout"}
		},
		"required": ["command"]
	}`)
}

// Category implements tool.Tool.
func (r *RunShell) Category() tool.Category { return tool.CategoryInternal }

// AutoApproved implements tool.Tool.
func (r *RunShell) AutoApproved() bool { return false }

// ValidateArguments implements tool.ArgumentValidator.
func (r *RunShell) ValidateArguments(args map[string]any) error {
	_, err := requireString(args, "command")
	return err
}

// FormatArguments implements tool.ArgumentFormatter.
func (r *RunShell) FormatArguments(args map[string]any) string {
	return stringArg(args, "command")
}

// Preview implements tool.Previewer.
func (r *RunShell) Preview(args map[string]any) tool.Preview {
	command := stringArg(args, "command")
	return tool.Preview{
		Summary:    "run: " + command,
		Content:    command,
		CanApprove: true,
	}
}

// Execute implements tool.Tool.
func (r *RunShell) Execute(ctx context.Context, args map[string]any) (tool.Output, error) {
	command, err := requireString(args, "command")
	if err != nil {
		return tool.Output{}, err
	}

	timeout := r.timeout
	if secs, ok := numberArg(args, "timeout_seconds"); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command("bash", "-c", command)
	cmd.Dir = r.sandbox.Root()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return tool.Output{}, fmt.Errorf("starting command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	select {
	case err = <-done:
	case <-ctx.Done():
		timedOut = true
		// Negative pid signals the whole process group.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}

	exitCode := 0
	if timedOut {
		exitCode = -1
	} else if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return tool.Output{}, fmt.Errorf("running command: %w", err)
		}
	}

	output := buf.String()
	truncated := false
	if len(output) > r.maxBytes {
		cut := r.maxBytes
		for cut > 0 && !utf8.RuneStart(output[cut]) {
			cut--
		}
		output = output[:cut]
		truncated = true
	}

	friendly := fmt.Sprintf("Command exited with code %d", exitCode)
	if timedOut {
		friendly = fmt.Sprintf("Command timed out after %s and was killed", timeout)
	}

	fields := []tool.Field{
		{Key: "exit_code", Value: strconv.Itoa(exitCode)},
		{Key: "output", Value: output},
	}
	if timedOut {
		fields = append(fields, tool.Field{Key: "timed_out", Value: "true"})
	}
	if truncated {
		fields = append(fields, tool.Field{Key: "output_truncated", Value: "true"})
	}

	return tool.Output{Friendly: friendly, Fields: fields}, nil
}

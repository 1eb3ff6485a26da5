package tool

import "errors"

var (
	// ErrToolNotFound is returned when a tool is not registered or is
	// currently disabled. Disabled tools are indistinguishable from
	// unknown ones on lookup.
	ErrToolNotFound = errors.New("tool not found")

	// ErrEmptyToolName is returned when registering a tool whose name
	// is empty or whitespace.
	ErrEmptyToolName = errors.New("tool name must not be empty")

	// ErrDuplicateTool is returned when registering a name that already
	// exists in the registry, active or disabled.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrNotDisabled is returned by Enable for a name that is not in
	// the disabled table.
	ErrNotDisabled = errors.New("tool is not disabled")

	// ErrInvalidArguments is wrapped by tools rejecting their arguments.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Package builtin implements wrench's internal tools: file reads,
// writes, edits, directory listing, and shell execution. Mutating tools
// carry previews built on the sandbox, the session read-tracker, and
// the diff engine; the executor consults those previews before anything
// touches the filesystem.
package builtin

import (
	"fmt"

	"github.com/flemzord/wrench/internal/tool"
)

// stringArg extracts a string argument, returning "" when absent or of
// the wrong type. Required-ness is the tool's validation business.
func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// numberArg extracts a numeric argument. JSON numbers decode as
// float64; integers passed programmatically are accepted too.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// requireString returns ErrInvalidArguments naming the missing key.
func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %q is required", tool.ErrInvalidArguments, key)
	}
	return v, nil
}

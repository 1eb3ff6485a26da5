package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Argument hygiene limits. Model-generated JSON is untrusted input; a
// hostile or confused model must not be able to exhaust memory or stack
// before its arguments even reach a tool.
const (
	DefaultMaxArgumentSize = 1 << 20 // 1 MiB
	DefaultMaxJSONDepth    = 32
)

// Argument validation errors.
var (
	ErrArgumentsTooLarge = errors.New("tool arguments exceed maximum size")
	ErrJSONTooDeep       = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON       = errors.New("invalid JSON")
)

// CheckArguments validates raw tool-call arguments against the size and
// nesting limits. Limits <= 0 fall back to the defaults. It does not
// validate against any tool schema; that is per-tool business.
func CheckArguments(data []byte, maxSize, maxDepth int) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxArgumentSize
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrArgumentsTooLarge, len(data), maxSize)
	}
	return checkJSONDepth(data, maxDepth)
}

// checkJSONDepth walks the token stream counting nesting so a JSON bomb
// is rejected without materializing it.
func checkJSONDepth(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxJSONDepth
	}
	if len(data) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}

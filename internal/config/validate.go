package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural validity of a Config. It verifies the
// version field, the numeric limits, the tool filter lists, and every
// MCP server definition.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Shell.Timeout < 0 {
		errs = append(errs, errors.New("config: shell.timeout must not be negative"))
	}
	if cfg.Shell.MaxOutputBytes < 0 {
		errs = append(errs, errors.New("config: shell.max_output_bytes must not be negative"))
	}
	if cfg.Output.MaxResultBytes < 0 {
		errs = append(errs, errors.New("config: output.max_result_bytes must not be negative"))
	}
	if cfg.RateLimit.ToolCallsPerMin < 0 {
		errs = append(errs, errors.New("config: rate_limit.tool_calls_per_min must not be negative"))
	}

	// A tool both allowed and disabled is a config mistake, not a
	// precedence question.
	if len(cfg.Tools.Allowed) > 0 {
		allowed := make(map[string]bool, len(cfg.Tools.Allowed))
		for _, name := range cfg.Tools.Allowed {
			allowed[name] = true
		}
		for _, name := range cfg.Tools.Disabled {
			if allowed[name] {
				errs = append(errs, fmt.Errorf("config: tool %q is both allowed and disabled", name))
			}
		}
	}

	seen := make(map[string]bool, len(cfg.MCP))
	for i, server := range cfg.MCP {
		if err := server.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: mcp[%d]: %w", i, err))
			continue
		}
		if seen[server.Name] {
			errs = append(errs, fmt.Errorf("config: duplicate mcp server %q", server.Name))
		}
		seen[server.Name] = true
	}

	return errors.Join(errs...)
}

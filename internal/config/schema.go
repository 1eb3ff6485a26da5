// Package config handles YAML configuration loading, environment
// variable expansion, and structural validation for wrench.
package config

import (
	"time"

	"github.com/flemzord/wrench/internal/mcptool"
	"github.com/flemzord/wrench/internal/security"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Sandbox   SandboxConfig            `yaml:"sandbox"`
	Approval  ApprovalConfig           `yaml:"approval"`
	Shell     ShellConfig              `yaml:"shell"`
	Output    OutputConfig             `yaml:"output"`
	Tools     ToolsConfig              `yaml:"tools"`
	Audit     AuditConfig              `yaml:"audit"`
	History   HistoryConfig            `yaml:"history"`
	RateLimit security.RateLimitConfig `yaml:"rate_limit"`
	MCP       []mcptool.ServerConfig   `yaml:"mcp,omitempty"`
}

// SandboxConfig controls the filesystem boundary.
type SandboxConfig struct {
	// Root is the sandbox root. Empty means the working directory.
	Root string `yaml:"root,omitempty"`

	// Disabled turns path checks off entirely.
	Disabled bool `yaml:"disabled,omitempty"`
}

// ApprovalConfig controls the approval gate.
type ApprovalConfig struct {
	// YOLO skips the approval prompt for every call. Previews that
	// refuse a call still refuse it.
	YOLO bool `yaml:"yolo,omitempty"`
}

// ShellConfig bounds shell command execution.
type ShellConfig struct {
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxOutputBytes int           `yaml:"max_output_bytes,omitempty"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	// Detail shows the full model-facing text on the terminal.
	Detail bool `yaml:"detail,omitempty"`

	// Color enables ANSI colors for diff previews.
	Color bool `yaml:"color,omitempty"`

	// MaxResultBytes caps the model-facing result text. 0 means
	// unlimited.
	MaxResultBytes int `yaml:"max_result_bytes,omitempty"`
}

// ToolsConfig filters the registry.
type ToolsConfig struct {
	// Allowed, when non-empty, removes every tool not listed.
	Allowed []string `yaml:"allowed,omitempty"`

	// Disabled hides the listed tools without removing them.
	Disabled []string `yaml:"disabled,omitempty"`
}

// AuditConfig controls the audit trail.
type AuditConfig struct {
	// Path is the JSONL audit log file. Empty disables auditing.
	Path string `yaml:"path,omitempty"`
}

// HistoryConfig controls result persistence.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty keeps history in memory.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Version: "1"}
}

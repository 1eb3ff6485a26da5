// Package main is the entry point for the wrench CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/flemzord/wrench/internal/agent"
	"github.com/flemzord/wrench/internal/builtin"
	"github.com/flemzord/wrench/internal/config"
	"github.com/flemzord/wrench/internal/history"
	"github.com/flemzord/wrench/internal/mcptool"
	"github.com/flemzord/wrench/internal/metrics"
	"github.com/flemzord/wrench/internal/sandbox"
	"github.com/flemzord/wrench/internal/security"
	"github.com/flemzord/wrench/internal/session"
	"github.com/flemzord/wrench/internal/tool"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wrench",
		Short:         "A sandboxed tool pipeline for coding agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), runCmd(), toolsCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("wrench %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the configuration exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			env, err := newEnvironment(cmd.Context(), cfg, envOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			for _, def := range env.registry.Definitions() {
				fmt.Printf("%s\t%s\n", def.Function.Name, def.Function.Description)
			}
			for _, name := range env.registry.DisabledNames() {
				fmt.Printf("%s\t(disabled)\n", name)
			}
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read tool-call batches from stdin and execute them",
		Long: `Read JSON arrays of tool calls from stdin, one batch per line,
run each batch through the pipeline, and write the results as JSON to
stdout. Mutating calls show a preview and prompt for approval.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			yolo, _ := cmd.Flags().GetBool("yolo")
			noSandbox, _ := cmd.Flags().GetBool("no-sandbox")
			detail, _ := cmd.Flags().GetBool("detail")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := newEnvironment(ctx, cfg, envOptions{
				yolo:      yolo,
				noSandbox: noSandbox,
				detail:    detail,
			})
			if err != nil {
				return err
			}
			defer env.Close()

			return runBatches(ctx, env, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().Bool("yolo", false, "Skip approval prompts")
	cmd.Flags().Bool("no-sandbox", false, "Disable the filesystem sandbox")
	cmd.Flags().Bool("detail", false, "Show full result text on the terminal")
	return cmd
}

// runBatches decodes one JSON batch per line from in, executes it, and
// writes the batch results as one JSON array per line to out.
func runBatches(ctx context.Context, env *environment, in io.Reader, out io.Writer) error {
	dec := json.NewDecoder(in)
	enc := json.NewEncoder(out)

	for {
		var calls []agent.ToolCall
		if err := dec.Decode(&calls); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding batch: %w", err)
		}

		results, err := env.executor.ExecuteBatch(ctx, calls)
		if err != nil {
			return err
		}
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	}
}

type envOptions struct {
	yolo      bool
	noSandbox bool
	detail    bool
}

// environment holds the wired pipeline and everything that needs
// closing on shutdown.
type environment struct {
	registry *tool.Registry
	executor *agent.Executor
	closers  []io.Closer
}

// Close releases MCP connections, the history store, and the audit log.
func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

// newEnvironment wires the full pipeline from configuration: sandbox,
// tracker, registry with builtin and MCP tools, audit trail, history
// store, metrics, and the executor.
func newEnvironment(ctx context.Context, cfg *config.Config, opts envOptions) (*environment, error) {
	sessionID := uuid.NewString()

	redactor := security.NewRedactor()
	logger := slog.New(security.NewRedactingHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		redactor,
	))

	root := cfg.Sandbox.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		root = wd
	}
	sb, err := sandbox.New(root, cfg.Sandbox.Disabled || opts.noSandbox)
	if err != nil {
		return nil, err
	}

	tracker := session.NewTracker()
	env := &environment{registry: tool.NewRegistry()}

	builtins := []tool.Tool{
		builtin.NewReadFile(sb, tracker),
		builtin.NewWriteFile(sb, tracker),
		builtin.NewEditFile(sb, tracker),
		builtin.NewListDir(sb),
		builtin.NewRunShell(sb, cfg.Shell.Timeout, cfg.Shell.MaxOutputBytes),
	}
	for _, t := range builtins {
		if err := env.registry.Register(t); err != nil {
			env.Close()
			return nil, err
		}
	}

	for _, server := range cfg.MCP {
		client, err := mcptool.Connect(ctx, server)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.closers = append(env.closers, client)
		for _, t := range client.Tools() {
			if err := env.registry.Register(t); err != nil {
				env.Close()
				return nil, err
			}
		}
	}

	env.registry.FilterAllowed(cfg.Tools.Allowed)
	for _, name := range cfg.Tools.Disabled {
		if err := env.registry.Disable(name); err != nil {
			logger.Warn("cannot disable tool", "tool", name, "error", err)
		}
	}

	var audit *security.AuditLogger
	if cfg.Audit.Path != "" {
		f, err := os.OpenFile(cfg.Audit.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		env.closers = append(env.closers, f)
		audit = security.NewAuditLogger(security.AuditLoggerConfig{
			Writer:    f,
			Redactor:  redactor,
			SessionID: sessionID,
		})
		audit.Log(security.AuditEvent{Type: security.EventSessionStart, Detail: "sandbox root " + sb.Root()})
	}

	var hist agent.History
	if cfg.History.Path != "" {
		store, err := history.OpenSQLite(cfg.History.Path, sessionID)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.closers = append(env.closers, store)
		hist = store
	} else {
		hist = history.NewMemory(sessionID)
	}

	var approver agent.Approver = &agent.InteractiveApprover{Out: os.Stderr}

	env.executor = agent.NewExecutor(agent.ExecutorConfig{
		Registry:       env.registry,
		Approver:       approver,
		History:        hist,
		Audit:          audit,
		Limiter:        security.NewRateLimiter(cfg.RateLimit),
		Metrics:        metrics.New(prometheus.DefaultRegisterer),
		Logger:         logger,
		Out:            os.Stderr,
		YOLO:           cfg.Approval.YOLO || opts.yolo,
		Detail:         cfg.Output.Detail || opts.detail,
		Color:          cfg.Output.Color,
		MaxResultBytes: cfg.Output.MaxResultBytes,
	})
	return env, nil
}

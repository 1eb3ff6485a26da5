// Package mcptool bridges external MCP servers into the tool registry.
// Each remote tool is wrapped as a plugin-category tool; plugin tools
// always pass through the approval gate.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"

	"github.com/flemzord/wrench/internal/tool"
)

// ServerConfig describes one MCP server to launch over stdio.
type ServerConfig struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// Validate checks the server definition.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("mcp server has no name")
	}
	if c.Command == "" {
		return fmt.Errorf("mcp server %q has no command", c.Name)
	}
	return nil
}

// Client wraps one connected MCP server and its discovered tools.
type Client struct {
	name   string
	client mcpclient.MCPClient
	tools  []tool.Tool
}

// Connect launches the server, performs the MCP handshake, and
// discovers its tools. The caller must Close the client.
func Connect(ctx context.Context, cfg ServerConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := mcpclient.NewStdioMCPClient(cfg.Command, envMapToSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("mcp %s: start: %w", cfg.Name, err)
	}

	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{
		Name:    "wrench",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mcp %s: initialize: %w", cfg.Name, err)
	}

	toolsResult, err := client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mcp %s: list tools: %w", cfg.Name, err)
	}

	c := &Client{name: cfg.Name, client: client}
	for i := range toolsResult.Tools {
		c.tools = append(c.tools, &remoteTool{
			client:      client,
			server:      cfg.Name,
			remoteName:  toolsResult.Tools[i].Name,
			description: toolsResult.Tools[i].Description,
			schema:      toolsResult.Tools[i].InputSchema,
		})
	}
	return c, nil
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

// Tools returns the discovered tools, wrapped for the registry.
func (c *Client) Tools() []tool.Tool { return c.tools }

// Close shuts the server connection down.
func (c *Client) Close() error { return c.client.Close() }

// remoteTool adapts one MCP tool to the tool interface. Names are
// prefixed with the server name so two servers exporting the same tool
// never collide in the registry.
type remoteTool struct {
	client      mcpclient.MCPClient
	server      string
	remoteName  string
	description string
	schema      mcpprotocol.ToolInputSchema
}

// Name implements tool.Tool.
func (r *remoteTool) Name() string { return r.server + "__" + r.remoteName }

// Description implements tool.Tool.
func (r *remoteTool) Description() string {
	if r.description != "" {
		return r.description
	}
	return fmt.Sprintf("Tool %s from MCP server %s", r.remoteName, r.server)
}

// Schema implements tool.Tool.
func (r *remoteTool) Schema() json.RawMessage {
	data, err := json.Marshal(r.schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

// Category implements tool.Tool.
func (r *remoteTool) Category() tool.Category { return tool.CategoryPlugin }

// AutoApproved implements tool.Tool. Remote code never skips the gate.
func (r *remoteTool) AutoApproved() bool { return false }

// Execute implements tool.Tool.
func (r *remoteTool) Execute(ctx context.Context, args map[string]any) (tool.Output, error) {
	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = r.remoteName
	req.Params.Arguments = args

	result, err := r.client.CallTool(ctx, req)
	if err != nil {
		return tool.Output{}, fmt.Errorf("mcp %s: call %s: %w", r.server, r.remoteName, err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := mcpprotocol.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if result.IsError {
		return tool.Output{}, fmt.Errorf("mcp %s: %s failed: %s", r.server, r.remoteName, text)
	}

	return tool.Output{
		Friendly: fmt.Sprintf("Ran %s on %s", r.remoteName, r.server),
		Fields: []tool.Field{
			{Key: "result", Value: text},
		},
	}, nil
}

// envMapToSlice converts a map to the KEY=VALUE slice exec.Cmd expects.
func envMapToSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// Package mcp wraps a Model Context Protocol stdio client so tools hosted by
// external server processes can be discovered and exposed to agents through
// the regular tool.Tool interface.
package mcp

import (
	"context"
	"fmt"
	"sort"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/opspilot/opspilot/logging"
	"github.com/opspilot/opspilot/tool"
)

// ServerConfig describes how to launch a stdio MCP server subprocess.
type ServerConfig struct {
	Name    string            // Logical name used in logs and tool prefixes
	Command string            // Executable, e.g. "uvx" or "npx"
	Args    []string          // Command arguments
	Env     map[string]string // Extra environment passed to the subprocess
}

// session is the subset of the MCP client surface used by Client. It exists
// so tests can substitute a fake without spawning subprocesses.
type session interface {
	Initialize(ctx context.Context, req mcpgo.InitializeRequest) (*mcpgo.InitializeResult, error)
	ListTools(ctx context.Context, req mcpgo.ListToolsRequest) (*mcpgo.ListToolsResult, error)
	CallTool(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error)
	Close() error
}

// Client manages one connected MCP server and adapts its tools.
type Client struct {
	name    string
	session session
	logger  logging.Logger
}

// Dial launches the configured server subprocess, performs the protocol
// handshake and returns a connected client. The caller owns Close.
func Dial(ctx context.Context, cfg ServerConfig, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	c, err := mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server %s: %w", cfg.Name, err)
	}

	client := &Client{name: cfg.Name, session: c, logger: logger}
	if err := client.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return client, nil
}

// newClientWithSession wires a pre-built session; used by tests.
func newClientWithSession(name string, s session, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Client{name: name, session: s, logger: logger}
}

func (c *Client) initialize(ctx context.Context) error {
	req := mcpgo.InitializeRequest{}
	req.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcpgo.Implementation{Name: "opspilot", Version: "0.1.0"}

	if _, err := c.session.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initialize mcp server %s: %w", c.name, err)
	}
	return nil
}

// Name returns the logical server name.
func (c *Client) Name() string { return c.name }

// Tools queries the server's tool list and wraps each entry as a tool.Tool
// that proxies calls back through this client.
func (c *Client) Tools(ctx context.Context) ([]tool.Tool, error) {
	res, err := c.session.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools on %s: %w", c.name, err)
	}

	tools := make([]tool.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, &remoteTool{client: c, def: t})
	}

	c.logger.Info("mcp.tools.listed", "server", c.name, "count", len(tools))
	return tools, nil
}

// Close terminates the server subprocess.
func (c *Client) Close() error { return c.session.Close() }

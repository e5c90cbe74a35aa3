package mcp

import (
	"context"

	"github.com/opspilot/opspilot/logging"
	"github.com/opspilot/opspilot/tool"
)

// Manager connects a set of MCP servers and aggregates their tools. Servers
// that fail to start or answer are logged and skipped, so a missing uvx or
// npx binary degrades the tool set instead of aborting the run.
type Manager struct {
	clients []*Client
	tools   []tool.Tool
	logger  logging.Logger
}

// NewManager dials every configured server. It never returns an error:
// unreachable servers are reported through the logger and left out.
func NewManager(ctx context.Context, configs []ServerConfig, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	m := &Manager{logger: logger}
	for _, cfg := range configs {
		client, err := Dial(ctx, cfg, logger)
		if err != nil {
			logger.Warn("mcp.server.unavailable", "server", cfg.Name, "error", err.Error())
			continue
		}

		tools, err := client.Tools(ctx)
		if err != nil {
			logger.Warn("mcp.server.list_failed", "server", cfg.Name, "error", err.Error())
			_ = client.Close()
			continue
		}

		m.clients = append(m.clients, client)
		m.tools = append(m.tools, tools...)
		logger.Info("mcp.server.connected", "server", cfg.Name, "tools", len(tools))
	}
	return m
}

// Tools returns the aggregated tools of all connected servers.
func (m *Manager) Tools() []tool.Tool {
	out := make([]tool.Tool, len(m.tools))
	copy(out, m.tools)
	return out
}

// Servers returns the names of the servers that connected successfully.
func (m *Manager) Servers() []string {
	names := make([]string, 0, len(m.clients))
	for _, c := range m.clients {
		names = append(names, c.name)
	}
	return names
}

// Close shuts down all connected servers.
func (m *Manager) Close() {
	for _, c := range m.clients {
		if err := c.Close(); err != nil {
			m.logger.Warn("mcp.server.close_failed", "server", c.name, "error", err.Error())
		}
	}
	m.clients = nil
	m.tools = nil
}

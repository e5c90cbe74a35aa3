package mcp

import (
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/tool"
)

// remoteTool exposes one MCP server tool through the tool.Tool interface.
type remoteTool struct {
	client *Client
	def    mcpgo.Tool
}

func (t *remoteTool) Name() string { return t.def.Name }

func (t *remoteTool) Description() string {
	if t.def.Description != "" {
		return t.def.Description
	}
	return "Tool " + t.def.Name + " provided by MCP server " + t.client.name
}

func (t *remoteTool) Parameters() map[string]any {
	schema := map[string]any{"type": "object"}
	if t.def.InputSchema.Type != "" {
		schema["type"] = t.def.InputSchema.Type
	}
	if len(t.def.InputSchema.Properties) > 0 {
		props := make(map[string]any, len(t.def.InputSchema.Properties))
		for name, prop := range t.def.InputSchema.Properties {
			props[name] = prop
		}
		schema["properties"] = props
	}
	if len(t.def.InputSchema.Required) > 0 {
		schema["required"] = t.def.InputSchema.Required
	}
	return schema
}

func (t *remoteTool) Call(toolCtx *core.ToolContext, params map[string]any) (any, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = t.def.Name
	req.Params.Arguments = params

	res, err := t.client.session.CallTool(toolCtx.Context, req)
	if err != nil {
		return nil, tool.NewToolError(t.def.Name, "mcp call failed: "+err.Error(), "MCP_ERROR")
	}

	text := flattenContent(res.Content)
	if res.IsError {
		return nil, tool.NewToolError(t.def.Name, text, "MCP_TOOL_ERROR")
	}
	return text, nil
}

// flattenContent joins the textual parts of an MCP tool result. Non-text
// content (images, resources) is skipped.
func flattenContent(content []mcpgo.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

package mcp

import (
	"context"
	"errors"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/logging"
	"github.com/opspilot/opspilot/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	tools      []mcpgo.Tool
	listErr    error
	callResult *mcpgo.CallToolResult
	callErr    error
	lastCall   mcpgo.CallToolRequest
	closed     bool
}

func (f *fakeSession) Initialize(_ context.Context, _ mcpgo.InitializeRequest) (*mcpgo.InitializeResult, error) {
	return &mcpgo.InitializeResult{}, nil
}

func (f *fakeSession) ListTools(_ context.Context, _ mcpgo.ListToolsRequest) (*mcpgo.ListToolsResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &mcpgo.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeSession) CallTool(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	f.lastCall = req
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResult, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()

	runCtx := core.NewRunContext(context.Background(), "session-1", "run-1", nil, nil, nil)
	return core.NewToolContext(runCtx, "call-1")
}

func TestClientTools(t *testing.T) {
	session := &fakeSession{
		tools: []mcpgo.Tool{
			{Name: "search_documentation", Description: "Search AWS docs"},
			{Name: "read_documentation"},
		},
	}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	tools, err := client.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)

	assert.Equal(t, "search_documentation", tools[0].Name())
	assert.Equal(t, "Search AWS docs", tools[0].Description())
	assert.Contains(t, tools[1].Description(), "aws-docs")
}

func TestClientToolsListError(t *testing.T) {
	session := &fakeSession{listErr: errors.New("broken pipe")}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	_, err := client.Tools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aws-docs")
}

func TestRemoteToolParameters(t *testing.T) {
	session := &fakeSession{
		tools: []mcpgo.Tool{
			{
				Name: "search_documentation",
				InputSchema: mcpgo.ToolInputSchema{
					Type: "object",
					Properties: map[string]any{
						"search_phrase": map[string]any{"type": "string"},
					},
					Required: []string{"search_phrase"},
				},
			},
		},
	}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	tools, err := client.Tools(context.Background())
	require.NoError(t, err)

	params := tools[0].Parameters()
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []string{"search_phrase"}, params["required"])

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "search_phrase")
}

func TestRemoteToolCall(t *testing.T) {
	session := &fakeSession{
		tools: []mcpgo.Tool{{Name: "search_documentation"}},
		callResult: &mcpgo.CallToolResult{
			Content: []mcpgo.Content{
				mcpgo.TextContent{Type: "text", Text: "first"},
				mcpgo.TextContent{Type: "text", Text: "second"},
			},
		},
	}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	tools, err := client.Tools(context.Background())
	require.NoError(t, err)

	result, err := tools[0].Call(newToolContext(t), map[string]any{"search_phrase": "eks"})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", result)

	args, ok := session.lastCall.Params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "eks", args["search_phrase"])
}

func TestRemoteToolCallServerError(t *testing.T) {
	session := &fakeSession{
		tools: []mcpgo.Tool{{Name: "search_documentation"}},
		callResult: &mcpgo.CallToolResult{
			IsError: true,
			Content: []mcpgo.Content{mcpgo.TextContent{Type: "text", Text: "rate limited"}},
		},
	}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	tools, err := client.Tools(context.Background())
	require.NoError(t, err)

	_, err = tools[0].Call(newToolContext(t), map[string]any{})
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "MCP_TOOL_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "rate limited")
}

func TestRemoteToolCallTransportError(t *testing.T) {
	session := &fakeSession{
		tools:   []mcpgo.Tool{{Name: "search_documentation"}},
		callErr: errors.New("process exited"),
	}
	client := newClientWithSession("aws-docs", session, logging.NoOpLogger{})

	tools, err := client.Tools(context.Background())
	require.NoError(t, err)

	_, err = tools[0].Call(newToolContext(t), map[string]any{})
	require.Error(t, err)

	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "MCP_ERROR", toolErr.Code)
}

func TestManagerSkipsUnavailableServers(t *testing.T) {
	configs := []ServerConfig{
		{Name: "missing", Command: "definitely-not-a-real-binary"},
	}

	manager := NewManager(context.Background(), configs, logging.NoOpLogger{})
	defer manager.Close()

	assert.Empty(t, manager.Tools())
	assert.Empty(t, manager.Servers())
}

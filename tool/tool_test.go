package tool

import (
	"context"
	"testing"

	"github.com/opspilot/opspilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	rc := core.NewRunContext(context.Background(), "test-session", "test-run", nil, nil, nil)
	return core.NewToolContext(rc, "fc-test")
}

func TestFunctionTool_Call_Success(t *testing.T) {
	sum := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		ObjectSchema(map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		}, "a", "b"),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	result, err := sum.Call(newToolContext(t), map[string]any{"a": 1.5, "b": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestFunctionTool_Call_MissingRequired(t *testing.T) {
	echo := NewFunctionTool(
		"echo",
		"Echo the input",
		ObjectSchema(map[string]any{
			"text": map[string]any{"type": "string"},
		}, "text"),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)

	_, err := echo.Call(newToolContext(t), map[string]any{})
	require.Error(t, err)

	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestFunctionTool_Call_WrongType(t *testing.T) {
	echo := NewFunctionTool(
		"echo",
		"Echo the input",
		ObjectSchema(map[string]any{
			"text": map[string]any{"type": "string"},
		}, "text"),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)

	_, err := echo.Call(newToolContext(t), map[string]any{"text": 42})
	require.Error(t, err)

	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_Call_ExecutionError(t *testing.T) {
	failing := NewFunctionTool(
		"failing",
		"Always fails",
		ObjectSchema(map[string]any{}),
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, assert.AnError
		},
	)

	_, err := failing.Call(newToolContext(t), map[string]any{})
	require.Error(t, err)

	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestCalculatorTool(t *testing.T) {
	calc := NewCalculatorTool()

	result, err := calc.Call(newToolContext(t), map[string]any{"expression": "(10 + 20 + 30) / 3"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, result)
}

func TestCalculatorTool_InvalidExpression(t *testing.T) {
	calc := NewCalculatorTool()

	_, err := calc.Call(newToolContext(t), map[string]any{"expression": "1 +* 2"})
	require.Error(t, err)
}

func TestCurrentTimeTool_UnknownTimezone(t *testing.T) {
	clock := NewCurrentTimeTool()

	_, err := clock.Call(newToolContext(t), map[string]any{"timezone": "Mars/Olympus"})
	require.Error(t, err)
}

func TestShellTool(t *testing.T) {
	shell := NewShellTool()

	result, err := shell.Call(newToolContext(t), map[string]any{"command": "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", result)
}

func TestShellTool_Failure(t *testing.T) {
	shell := NewShellTool()

	_, err := shell.Call(newToolContext(t), map[string]any{"command": "exit 3"})
	require.Error(t, err)
}

func TestUseAWSTool_CLIValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "sliverblaze", "sliverblaze"},
		{"number", 3.0, "3"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"map", map[string]any{"name": "x"}, `{"name":"x"}`},
		{"list", []any{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cliValue(tt.in))
		})
	}
}

func TestBuiltins(t *testing.T) {
	tools := Builtins("us-east-1")
	require.Len(t, tools, 4)

	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
	}
	assert.ElementsMatch(t, []string{"calculator", "current_time", "use_aws", "shell"}, names)
}

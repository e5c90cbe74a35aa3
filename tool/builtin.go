package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/opspilot/opspilot/core"
)

// Default timeout for tools that shell out to external binaries.
const commandTimeout = 120 * time.Second

// NewCalculatorTool returns a tool evaluating arithmetic expressions.
func NewCalculatorTool() *FunctionTool {
	return NewFunctionTool(
		"calculator",
		"Evaluate a mathematical expression and return the numeric result. Supports +, -, *, /, %, **, parentheses and comparison operators.",
		ObjectSchema(map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "The expression to evaluate, e.g. (10 + 20 + 30) / 3",
			},
		}, "expression"),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			exprText, _ := args["expression"].(string)
			expr, err := govaluate.NewEvaluableExpression(exprText)
			if err != nil {
				return nil, fmt.Errorf("invalid expression: %w", err)
			}
			result, err := expr.Evaluate(nil)
			if err != nil {
				return nil, fmt.Errorf("evaluation failed: %w", err)
			}
			return result, nil
		},
	)
}

// NewCurrentTimeTool returns a tool reporting the current time, optionally
// in a named IANA timezone.
func NewCurrentTimeTool() *FunctionTool {
	return NewFunctionTool(
		"current_time",
		"Get the current date and time, optionally in a specific IANA timezone (e.g. Europe/Berlin). Defaults to UTC.",
		ObjectSchema(map[string]any{
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name. Defaults to UTC.",
			},
		}),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			loc := time.UTC
			if tz, ok := args["timezone"].(string); ok && tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
				}
				loc = l
			}
			return time.Now().In(loc).Format(time.RFC3339), nil
		},
	)
}

// NewShellTool returns a tool executing shell commands (kubectl, docker, git,
// file operations). Output combines stdout and stderr so diagnostics from
// failing commands reach the model.
func NewShellTool() *FunctionTool {
	return NewFunctionTool(
		"shell",
		"Execute a shell command and return its combined output. Use for kubectl, docker, git and file operations.",
		ObjectSchema(map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
		}, "command"),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			command, _ := args["command"].(string)
			ctx, cancel := context.WithTimeout(toolCtx.Context, commandTimeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, "sh", "-c", command)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return nil, fmt.Errorf("command failed: %w\n%s", err, string(out))
			}
			return string(out), nil
		},
	)
}

// NewUseAWSTool returns a tool invoking the AWS CLI for a given service and
// operation. Parameters map to CLI flags; region falls back to defaultRegion.
func NewUseAWSTool(defaultRegion string) *FunctionTool {
	return NewFunctionTool(
		"use_aws",
		"Call an AWS service operation via the AWS CLI, e.g. service_name=eks operation_name=describe-cluster parameters={\"name\":\"sliverblaze\"}.",
		ObjectSchema(map[string]any{
			"service_name": map[string]any{
				"type":        "string",
				"description": "AWS service, e.g. ec2, eks, s3api",
			},
			"operation_name": map[string]any{
				"type":        "string",
				"description": "Operation in CLI form, e.g. describe-instances",
			},
			"region": map[string]any{
				"type":        "string",
				"description": "AWS region override",
			},
			"parameters": map[string]any{
				"type":        "object",
				"description": "Operation parameters mapped to --key value flags",
			},
		}, "service_name", "operation_name"),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			service, _ := args["service_name"].(string)
			operation, _ := args["operation_name"].(string)
			region, _ := args["region"].(string)
			if region == "" {
				region = defaultRegion
			}

			cliArgs := []string{service, operation, "--output", "json"}
			if region != "" {
				cliArgs = append(cliArgs, "--region", region)
			}
			if params, ok := args["parameters"].(map[string]any); ok {
				for k, v := range params {
					flag := "--" + strings.ReplaceAll(k, "_", "-")
					cliArgs = append(cliArgs, flag, cliValue(v))
				}
			}

			ctx, cancel := context.WithTimeout(toolCtx.Context, commandTimeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, "aws", cliArgs...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				return nil, fmt.Errorf("aws %s %s failed: %w\n%s", service, operation, err, string(out))
			}
			return string(out), nil
		},
	)
}

// cliValue renders a parameter value as an AWS CLI flag argument. Scalars
// pass through as-is; maps and lists are JSON-encoded, which is the shorthand
// syntax the CLI parses.
func cliValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case bool, float64, int, int64:
		return fmt.Sprintf("%v", val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}

// Builtins returns the default local tool set the executor agents receive.
func Builtins(defaultRegion string) []Tool {
	return []Tool{
		NewCalculatorTool(),
		NewCurrentTimeTool(),
		NewUseAWSTool(defaultRegion),
		NewShellTool(),
	}
}

// Package model defines the normalized request/response contract between
// agents and hosted language model providers, plus a deterministic MockModel
// for tests.
package model

import (
	"context"
	"fmt"

	"github.com/opspilot/opspilot/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete output of one model turn. Content may contain a
// mix of text and function call parts.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_use", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Generate blocks until the provider returns a complete turn.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests.
type MockModel struct {
	info      Info
	responses map[string]string
	calls     []Request
	toolCalls map[string]core.FunctionCall
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
		toolCalls: make(map[string]core.FunctionCall),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// AddToolCall registers a function call to emit when the prompt matches. The
// follow-up turn (after the tool response is appended) falls through to
// AddResponse lookups.
func (m *MockModel) AddToolCall(prompt string, call core.FunctionCall) {
	m.toolCalls[prompt] = call
}

// Requests returns every request this mock has served, in order.
func (m *MockModel) Requests() []Request { return m.calls }

// Generate implements Model with canned lookups keyed by the text of the
// last user-visible content.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	m.calls = append(m.calls, req)
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("no contents provided")
	}

	var inputText string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == "user" {
			inputText = req.Contents[i].Text()
			break
		}
	}

	// Emit a tool call only once per prompt; the second pass (with the tool
	// response in history) returns plain text.
	last := req.Contents[len(req.Contents)-1]
	if call, ok := m.toolCalls[inputText]; ok && last.Role != "tool" {
		return &Response{
			Content:      core.Content{Role: "assistant", Parts: []core.Part{core.FunctionCallPart{FunctionCall: call}}},
			FinishReason: "tool_use",
		}, nil
	}

	full := m.responses[inputText]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	return &Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: full}}},
		FinishReason: "stop",
	}, nil
}

// Info returns metadata describing this mock implementation.
func (m *MockModel) Info() Info { return m.info }

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/model"
	"github.com/opspilot/opspilot/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunContext() *core.RunContext {
	return core.NewRunContext(context.Background(), "session-1", "run-1", nil, nil, nil)
}

type failingModel struct{}

func (failingModel) Generate(_ context.Context, _ model.Request) (*model.Response, error) {
	return nil, errors.New("provider unavailable")
}

func (failingModel) Info() model.Info {
	return model.Info{Name: "failing", Provider: "mock"}
}

func TestModelAgentPlainResponse(t *testing.T) {
	llm := model.NewMockModel("test-model")
	llm.AddResponse("what pods are failing?", "No failing pods found.")

	a := NewModelAgent("kubectl_command_agent", llm)
	runCtx := newRunContext()

	out, err := a.Run(runCtx, "what pods are failing?")
	require.NoError(t, err)
	assert.Equal(t, "No failing pods found.", out)

	events := runCtx.Session.GetEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "user", events[0].Content.Role)
	assert.Equal(t, "assistant", events[1].Content.Role)
	require.NotNil(t, events[1].TurnComplete)
	assert.True(t, *events[1].TurnComplete)
}

func TestModelAgentToolLoop(t *testing.T) {
	var gotParams map[string]any
	lookup := tool.NewFunctionTool(
		"cluster_lookup",
		"Look up a cluster attribute",
		tool.ObjectSchema(map[string]any{
			"key": map[string]any{"type": "string"},
		}, "key"),
		func(_ *core.ToolContext, params map[string]any) (any, error) {
			gotParams = params
			return "3 nodes", nil
		},
	)

	llm := model.NewMockModel("test-model")
	llm.AddToolCall("how many nodes?", core.FunctionCall{
		ID:        "call-1",
		Name:      "cluster_lookup",
		Arguments: `{"key":"node_count"}`,
	})
	llm.AddResponse("how many nodes?", "The cluster has 3 nodes.")

	a := NewModelAgent("kubectl_command_agent", llm, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{lookup}
	})
	runCtx := newRunContext()

	out, err := a.Run(runCtx, "how many nodes?")
	require.NoError(t, err)
	assert.Equal(t, "The cluster has 3 nodes.", out)
	assert.Equal(t, map[string]any{"key": "node_count"}, gotParams)

	// user, assistant tool call, tool response, assistant answer
	events := runCtx.Session.GetEvents()
	require.Len(t, events, 4)

	responses := events[2].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "call-1", responses[0].ID)
	assert.Equal(t, "3 nodes", responses[0].Response)
	assert.Empty(t, responses[0].Error)
}

func TestModelAgentUnknownToolReportedToModel(t *testing.T) {
	llm := model.NewMockModel("test-model")
	llm.AddToolCall("check the cluster", core.FunctionCall{
		ID:   "call-1",
		Name: "does_not_exist",
	})
	llm.AddResponse("check the cluster", "I could not run that tool.")

	a := NewModelAgent("kubectl_command_agent", llm)
	runCtx := newRunContext()

	out, err := a.Run(runCtx, "check the cluster")
	require.NoError(t, err)
	assert.Equal(t, "I could not run that tool.", out)

	events := runCtx.Session.GetEvents()
	require.Len(t, events, 4)

	responses := events[2].GetFunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Error, "not found")
}

// chattyModel requests the same tool on every turn and never finishes.
type chattyModel struct{ turns int }

func (m *chattyModel) Generate(_ context.Context, _ model.Request) (*model.Response, error) {
	m.turns++
	return &model.Response{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "call-1", Name: "noop"}},
		}},
		FinishReason: "tool_use",
	}, nil
}

func (m *chattyModel) Info() model.Info {
	return model.Info{Name: "chatty", Provider: "mock", SupportsTools: true}
}

func TestModelAgentToolRoundBudget(t *testing.T) {
	llm := &chattyModel{}
	noop := tool.NewFunctionTool("noop", "does nothing", tool.ObjectSchema(nil),
		func(*core.ToolContext, map[string]any) (any, error) { return "ok", nil })

	a := NewModelAgent("task_executor", llm, func(o *ModelAgentOptions) {
		o.Tools = []tool.Tool{noop}
		o.MaxToolRounds = 3
	})

	_, err := a.Run(newRunContext(), "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 3 tool rounds")
	assert.Equal(t, 3, llm.turns)
}

func TestModelAgentGenerateError(t *testing.T) {
	a := NewModelAgent("task_decomposer", failingModel{})
	runCtx := newRunContext()

	_, err := a.Run(runCtx, "break this down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")

	// user message plus the recorded error event
	events := runCtx.Session.GetEvents()
	require.Len(t, events, 2)
	require.NotNil(t, events[1].ErrorMessage)
}

func TestModelAgentDefaults(t *testing.T) {
	a := NewModelAgent("result_aggregator", model.NewMockModel("test-model"))

	assert.Equal(t, "result_aggregator", a.Name())
	assert.Equal(t, "Agent result_aggregator", a.Description())
	assert.Empty(t, a.ListTools())
	assert.False(t, a.HasTool("anything"))
}

func TestInstructionResolve(t *testing.T) {
	runCtx := newRunContext()

	static := NewInstructionFromText("You are a kubectl expert.")
	assert.True(t, static.IsStatic())

	text, err := static.Resolve(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "You are a kubectl expert.", text)

	dynamic := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		return "Session " + rc.SessionID, nil
	})
	assert.False(t, dynamic.IsStatic())

	text, err = dynamic.Resolve(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "Session session-1", text)
}

package ui

import (
	"testing"

	"github.com/opspilot/opspilot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantType  string
		wantTool  string
		wantInput string
		wantMsg   string
	}{
		{
			name:      "tool use with name",
			payload:   `{"current_tool_use": {"name": "shell", "input": {"command": "kubectl get pods"}}}`,
			wantType:  KindToolUse,
			wantTool:  "shell",
			wantInput: `{"command": "kubectl get pods"}`,
		},
		{
			name:     "tool use without name stays unclassified",
			payload:  `{"current_tool_use": {"input": {}}}`,
			wantType: KindNA,
		},
		{
			name:     "text data",
			payload:  `{"data": "Checking the cluster now."}`,
			wantType: KindText,
			wantMsg:  "Checking the cluster now.",
		},
		{
			name:     "message start",
			payload:  `{"event": {"messageStart": {"role": "assistant"}}}`,
			wantType: KindControl,
			wantMsg:  "Message generation started",
		},
		{
			name:     "message stop",
			payload:  `{"event": {"messageStop": {"stopReason": "end_turn"}}}`,
			wantType: KindControl,
			wantMsg:  "Message generation ended",
		},
		{
			name:     "content block start with tool use keeps the tool name",
			payload:  `{"event": {"contentBlockStart": {"start": {"toolUse": {"name": "use_aws"}}}}}`,
			wantType: KindControl,
			wantTool: "use_aws",
			wantMsg:  "Content block generation started",
		},
		{
			name:     "content block stop",
			payload:  `{"event": {"contentBlockStop": {}}}`,
			wantType: KindControl,
			wantMsg:  "Content block generation ended",
		},
		{
			name:     "content block text delta",
			payload:  `{"event": {"contentBlockDelta": {"delta": {"text": "partial"}}}}`,
			wantType: KindText,
			wantMsg:  "partial",
		},
		{
			name:      "content block tool delta",
			payload:   `{"event": {"contentBlockDelta": {"delta": {"toolUse": {"input": "{\"comm"}}}}`,
			wantType:  KindToolUse,
			wantInput: `{"comm`,
		},
		{
			name:     "metadata",
			payload:  `{"event": {"metadata": {"usage": {"inputTokens": 12}}}}`,
			wantType: KindMetadata,
			wantMsg:  `Metadata: {"usage": {"inputTokens": 12}}`,
		},
		{
			name:      "top level delta tool use",
			payload:   `{"delta": {"current_tool_use": {"name": "calculator", "input": "1+1"}}}`,
			wantType:  KindToolUse,
			wantTool:  "calculator",
			wantInput: "1+1",
		},
		{
			name:     "message with role",
			payload:  `{"message": {"role": "assistant", "content": "done"}}`,
			wantType: KindMessage,
			wantMsg:  `{"role": "assistant", "content": "done"}`,
		},
		{
			name:      "message overrides tool use",
			payload:   `{"current_tool_use": {"name": "shell"}, "message": {"role": "assistant"}}`,
			wantType:  KindMessage,
			wantTool:  "shell",
			wantInput: "{}",
			wantMsg:   `{"role": "assistant"}`,
		},
		{
			name:     "unknown shape",
			payload:  `{"init_event_loop": true}`,
			wantType: KindNA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Classify([]byte(tt.payload))
			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantTool, ev.ToolName)
			assert.Equal(t, tt.wantInput, ev.ToolInput)
			assert.Equal(t, tt.wantMsg, ev.Message)
			assert.False(t, ev.Timestamp.IsZero())
		})
	}
}

func TestEventLogHandleCoreEvent(t *testing.T) {
	log := NewEventLog()

	log.HandleCoreEvent(core.NewUserMessageEvent("run-1", "check the cluster"))
	log.HandleCoreEvent(core.NewFunctionCallEvent("run-1", "kubectl_command_agent", core.FunctionCall{
		ID:        "call-1",
		Name:      "shell",
		Arguments: `{"command":"kubectl get nodes"}`,
	}))
	log.HandleCoreEvent(core.NewFunctionResponseEvent("run-1", "kubectl_command_agent", "call-1", "shell", "3 nodes ready", nil))
	log.HandleCoreEvent(core.NewMessageEvent("run-1", "result_aggregator", "All good."))

	events := log.Snapshot()
	require.Len(t, events, 4)

	assert.Equal(t, KindMessage, events[0].Type)
	assert.Contains(t, events[0].Message, "check the cluster")

	assert.Equal(t, KindToolUse, events[1].Type)
	assert.Equal(t, "shell", events[1].ToolName)
	assert.Contains(t, events[1].ToolInput, "kubectl get nodes")

	assert.Equal(t, KindMessage, events[2].Type)
	assert.Contains(t, events[2].Message, "3 nodes ready")

	assert.Equal(t, KindMessage, events[3].Type)
	assert.Contains(t, events[3].Message, "All good.")
}

func TestEventLogClear(t *testing.T) {
	log := NewEventLog()
	log.Append(AgentEvent{Type: KindText, Message: "hello"})
	log.Append(AgentEvent{Type: KindNA}) // dropped

	require.Len(t, log.Snapshot(), 1)
	log.Clear()
	assert.Empty(t, log.Snapshot())
}

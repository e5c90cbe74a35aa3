package ui

import (
	"encoding/json"
	"sync"

	"github.com/opspilot/opspilot/core"
)

// EventLog collects classified events for the dashboard's execution panel.
// It is safe for concurrent use: pipeline goroutines append while request
// handlers snapshot.
type EventLog struct {
	mu     sync.Mutex
	events []AgentEvent
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog { return &EventLog{} }

// Append records a classified event. Unclassifiable payloads are dropped.
func (l *EventLog) Append(ev AgentEvent) {
	if ev.Type == KindNA {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// Snapshot returns a copy of the recorded events in order.
func (l *EventLog) Snapshot() []AgentEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AgentEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Clear drops all recorded events.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// HandleCoreEvent adapts pipeline events into callback payloads and runs
// them through Classify. Register it as the workflow's event handler.
func (l *EventLog) HandleCoreEvent(ev core.Event) {
	payload := payloadFromEvent(ev)
	if payload == nil {
		return
	}
	l.Append(Classify(payload))
}

// payloadFromEvent projects a pipeline event into the callback payload shape
// the classifier understands. Nil means the event carries nothing displayable.
func payloadFromEvent(ev core.Event) []byte {
	if calls := ev.GetFunctionCalls(); len(calls) > 0 {
		input := json.RawMessage(calls[0].Arguments)
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		payload, _ := json.Marshal(map[string]any{
			"current_tool_use": map[string]any{
				"name":  calls[0].Name,
				"input": input,
			},
		})
		return payload
	}

	if responses := ev.GetFunctionResponses(); len(responses) > 0 {
		payload, _ := json.Marshal(map[string]any{
			"message": map[string]any{
				"role":    "tool",
				"name":    responses[0].Name,
				"content": responses[0].Response,
				"error":   responses[0].Error,
			},
		})
		return payload
	}

	if ev.Content != nil {
		payload, _ := json.Marshal(map[string]any{
			"message": map[string]any{
				"role":    ev.Content.Role,
				"author":  ev.Author,
				"content": ev.Content.Text(),
			},
		})
		return payload
	}

	if ev.ErrorMessage != nil {
		payload, _ := json.Marshal(map[string]any{
			"message": map[string]any{
				"role":    "system",
				"content": *ev.ErrorMessage,
			},
		})
		return payload
	}

	return nil
}

// Package ui contains the web dashboard: a chat-style front end over the
// workflow pipeline plus the event classification that feeds its live
// execution log.
package ui

import (
	"time"

	"github.com/tidwall/gjson"
)

// Event kinds assigned by Classify.
const (
	KindNA       = "n/a"
	KindToolUse  = "tool_use"
	KindText     = "text"
	KindControl  = "control"
	KindMessage  = "message"
	KindMetadata = "metadata"
)

// AgentEvent is a display-ready record of one classified callback payload.
type AgentEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	ToolName  string    `json:"tool_name,omitempty"`
	ToolInput string    `json:"tool_input,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Classify inspects a JSON callback payload and assigns a display category.
// It is tolerant by construction: unknown shapes fall through as "n/a" and
// missing keys default to empty strings. Later matches override earlier ones,
// mirroring how streaming payloads layer tool, text and message information.
func Classify(payload []byte) AgentEvent {
	ev := AgentEvent{Timestamp: time.Now(), Type: KindNA}

	if tu := gjson.GetBytes(payload, "current_tool_use"); tu.Exists() && tu.Get("name").String() != "" {
		ev.Type = KindToolUse
		ev.ToolName = tu.Get("name").String()
		ev.ToolInput = rawOrEmptyObject(tu.Get("input"))
	}

	if data := gjson.GetBytes(payload, "data"); data.Exists() {
		ev.Type = KindText
		ev.Message = data.String()
	}

	if inner := gjson.GetBytes(payload, "event"); inner.Exists() {
		if inner.Get("messageStart").Exists() {
			ev.Type = KindControl
			ev.Message = "Message generation started"
		}

		switch {
		case inner.Get("messageStop").Exists():
			ev.Type = KindControl
			ev.Message = "Message generation ended"
		case inner.Get("contentBlockStart").Exists():
			// A tool-use block start still reports the tool name even though
			// the record itself is a control marker.
			if name := inner.Get("contentBlockStart.start.toolUse.name"); name.Exists() {
				ev.ToolName = name.String()
			}
			ev.Type = KindControl
			ev.Message = "Content block generation started"
		case inner.Get("contentBlockStop").Exists():
			ev.Type = KindControl
			ev.Message = "Content block generation ended"
		case inner.Get("contentBlockDelta").Exists():
			if text := inner.Get("contentBlockDelta.delta.text"); text.Exists() {
				ev.Type = KindText
				ev.Message = text.String()
			} else if toolUse := inner.Get("contentBlockDelta.delta.toolUse"); toolUse.Exists() {
				ev.Type = KindToolUse
				ev.ToolInput = toolUse.Get("input").String()
			}
		case inner.Get("metadata").Exists():
			ev.Type = KindMetadata
			ev.Message = "Metadata: " + inner.Get("metadata").Raw
		}
	}

	if delta := gjson.GetBytes(payload, "delta.current_tool_use"); delta.Exists() {
		ev.Type = KindToolUse
		ev.ToolName = delta.Get("name").String()
		ev.ToolInput = delta.Get("input").String()
	}

	if msg := gjson.GetBytes(payload, "message"); msg.Exists() && msg.Get("role").Exists() {
		ev.Type = KindMessage
		ev.Message = msg.Raw
	}

	return ev
}

func rawOrEmptyObject(res gjson.Result) string {
	if !res.Exists() {
		return "{}"
	}
	return res.Raw
}

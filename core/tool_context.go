package core

// ToolContext narrows a RunContext for the duration of a single tool
// invocation, correlating execution with the originating function call id.
type ToolContext struct {
	*RunContext
	functionCallID string
}

// NewToolContext derives a ToolContext from a run context.
func NewToolContext(rc *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{RunContext: rc, functionCallID: functionCallID}
}

// FunctionCallID returns the id of the function call that triggered this
// tool invocation. Empty for direct (non-model) calls.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

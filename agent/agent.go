// Package agent provides the agent implementations that participate in the
// operations pipeline. A ModelAgent drives a language model with a system
// prompt and an optional tool set; the graph package chains agents together.
package agent

import "github.com/opspilot/opspilot/core"

// Agent processes an input string and produces an output string. Run emits
// progress events through the RunContext as it works.
type Agent interface {
	// Name returns the agent's unique name within a graph.
	Name() string

	// Description summarizes the agent's purpose.
	Description() string

	// Run executes the agent against the input. Implementations must respect
	// cancellation of the context carried by runCtx.
	Run(runCtx *core.RunContext, input string) (string, error)
}

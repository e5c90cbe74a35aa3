package agent

import (
	"encoding/json"
	"fmt"

	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/model"
	"github.com/opspilot/opspilot/tool"
)

// DefaultMaxHistoryMessages bounds the conversation window sent to the model.
const DefaultMaxHistoryMessages = 10

// DefaultMaxToolRounds bounds how many generate/tool cycles one Run may take.
const DefaultMaxToolRounds = 10

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description        string
	Instruction        Instruction
	Tools              []tool.Tool
	MaxHistoryMessages int
	MaxToolRounds      int
}

// ModelAgent drives a language model with a system prompt and an optional
// tool set. Each Run appends the input to the session, then loops generating
// model turns and executing requested tools until the model produces a plain
// text answer.
type ModelAgent struct {
	name               string
	description        string
	llm                model.Model
	instruction        Instruction
	tools              map[string]tool.Tool
	maxHistoryMessages int
	maxToolRounds      int
}

// NewModelAgent creates a model-backed agent with sensible defaults: a
// generic assistant instruction, no tools, a ten message history window and
// at most ten tool rounds per run.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Description:        fmt.Sprintf("Agent %s", name),
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxHistoryMessages: DefaultMaxHistoryMessages,
		MaxToolRounds:      DefaultMaxToolRounds,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		name:               name,
		description:        opts.Description,
		llm:                llm,
		instruction:        opts.Instruction,
		tools:              make(map[string]tool.Tool),
		maxHistoryMessages: opts.MaxHistoryMessages,
		maxToolRounds:      opts.MaxToolRounds,
	}
	a.RegisterTools(opts.Tools...)

	return a
}

// Name returns the agent's unique name.
func (a *ModelAgent) Name() string { return a.name }

// Description summarizes the agent's purpose.
func (a *ModelAgent) Description() string { return a.description }

// RegisterTool adds a tool to the agent's capability set. A tool with the
// same name replaces the previous registration.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools to the agent's capability set.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools.
func (a *ModelAgent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	return names
}

// Run implements Agent. The input is recorded as a user message, then the
// agent alternates between model turns and tool execution until the model
// finishes with plain text or the round budget is exhausted.
func (a *ModelAgent) Run(runCtx *core.RunContext, input string) (string, error) {
	runCtx.Logger.Debug("agent.run.start", "agent", a.name, "run", runCtx.RunID)

	if err := runCtx.Emit(core.NewUserMessageEvent(runCtx.RunID, input)); err != nil {
		return "", err
	}

	instructions, err := a.instruction.Resolve(runCtx)
	if err != nil {
		return "", fmt.Errorf("resolve instructions for %s: %w", a.name, err)
	}

	defs := a.toolDefinitions()

	for round := 0; round < a.maxToolRounds; round++ {
		req := model.Request{
			Instructions: instructions,
			Contents:     historyContents(runCtx.Session, a.maxHistoryMessages),
			Tools:        defs,
		}

		resp, err := a.llm.Generate(runCtx.Context, req)
		if err != nil {
			_ = runCtx.Emit(core.NewErrorEvent(runCtx.RunID, err))
			return "", fmt.Errorf("agent %s: model generate: %w", a.name, err)
		}

		ev := core.NewEvent(runCtx.RunID, a.name)
		content := resp.Content
		ev.Content = &content

		calls := ev.GetFunctionCalls()
		if len(calls) == 0 {
			done := true
			ev.TurnComplete = &done
		}
		if err := runCtx.Emit(ev); err != nil {
			return "", err
		}

		if len(calls) == 0 {
			runCtx.Logger.Debug("agent.run.complete", "agent", a.name, "rounds", round)
			return resp.Content.Text(), nil
		}

		for _, call := range calls {
			a.executeCall(runCtx, call)
		}
	}

	return "", fmt.Errorf("agent %s exceeded %d tool rounds", a.name, a.maxToolRounds)
}

// executeCall runs a single requested tool and emits the result as a tool
// role event. Tool failures are reported back to the model rather than
// aborting the run.
func (a *ModelAgent) executeCall(runCtx *core.RunContext, call core.FunctionCall) {
	toolCtx := core.NewToolContext(runCtx, call.ID)

	result, err := a.invokeTool(toolCtx, call)
	if err != nil {
		runCtx.Logger.Warn("agent.tool.failed", "agent", a.name, "tool", call.Name, "error", err.Error())
	}

	_ = runCtx.Emit(core.NewFunctionResponseEvent(runCtx.RunID, a.name, call.ID, call.Name, result, err))
}

func (a *ModelAgent) invokeTool(toolCtx *core.ToolContext, call core.FunctionCall) (any, error) {
	t, exists := a.tools[call.Name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("unmarshal arguments for %s: %w", call.Name, err)
		}
	}

	return t.Call(toolCtx, args)
}

// toolDefinitions converts registered tools into model tool declarations.
func (a *ModelAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// historyContents projects the session's recent conversational events into
// model request contents.
func historyContents(sess *core.Session, window int) []core.Content {
	events := sess.History(window)
	contents := make([]core.Content, 0, len(events))
	for _, ev := range events {
		if ev.Content != nil {
			contents = append(contents, *ev.Content)
		}
	}
	return contents
}

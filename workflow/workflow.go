// Package workflow assembles the operations pipeline: a task decomposer, a
// kubectl command agent and a result aggregator chained into a linear graph,
// backed by built-in tools plus any tools discovered from MCP servers.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/opspilot/opspilot/agent"
	"github.com/opspilot/opspilot/config"
	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/graph"
	"github.com/opspilot/opspilot/logging"
	"github.com/opspilot/opspilot/mcp"
	"github.com/opspilot/opspilot/model"
	"github.com/opspilot/opspilot/model/anthropic"
	"github.com/opspilot/opspilot/model/openai"
	"github.com/opspilot/opspilot/tool"
)

// Node names within the pipeline graph.
const (
	NodeDecomposer = "task_decomposer"
	NodeExecutor   = "task_executor"
	NodeKubectl    = "kubectl_command_agent"
	NodeAggregator = "result_aggregator"

	historyWindow = 10
)

// DefaultPromptPath is where the kubectl agent's YAML definition is expected.
const DefaultPromptPath = "kubectl_command_agent.yaml"

// Options configures workflow construction.
type Options struct {
	Model      model.Model        // Overrides the model resolved from settings
	Logger     logging.Logger     // Defaults to the NoOp logger
	Handler    core.EventHandler  // Receives every pipeline event
	PromptPath string             // kubectl agent YAML, DefaultPromptPath when empty
	Servers    []mcp.ServerConfig // MCP servers, DefaultServers when nil
	DisableMCP bool               // Skip MCP discovery entirely
}

// Workflow is a ready-to-run operations pipeline. One workflow keeps a single
// conversation session across Execute calls so follow-up queries retain
// context. The session field is guarded by mu: the dashboard serves Execute
// and ClearHistory on concurrent request goroutines.
type Workflow struct {
	graph    *graph.Graph
	manager  *mcp.Manager
	tools    []tool.Tool
	logger   logging.Logger
	handler  core.EventHandler
	settings config.Settings

	mu      sync.Mutex
	session *core.Session
}

// DefaultServers returns the MCP server configurations for the given
// settings: the AWS documentation server (via uvx) and the GitHub server
// (via npx). Servers whose credentials are absent are omitted.
func DefaultServers(settings config.Settings) []mcp.ServerConfig {
	var servers []mcp.ServerConfig

	if settings.AWSConfigured() {
		servers = append(servers, mcp.ServerConfig{
			Name:    "aws-docs",
			Command: "uvx",
			Args:    []string{"awslabs.aws-documentation-mcp-server@latest"},
			Env: map[string]string{
				"AWS_ACCESS_KEY_ID":     settings.AWSAccessKeyID,
				"AWS_SECRET_ACCESS_KEY": settings.AWSSecretAccessKey,
				"AWS_DEFAULT_REGION":    settings.AWSDefaultRegion,
			},
		})
	}

	if settings.GitHubConfigured() {
		servers = append(servers, mcp.ServerConfig{
			Name:    "github",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-github"},
			Env: map[string]string{
				"GITHUB_PERSONAL_ACCESS_TOKEN": settings.GitHubToken,
			},
		})
	}

	return servers
}

// New builds the pipeline: resolves the model, collects built-in and MCP
// tools, loads the kubectl agent's prompt and wires the graph. MCP servers
// that fail to start degrade the tool set instead of failing construction.
func New(ctx context.Context, settings config.Settings, optFns ...func(o *Options)) (*Workflow, error) {
	opts := Options{PromptPath: DefaultPromptPath}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	llm := opts.Model
	if llm == nil {
		llm = resolveModel(settings)
	}

	tools := tool.Builtins(settings.AWSDefaultRegion)

	var manager *mcp.Manager
	if !opts.DisableMCP {
		servers := opts.Servers
		if servers == nil {
			servers = DefaultServers(settings)
		}
		manager = mcp.NewManager(ctx, servers, opts.Logger)
		tools = append(tools, manager.Tools()...)
	}
	opts.Logger.Info("workflow.tools.loaded", "count", len(tools))

	kubectlPrompt := config.LoadSystemPrompt(opts.PromptPath, opts.Logger)

	decomposer := agent.NewModelAgent(NodeDecomposer, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Breaks complex tasks into executable sub-tasks"
		o.Instruction = agent.NewInstructionFromText(decomposerPrompt)
	})

	kubectlAgent := agent.NewModelAgent(NodeKubectl, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Executes kubectl commands via the shell tool"
		o.Instruction = agent.NewInstructionFromText(kubectlPrompt)
		o.Tools = []tool.Tool{tool.NewShellTool()}
		o.MaxHistoryMessages = historyWindow
	})

	executor := agent.NewModelAgent(NodeExecutor, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Executes decomposed task lists with the full tool set"
		o.Instruction = agent.NewInstructionFromText(executorPrompt)
		o.Tools = tools
	})

	aggregator := agent.NewModelAgent(NodeAggregator, llm, func(o *agent.ModelAgentOptions) {
		o.Description = "Synthesizes task results into a structured report"
		o.Instruction = agent.NewInstructionFromText(aggregatorPrompt)
	})

	// task_executor is registered for ad hoc use but sits outside the linear
	// chain, so normal runs never reach it.
	g, err := graph.NewBuilder().
		AddNode(NodeDecomposer, decomposer).
		AddNode(NodeExecutor, executor).
		AddNode(NodeKubectl, kubectlAgent).
		AddNode(NodeAggregator, aggregator).
		AddEdge(NodeDecomposer, NodeKubectl).
		AddEdge(NodeKubectl, NodeAggregator).
		SetEntryPoint(NodeDecomposer).
		Build()
	if err != nil {
		if manager != nil {
			manager.Close()
		}
		return nil, fmt.Errorf("build pipeline graph: %w", err)
	}

	return &Workflow{
		graph:    g,
		session:  core.NewSession(core.NewID()),
		manager:  manager,
		tools:    tools,
		logger:   opts.Logger,
		handler:  opts.Handler,
		settings: settings,
	}, nil
}

// resolveModel picks a provider adapter from the configured model id.
func resolveModel(settings config.Settings) model.Model {
	id := settings.ModelID
	if strings.Contains(id, "gpt") || strings.HasPrefix(id, "o1") {
		return openai.NewModel(func(o *openai.Options) {
			o.Model = id
		})
	}
	return anthropic.NewModel(func(o *anthropic.Options) {
		o.Model = anthropic.NormalizeModelID(id)
		o.APIKey = settings.AnthropicAPIKey
	})
}

// Execute runs the pipeline for one query and returns the aggregator's
// report formatted as markdown.
func (w *Workflow) Execute(ctx context.Context, query string) (string, error) {
	runID := core.NewID()
	sess := w.Session()
	runCtx := core.NewRunContext(ctx, sess.ID, runID, sess, w.handler, w.logger)

	w.logger.Info("workflow.execute.start", "run", runID, "query", query)

	result, err := w.graph.Execute(runCtx, query)
	if err != nil {
		return "", fmt.Errorf("execute pipeline: %w", err)
	}

	output := extractFinalResult(result)
	w.logger.Info("workflow.execute.complete", "run", runID, "nodes", len(result.ExecutionOrder))

	return FormatMarkdown(output), nil
}

// extractFinalResult prefers the aggregator's output, then the last executed
// node, then an empty report marker.
func extractFinalResult(result *graph.Result) string {
	if out, ok := result.Output(NodeAggregator); ok {
		return out
	}
	if out := result.FinalOutput(); out != "" {
		return out
	}
	return fmt.Sprintf("%v", result.Results)
}

// Tools returns the names of every tool available to the executor agent.
func (w *Workflow) Tools() []string {
	names := make([]string, 0, len(w.tools))
	for _, t := range w.tools {
		names = append(names, t.Name())
	}
	return names
}

// Servers returns the names of connected MCP servers.
func (w *Workflow) Servers() []string {
	if w.manager == nil {
		return nil
	}
	return w.manager.Servers()
}

// Settings exposes the runtime settings the workflow was built with.
func (w *Workflow) Settings() config.Settings { return w.settings }

// Session returns the conversation session shared by Execute calls.
func (w *Workflow) Session() *core.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// ClearHistory resets the conversation session. Runs already in flight keep
// appending to the session they started with.
func (w *Workflow) ClearHistory() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = core.NewSession(core.NewID())
}

// Close releases MCP server subprocesses.
func (w *Workflow) Close() {
	if w.manager != nil {
		w.manager.Close()
	}
}

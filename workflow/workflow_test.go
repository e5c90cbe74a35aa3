package workflow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opspilot/opspilot/config"
	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testQuery      = "find any issues with EKS cluster sliverblaze"
	decomposedJSON = `[{"index": 1, "task_name": "inspect_pods", "task_description": "kubectl get pods -A"}]`
	kubectlReport  = "All pods are running. No restarts observed."
)

func newTestWorkflow(t *testing.T, llm model.Model, handler core.EventHandler) *Workflow {
	t.Helper()

	promptPath := filepath.Join(t.TempDir(), "kubectl_command_agent.yaml")
	require.NoError(t, os.WriteFile(promptPath, []byte(
		"name: kubectl_command_agent\nsystem_prompt: You are a Kubernetes command execution agent.\n",
	), 0o644))

	w, err := New(context.Background(), config.Settings{AWSDefaultRegion: config.DefaultRegion},
		func(o *Options) {
			o.Model = llm
			o.Handler = handler
			o.PromptPath = promptPath
			o.DisableMCP = true
		})
	require.NoError(t, err)
	t.Cleanup(w.Close)

	return w
}

func newPipelineMock() *model.MockModel {
	llm := model.NewMockModel("test-model")
	llm.AddResponse(testQuery, decomposedJSON)
	llm.AddResponse(decomposedJSON, kubectlReport)
	llm.AddResponse(kubectlReport, "Executive Summary\nCluster sliverblaze is healthy.\n\nKey Findings\n- no failing pods")
	return llm
}

func TestWorkflowExecutePipeline(t *testing.T) {
	var events []core.Event
	w := newTestWorkflow(t, newPipelineMock(), func(ev core.Event) {
		events = append(events, ev)
	})

	out, err := w.Execute(context.Background(), testQuery)
	require.NoError(t, err)

	// Aggregator output, reformatted as markdown.
	assert.Contains(t, out, "## Executive Summary")
	assert.Contains(t, out, "## Key Findings")
	assert.Contains(t, out, "- no failing pods")

	// Three chained agents, two events each (user input, assistant reply).
	require.Len(t, events, 6)
	assert.Equal(t, "user", events[0].Content.Role)
	assert.Equal(t, NodeDecomposer, events[1].Author)
	assert.Equal(t, NodeKubectl, events[3].Author)
	assert.Equal(t, NodeAggregator, events[5].Author)
}

func TestWorkflowFallsBackToDefaultPrompt(t *testing.T) {
	llm := newPipelineMock()

	w, err := New(context.Background(), config.Settings{},
		func(o *Options) {
			o.Model = llm
			o.PromptPath = filepath.Join(t.TempDir(), "absent.yaml")
			o.DisableMCP = true
		})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Execute(context.Background(), testQuery)
	require.NoError(t, err)

	// The kubectl agent ran with the built-in default prompt.
	var sawDefault bool
	for _, req := range llm.Requests() {
		if req.Instructions == config.DefaultSystemPrompt {
			sawDefault = true
		}
	}
	assert.True(t, sawDefault)
}

func TestWorkflowToolInventory(t *testing.T) {
	w := newTestWorkflow(t, newPipelineMock(), nil)

	tools := w.Tools()
	assert.Contains(t, tools, "calculator")
	assert.Contains(t, tools, "current_time")
	assert.Contains(t, tools, "shell")
	assert.Contains(t, tools, "use_aws")
	assert.Empty(t, w.Servers())
}

// staticModel answers every request with the same text and keeps no state,
// so it is safe to share across goroutines.
type staticModel struct{ text string }

func (s staticModel) Generate(_ context.Context, _ model.Request) (*model.Response, error) {
	return &model.Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: s.text}}},
		FinishReason: "stop",
	}, nil
}

func (s staticModel) Info() model.Info {
	return model.Info{Name: "static", Provider: "mock"}
}

func TestWorkflowConcurrentExecuteAndClear(t *testing.T) {
	w := newTestWorkflow(t, staticModel{text: "Key Findings\n- fine"}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := w.Execute(context.Background(), testQuery)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			w.ClearHistory()
		}()
	}
	wg.Wait()

	assert.NotNil(t, w.Session())
}

func TestWorkflowClearHistory(t *testing.T) {
	w := newTestWorkflow(t, newPipelineMock(), nil)

	_, err := w.Execute(context.Background(), testQuery)
	require.NoError(t, err)
	assert.NotEmpty(t, w.Session().GetEvents())

	before := w.Session().ID
	w.ClearHistory()
	assert.Empty(t, w.Session().GetEvents())
	assert.NotEqual(t, before, w.Session().ID)
}

func TestDefaultServers(t *testing.T) {
	t.Run("none configured", func(t *testing.T) {
		assert.Empty(t, DefaultServers(config.Settings{}))
	})

	t.Run("aws and github", func(t *testing.T) {
		servers := DefaultServers(config.Settings{
			AWSAccessKeyID:     "AKIAEXAMPLE",
			AWSSecretAccessKey: "secret",
			AWSDefaultRegion:   "us-east-1",
			GitHubToken:        "ghp_example",
		})
		require.Len(t, servers, 2)

		assert.Equal(t, "uvx", servers[0].Command)
		assert.Equal(t, []string{"awslabs.aws-documentation-mcp-server@latest"}, servers[0].Args)
		assert.Equal(t, "us-east-1", servers[0].Env["AWS_DEFAULT_REGION"])

		assert.Equal(t, "npx", servers[1].Command)
		assert.Equal(t, "ghp_example", servers[1].Env["GITHUB_PERSONAL_ACCESS_TOKEN"])
	})
}

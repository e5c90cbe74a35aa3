// Package graph wires agents into a directed pipeline and executes them in
// order, feeding each node's output to its successor. The builder validates
// the topology up front so misconfigured pipelines fail before any model
// call is made.
package graph

import (
	"fmt"
	"time"

	"github.com/opspilot/opspilot/agent"
	"github.com/opspilot/opspilot/core"
)

// NodeResult captures the outcome of one executed node.
type NodeResult struct {
	Node     string        `json:"node"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// Result aggregates the outputs of a graph execution. Nodes that were never
// reached do not appear in ExecutionOrder or Results.
type Result struct {
	RunID          string                `json:"run_id"`
	ExecutionOrder []string              `json:"execution_order"`
	Results        map[string]NodeResult `json:"results"`
}

// FinalOutput returns the output of the last executed node, or the empty
// string when nothing ran.
func (r *Result) FinalOutput() string {
	if len(r.ExecutionOrder) == 0 {
		return ""
	}
	return r.Results[r.ExecutionOrder[len(r.ExecutionOrder)-1]].Output
}

// Output returns the result of a named node and whether it executed.
func (r *Result) Output(node string) (string, bool) {
	res, ok := r.Results[node]
	return res.Output, ok
}

// Graph is an immutable validated pipeline. Build one with a Builder.
type Graph struct {
	entry string
	nodes map[string]agent.Agent
	next  map[string]string
}

// Execute runs the pipeline starting at the entry point. The input string is
// handed to the entry node; every subsequent node receives its predecessor's
// output. Execution stops at the first failing node, returning the partial
// result alongside the error.
func (g *Graph) Execute(runCtx *core.RunContext, input string) (*Result, error) {
	result := &Result{
		RunID:   runCtx.RunID,
		Results: make(map[string]NodeResult),
	}

	for current := g.entry; current != ""; current = g.next[current] {
		node := g.nodes[current]
		runCtx.Logger.Info("graph.node.start", "node", current, "run", runCtx.RunID)

		start := time.Now()
		output, err := node.Run(runCtx, input)
		elapsed := time.Since(start)

		if err != nil {
			runCtx.Logger.Error("graph.node.failed", "node", current, "error", err.Error())
			return result, fmt.Errorf("node %s: %w", current, err)
		}

		result.ExecutionOrder = append(result.ExecutionOrder, current)
		result.Results[current] = NodeResult{Node: current, Output: output, Duration: elapsed}
		runCtx.Logger.Info("graph.node.complete", "node", current, "duration_ms", elapsed.Milliseconds())

		input = output
	}

	return result, nil
}

// Builder accumulates nodes and edges for a Graph. Methods are chainable;
// structural problems are collected and reported by Build.
type Builder struct {
	nodes map[string]agent.Agent
	next  map[string]string
	entry string
	errs  []error
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]agent.Agent),
		next:  make(map[string]string),
	}
}

// AddNode registers an agent under the given name.
func (b *Builder) AddNode(name string, a agent.Agent) *Builder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("node name must not be empty"))
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %s already added", name))
		return b
	}
	b.nodes[name] = a
	return b
}

// AddEdge connects two named nodes. Each node may have at most one outgoing
// edge; the pipeline is strictly linear.
func (b *Builder) AddEdge(from, to string) *Builder {
	if _, exists := b.next[from]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %s already has an outgoing edge", from))
		return b
	}
	b.next[from] = to
	return b
}

// SetEntryPoint marks the node execution starts from.
func (b *Builder) SetEntryPoint(name string) *Builder {
	b.entry = name
	return b
}

// Build validates the accumulated topology and returns the executable graph.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.entry == "" {
		return nil, fmt.Errorf("entry point not set")
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, fmt.Errorf("entry point %s is not a registered node", b.entry)
	}
	for from, to := range b.next {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("edge source %s is not a registered node", from)
		}
		if _, ok := b.nodes[to]; !ok {
			return nil, fmt.Errorf("edge target %s is not a registered node", to)
		}
	}

	if err := b.checkCycles(); err != nil {
		return nil, err
	}

	return &Graph{entry: b.entry, nodes: b.nodes, next: b.next}, nil
}

// checkCycles walks the successor chain from every node, not just the entry,
// so a cycle among nodes outside the entry chain is still rejected.
func (b *Builder) checkCycles() error {
	const (
		inProgress = 1
		done       = 2
	)
	state := make(map[string]int, len(b.nodes))

	for name := range b.nodes {
		if state[name] == done {
			continue
		}

		var chain []string
		current := name
		for current != "" && state[current] == 0 {
			state[current] = inProgress
			chain = append(chain, current)
			current = b.next[current]
		}
		if current != "" && state[current] == inProgress {
			return fmt.Errorf("cycle detected at node %s", current)
		}
		for _, n := range chain {
			state[n] = done
		}
	}
	return nil
}

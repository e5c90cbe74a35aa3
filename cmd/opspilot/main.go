// Command opspilot runs the multi-agent operations pipeline from the command
// line or serves the web dashboard.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/opspilot/opspilot/config"
	"github.com/opspilot/opspilot/core"
	"github.com/opspilot/opspilot/logging"
	"github.com/opspilot/opspilot/ui"
	"github.com/opspilot/opspilot/workflow"
	"github.com/spf13/cobra"
)

const defaultQuery = "What is 2+2?"

var (
	promptPath string
	noMCP      bool
	verbose    bool
	listenAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opspilot",
		Short: "Multi-agent assistant for Kubernetes and AWS operations",
		Long: `opspilot chains a task decomposer, a kubectl command agent and a result
aggregator into a linear pipeline. Agents can call built-in tools (shell,
calculator, current_time, use_aws) plus any tools discovered from configured
MCP servers.`,
	}

	rootCmd.PersistentFlags().StringVar(&promptPath, "prompt", workflow.DefaultPromptPath, "path to the kubectl agent YAML definition")
	rootCmd.PersistentFlags().BoolVar(&noMCP, "no-mcp", false, "skip MCP server discovery")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [query...]",
		Short: "Execute a query through the pipeline",
		RunE:  runQuery,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		RunE:  serveDashboard,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (defaults to OPSPILOT_LISTEN_ADDR)")

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the pipeline",
		RunE:  listTools,
	}

	rootCmd.AddCommand(runCmd, serveCmd, toolsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logging.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewSlogLogger(os.Stderr, level, "text")
}

func newWorkflow(cmd *cobra.Command, handler core.EventHandler) (*workflow.Workflow, error) {
	settings := config.LoadSettings()
	return workflow.New(cmd.Context(), settings, func(o *workflow.Options) {
		o.Logger = newLogger()
		o.Handler = handler
		o.PromptPath = promptPath
		o.DisableMCP = noMCP
	})
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		query = promptForQuery()
	}

	var handler core.EventHandler
	if verbose {
		handler = printEvent
	}

	w, err := newWorkflow(cmd, handler)
	if err != nil {
		return err
	}
	defer w.Close()

	result, err := w.Execute(cmd.Context(), query)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

// promptForQuery reads a query interactively, falling back to a default on EOF.
func promptForQuery() string {
	fmt.Print("What would you like help with? ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	query := strings.TrimSpace(line)
	if err != nil && query == "" {
		return defaultQuery
	}
	if query == "" {
		return defaultQuery
	}
	return query
}

// printEvent mirrors pipeline progress to stderr during verbose runs.
func printEvent(ev core.Event) {
	for _, call := range ev.GetFunctionCalls() {
		fmt.Fprintf(os.Stderr, "[%s] tool call: %s %s\n", ev.Author, call.Name, call.Arguments)
	}
	for _, resp := range ev.GetFunctionResponses() {
		if resp.Error != "" {
			fmt.Fprintf(os.Stderr, "[%s] tool error: %s: %s\n", ev.Author, resp.Name, resp.Error)
		} else {
			fmt.Fprintf(os.Stderr, "[%s] tool result: %s\n", ev.Author, resp.Name)
		}
	}
	if ev.Content != nil && ev.IsFinalResponse() {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", ev.Author, ev.Content.Role, ev.Content.Text())
	}
}

func serveDashboard(cmd *cobra.Command, _ []string) error {
	eventLog := ui.NewEventLog()

	w, err := newWorkflow(cmd, eventLog.HandleCoreEvent)
	if err != nil {
		return err
	}
	defer w.Close()

	addr := listenAddr
	if addr == "" {
		addr = w.Settings().ListenAddr
	}

	server := ui.NewServer(w, eventLog, newLogger())
	return server.ListenAndServe(addr)
}

func listTools(cmd *cobra.Command, _ []string) error {
	w, err := newWorkflow(cmd, nil)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, name := range w.Tools() {
		fmt.Println(name)
	}
	if servers := w.Servers(); len(servers) > 0 {
		fmt.Println("\nConnected MCP servers:")
		for _, name := range servers {
			fmt.Println(name)
		}
	}
	return nil
}

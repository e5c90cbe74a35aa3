package ui

import (
	"context"
	"html/template"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/opspilot/opspilot/config"
	"github.com/opspilot/opspilot/logging"
)

// Runner is the slice of the workflow surface the dashboard needs.
type Runner interface {
	Execute(ctx context.Context, query string) (string, error)
	Tools() []string
	Servers() []string
	Settings() config.Settings
	ClearHistory()
}

// ChatEntry is one query/response pair in the dashboard history.
type ChatEntry struct {
	Query    string
	Response string
	Err      string
}

// Server renders the dashboard and dispatches queries to the runner.
type Server struct {
	runner   Runner
	eventLog *EventLog
	logger   logging.Logger
	router   *mux.Router

	mu      sync.Mutex
	history []ChatEntry
}

// NewServer builds the dashboard around a runner and its event log.
func NewServer(runner Runner, eventLog *EventLog, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if eventLog == nil {
		eventLog = NewEventLog()
	}

	s := &Server{runner: runner, eventLog: eventLog, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/execute", s.handleExecute).Methods(http.MethodPost)
	r.HandleFunc("/clear", s.handleClear).Methods(http.MethodPost)
	s.router = r

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the dashboard on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("ui.listen", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

type pageData struct {
	History          []ChatEntry
	Events           []AgentEvent
	Tools            []string
	Servers          []string
	AWSConfigured    bool
	GitHubConfigured bool
	Examples         []string
}

var exampleQueries = []string{
	"Find issues with EKS cluster sliverblaze",
	"List all AWS EC2 instances in us-east-1",
	"Check kubectl cluster info and node status",
	"Calculate the average of 10, 20, 30, 40, 50",
	"What time is it and list current directory contents",
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	settings := s.runner.Settings()

	s.mu.Lock()
	history := make([]ChatEntry, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	data := pageData{
		History:          history,
		Events:           s.eventLog.Snapshot(),
		Tools:            s.runner.Tools(),
		Servers:          s.runner.Servers(),
		AWSConfigured:    settings.AWSConfigured(),
		GitHubConfigured: settings.GitHubConfigured(),
		Examples:         exampleQueries,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("ui.render.failed", "error", err.Error())
	}
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	query := r.PostFormValue("query")
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.logger.Info("ui.execute", "query", query)

	entry := ChatEntry{Query: query}
	result, err := s.runner.Execute(r.Context(), query)
	if err != nil {
		entry.Err = err.Error()
		s.logger.Error("ui.execute.failed", "error", err.Error())
	} else {
		entry.Response = result
	}

	s.mu.Lock()
	s.history = append(s.history, entry)
	s.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	s.eventLog.Clear()
	s.runner.ClearHistory()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>OpsPilot Dashboard</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
aside { width: 260px; padding: 16px; background: #f4f4f4; min-height: 100vh; }
main { flex: 1; padding: 16px; }
.columns { display: flex; gap: 16px; }
.chat { flex: 2; }
.events { flex: 1; }
.event-box { height: 300px; overflow-y: auto; border: 1px solid #ccc; padding: 10px; }
.entry { border: 1px solid #ddd; border-radius: 4px; padding: 10px; margin-bottom: 10px; }
.entry .response { white-space: pre-wrap; }
.error { color: #b00020; }
textarea { width: 100%; height: 100px; }
</style>
</head>
<body>
<aside>
<h2>Configuration</h2>
<h3>Available Tools</h3>
<ul>{{range .Tools}}<li>{{.}}</li>{{end}}</ul>
<h3>MCP Servers</h3>
{{if .Servers}}<ul>{{range .Servers}}<li>{{.}}</li>{{end}}</ul>{{else}}<p>None connected</p>{{end}}
<h3>Environment</h3>
<p>AWS: {{if .AWSConfigured}}configured{{else}}not configured{{end}}</p>
<p>GitHub: {{if .GitHubConfigured}}configured{{else}}not configured{{end}}</p>
<form method="post" action="/clear"><button type="submit">Clear Chat History</button></form>
</aside>
<main>
<h1>OpsPilot Multi-Agent Interface</h1>
<p>Intelligent task decomposition and execution with specialized agents</p>
<div class="columns">
<div class="chat">
<h2>Chat</h2>
{{range .History}}
<div class="entry">
<p><strong>You:</strong> {{.Query}}</p>
{{if .Err}}<p class="error">Execution failed: {{.Err}}</p>{{else}}<div class="response">{{.Response}}</div>{{end}}
</div>
{{end}}
<form method="post" action="/execute">
<textarea name="query" placeholder="Enter your query"></textarea>
<p><button type="submit">Execute Query</button></p>
</form>
<h3>Example Queries</h3>
<ul>{{range .Examples}}<li>{{.}}</li>{{end}}</ul>
</div>
<div class="events">
<h2>Agent Events</h2>
<div class="event-box">
{{range .Events}}
<p><strong>[{{.Timestamp.Format "2006-01-02 15:04:05"}}] {{.Type}}:</strong>
{{if eq .Type "tool_use"}}{{.ToolName}} with input {{.ToolInput}}{{else}}{{.Message}}{{end}}</p>
{{end}}
</div>
</div>
</div>
</main>
</body>
</html>
`))

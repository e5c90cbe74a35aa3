package core

import (
	"context"

	"github.com/opspilot/opspilot/logging"
)

// EventHandler receives every event emitted during a run. Handlers run
// synchronously on the emitting goroutine and must not block for long.
type EventHandler func(Event)

// RunContext carries execution state and helpers for an agent run. It
// encapsulates the per-run scope passed to an Agent's Run method:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID)
//   - A working Session for conversation history
//   - The event handler used to surface progress to consumers
//   - A structured logger
//
// A single RunContext is shared by all nodes of a graph execution so agents
// can see each other's appended history.
type RunContext struct {
	Context   context.Context
	SessionID string
	RunID     string
	Session   *Session
	Handler   EventHandler
	Logger    logging.Logger
}

// NewRunContext constructs a RunContext bound to ctx. A nil logger defaults
// to the NoOp logger; a nil handler means events are only recorded in the
// session.
func NewRunContext(ctx context.Context, sessionID, runID string, sess *Session, handler EventHandler, logger logging.Logger) *RunContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if sess == nil {
		sess = NewSession(sessionID)
	}
	return &RunContext{
		Context:   ctx,
		SessionID: sessionID,
		RunID:     runID,
		Session:   sess,
		Handler:   handler,
		Logger:    logger,
	}
}

// Done mirrors context.Context's Done.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Emit records the event in the session history and forwards it to the
// registered handler. It returns the cancellation error if the context is
// already done.
func (rc *RunContext) Emit(ev Event) error {
	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	default:
	}
	rc.Session.AddEvent(ev)
	if rc.Handler != nil {
		rc.Handler(ev)
	}
	return nil
}

// Package core defines the shared primitives of opspilot: role-based content
// parts, events, conversational sessions and the per-run execution context.
// Higher layers (agents, graph, tools, UI) communicate exclusively through
// these types.
package core

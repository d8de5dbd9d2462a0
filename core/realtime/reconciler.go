package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/agentdeck/agentdeck/core/state"
	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/xlog"
)

// Reconciler merges server-pushed events into the sandbox store. Ordering is
// not guaranteed across event types; within a type the last event for an id
// wins, which is exactly what the store's replace-by-id operations give.
type Reconciler struct {
	sandbox *state.SandboxStore

	// Notify, when set, observes every applied event. The webui uses it to
	// relay events to open browser pages.
	Notify func(Envelope)
}

// NewReconciler builds a reconciler over the given sandbox store.
func NewReconciler(sandbox *state.SandboxStore) *Reconciler {
	return &Reconciler{sandbox: sandbox}
}

// Handler returns the EventHandler to bind on a channel join.
func (r *Reconciler) Handler() EventHandler {
	return r.apply
}

func (r *Reconciler) apply(env Envelope) {
	if err := r.applyEvent(env); err != nil {
		xlog.Warn("Dropping realtime event", "event", env.Event, "error", err)
		return
	}
	if r.Notify != nil {
		r.Notify(env)
	}
}

func (r *Reconciler) applyEvent(env Envelope) error {
	switch env.Event {
	case EventNewMessage:
		var msg types.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("error decoding message: %w", err)
		}
		r.sandbox.ApplyMessage(msg)

	case EventNewConflict:
		var conflict types.ConflictResolution
		if err := json.Unmarshal(env.Data, &conflict); err != nil {
			return fmt.Errorf("error decoding conflict: %w", err)
		}
		r.sandbox.ApplyConflict(conflict)

	case EventConflictResolved:
		var conflict types.ConflictResolution
		if err := json.Unmarshal(env.Data, &conflict); err != nil {
			return fmt.Errorf("error decoding conflict: %w", err)
		}
		r.sandbox.ApplyConflictResolved(conflict)

	case EventAgentUpdated:
		var agent types.SandboxAgent
		if err := json.Unmarshal(env.Data, &agent); err != nil {
			return fmt.Errorf("error decoding agent: %w", err)
		}
		r.sandbox.ApplyAgentUpdated(agent)

	case EventAgentRemoved:
		// The removal payload is the bare agent id.
		var agentID string
		if err := json.Unmarshal(env.Data, &agentID); err != nil {
			return fmt.Errorf("error decoding agent id: %w", err)
		}
		r.sandbox.ApplyAgentRemoved(agentID)

	default:
		xlog.Debug("Unknown realtime event", "event", env.Event)
	}
	return nil
}

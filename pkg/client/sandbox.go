package client

import (
	"fmt"
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// SessionInput is the payload for creating a sandbox session.
type SessionInput struct {
	Name          string         `json:"name"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// SandboxAgentInput places an agent on a session canvas.
type SandboxAgentInput struct {
	AgentID       string         `json:"agent_id"`
	PositionX     float64        `json:"position_x"`
	PositionY     float64        `json:"position_y"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// ListSessions returns the current user's sandbox sessions.
func (c *Client) ListSessions() ([]types.SandboxSession, error) {
	var out []types.SandboxSession
	if err := c.doJSON(http.MethodGet, "/sandbox/sessions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession creates a sandbox session and returns the stored record.
func (c *Client) CreateSession(in SessionInput) (*types.SandboxSession, error) {
	var out types.SandboxSession
	if err := c.doJSON(http.MethodPost, "/sandbox/sessions", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSession applies in and decodes the response onto out.
func (c *Client) UpdateSession(id string, in SessionInput, out *types.SandboxSession) error {
	return c.doJSON(http.MethodPut, fmt.Sprintf("/sandbox/sessions/%s", id), in, nil, out)
}

// DeleteSession removes a session. Children are cascaded server side.
func (c *Client) DeleteSession(id string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/sandbox/sessions/%s", id), nil, nil, nil)
}

// ListSessionAgents returns the agents placed in a session.
func (c *Client) ListSessionAgents(sessionID string) ([]types.SandboxAgent, error) {
	var out []types.SandboxAgent
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/sandbox/sessions/%s/agents", sessionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSessionAgent places an agent in a session and returns the stored record.
func (c *Client) AddSessionAgent(sessionID string, in SandboxAgentInput) (*types.SandboxAgent, error) {
	var out types.SandboxAgent
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/sandbox/sessions/%s/agents", sessionID), in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveSessionAgent removes an agent from a session.
func (c *Client) RemoveSessionAgent(sessionID, agentID string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/sandbox/sessions/%s/agents/%s", sessionID, agentID), nil, nil, nil)
}

// UpdateAgentPosition confirms a drag position and decodes the response onto
// out. Fields absent from the response keep the values out already holds.
func (c *Client) UpdateAgentPosition(sessionID, agentID string, pos types.Position, out *types.SandboxAgent) error {
	return c.doJSON(http.MethodPut, fmt.Sprintf("/sandbox/sessions/%s/agents/%s/position", sessionID, agentID), pos, nil, out)
}

// ListConflicts returns the conflicts recorded for a session.
func (c *Client) ListConflicts(sessionID string) ([]types.ConflictResolution, error) {
	var out []types.ConflictResolution
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/sandbox/sessions/%s/conflicts", sessionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveConflict submits a resolution and returns the updated record.
func (c *Client) ResolveConflict(conflictID, resolution string) (*types.ConflictResolution, error) {
	body := struct {
		Resolution string `json:"resolution"`
	}{Resolution: resolution}

	var out types.ConflictResolution
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/sandbox/conflicts/%s/resolve", conflictID), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package client

import (
	"fmt"
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// AgentInput is the payload for creating an agent.
type AgentInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	IsPublic     bool   `json:"is_public"`
}

// AgentPatch is a partial update; nil fields are left untouched server side.
type AgentPatch struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
	IsPublic     *bool   `json:"is_public,omitempty"`
}

// ListAgents returns the agents visible to the current user.
func (c *Client) ListAgents() ([]types.Agent, error) {
	var out []types.Agent
	if err := c.doJSON(http.MethodGet, "/agents", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAgent creates a new agent and returns the stored record.
func (c *Client) CreateAgent(in AgentInput) (*types.Agent, error) {
	var out types.Agent
	if err := c.doJSON(http.MethodPost, "/agents", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAgent applies patch and decodes the response onto out. Fields absent
// from the response keep the values out already holds.
func (c *Client) UpdateAgent(id string, patch AgentPatch, out *types.Agent) error {
	return c.doJSON(http.MethodPut, fmt.Sprintf("/agents/%s", id), patch, nil, out)
}

// DeleteAgent removes an agent.
func (c *Client) DeleteAgent(id string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/agents/%s", id), nil, nil, nil)
}

// DuplicateAgent asks the backend for a server-side copy and returns it.
func (c *Client) DuplicateAgent(id string) (*types.Agent, error) {
	var out types.Agent
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/agents/%s/duplicate", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

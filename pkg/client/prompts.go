package client

import (
	"fmt"
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// PromptInput is the payload for creating a prompt.
type PromptInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"is_public"`
}

// PromptPatch is a partial update; nil fields are left untouched server side.
type PromptPatch struct {
	Title       *string   `json:"title,omitempty"`
	Content     *string   `json:"content,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
}

// ListPrompts returns the prompts visible to the current user.
func (c *Client) ListPrompts() ([]types.Prompt, error) {
	var out []types.Prompt
	if err := c.doJSON(http.MethodGet, "/prompts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePrompt creates a new prompt and returns the stored record.
func (c *Client) CreatePrompt(in PromptInput) (*types.Prompt, error) {
	var out types.Prompt
	if err := c.doJSON(http.MethodPost, "/prompts", in, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePrompt applies patch and decodes the response onto out. Fields absent
// from the response keep the values out already holds.
func (c *Client) UpdatePrompt(id string, patch PromptPatch, out *types.Prompt) error {
	return c.doJSON(http.MethodPut, fmt.Sprintf("/prompts/%s", id), patch, nil, out)
}

// DeletePrompt removes a prompt.
func (c *Client) DeletePrompt(id string) error {
	return c.doJSON(http.MethodDelete, fmt.Sprintf("/prompts/%s", id), nil, nil, nil)
}

// DuplicatePrompt asks the backend for a server-side copy and returns it.
func (c *Client) DuplicatePrompt(id string) (*types.Prompt, error) {
	var out types.Prompt
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/prompts/%s/duplicate", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

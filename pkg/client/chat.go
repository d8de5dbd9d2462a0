package client

import (
	"fmt"
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// ListMessages returns the transcript for a session, oldest first.
func (c *Client) ListMessages(sessionID string) ([]types.ChatMessage, error) {
	var out []types.ChatMessage
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/chat/%s/messages", sessionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a user message to a session and returns the stored
// record. Agent replies arrive over the realtime channel, not here.
func (c *Client) SendMessage(sessionID, content string) (*types.ChatMessage, error) {
	body := struct {
		Content    string `json:"content"`
		SenderType string `json:"sender_type"`
	}{Content: content, SenderType: types.SenderUser}

	var out types.ChatMessage
	if err := c.doJSON(http.MethodPost, fmt.Sprintf("/chat/%s/messages", sessionID), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package client

import (
	"net/http"

	"github.com/agentdeck/agentdeck/core/types"
)

// TokenResponse is the credential exchange result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token exchanges credentials for a bearer token.
func (c *Client) Token(email, password string) (*TokenResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out TokenResponse
	if err := c.doJSON(http.MethodPost, "/auth/token", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser resolves the identity behind the current bearer token.
func (c *Client) CurrentUser() (*types.User, error) {
	var out types.User
	if err := c.doJSON(http.MethodGet, "/auth/user", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The backend signs the user in separately via
// Token; registration does not issue a session.
func (c *Client) Register(email, password string) (*types.User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out types.User
	if err := c.doJSON(http.MethodPost, "/auth/register", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

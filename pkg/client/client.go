package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// TokenSource yields the bearer token for the next request. It is read fresh
// on every call, so clearing it on sign-out immediately invalidates
// subsequent requests.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding a fixed token. The empty string means
// unauthenticated.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// TokenStore is a mutable TokenSource standing in for the browser's
// persistent token storage. Set("") signs out.
type TokenStore struct {
	mu    sync.Mutex
	token string
}

func (t *TokenStore) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *TokenStore) Set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// APIError is a non-2xx response from the backend with the human-readable
// message extracted from the body, when one was present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client talks to the AgentDeck backend API.
type Client struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
}

// NewClient creates a backend API client. tokens may be nil for a client that
// never authenticates.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = time.Second * 30
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest performs an HTTP request and returns the response. Responses with
// status >= 400 are decoded into an *APIError.
func (c *Client) doRequest(method, path string, body interface{}, query url.Values) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	u := fmt.Sprintf("%s%s", c.BaseURL, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if token := c.Tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return resp, decodeAPIError(resp)
	}

	return resp, nil
}

// doJSON performs a request and decodes the response body into out when out
// is non-nil. Decoding happens on top of whatever out already holds: fields
// absent from the response keep their existing values, which gives mutation
// callers merge rather than replace semantics.
func (c *Client) doJSON(method, path string, body interface{}, query url.Values, out interface{}) error {
	resp, err := c.doRequest(method, path, body, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// decodeAPIError extracts a message from an error response body. Backends
// disagree on the field name, so all known variants are tried.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Detail != "":
			apiErr.Message = payload.Detail
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return apiErr
}

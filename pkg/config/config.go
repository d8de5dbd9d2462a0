// Package config reads the AgentDeck environment. A .env file is honored
// when present; there are no production-suitable defaults for the backend
// endpoints.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/agentdeck/agentdeck/pkg/xstrings"
)

// Config is the frontend-tier runtime configuration.
type Config struct {
	// APIBaseURL is the backend REST base, e.g. https://api.example.com/api.
	APIBaseURL string
	// SocketURL is the realtime websocket endpoint.
	SocketURL string
	// ListenAddr is the address the web app binds to.
	ListenAddr string
	// SessionSecret signs the browser session cookie.
	SessionSecret string
	// StripePublishableKey is injected into billing pages.
	StripePublishableKey string
	// APIKeys optionally gate the whole app behind static keys.
	APIKeys []string
}

// FromEnv loads .env when present and builds the configuration.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		APIBaseURL:           os.Getenv("AGENTDECK_API_URL"),
		SocketURL:            os.Getenv("AGENTDECK_SOCKET_URL"),
		ListenAddr:           os.Getenv("AGENTDECK_LISTEN_ADDR"),
		SessionSecret:        os.Getenv("AGENTDECK_SESSION_SECRET"),
		StripePublishableKey: os.Getenv("AGENTDECK_STRIPE_PUBLISHABLE_KEY"),
	}
	if keys := os.Getenv("AGENTDECK_API_KEYS"); keys != "" {
		c.APIKeys = xstrings.ParseList(keys)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":3000"
	}

	if c.APIBaseURL == "" {
		return nil, errors.New("AGENTDECK_API_URL not set")
	}
	if c.SocketURL == "" {
		return nil, errors.New("AGENTDECK_SOCKET_URL not set")
	}
	if c.SessionSecret == "" {
		return nil, errors.New("AGENTDECK_SESSION_SECRET not set")
	}
	return c, nil
}

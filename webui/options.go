package webui

import (
	"time"

	"github.com/agentdeck/agentdeck/core/realtime"
)

type Config struct {
	APIBaseURL           string
	SocketURL            string
	SessionSecret        string
	StripePublishableKey string
	ApiKeys              []string
	RequestTimeout       time.Duration
	Dialer               realtime.Dialer
}

type Option func(*Config)

func WithAPIBaseURL(url string) Option {
	return func(c *Config) {
		c.APIBaseURL = url
	}
}

func WithSocketURL(url string) Option {
	return func(c *Config) {
		c.SocketURL = url
	}
}

func WithSessionSecret(secret string) Option {
	return func(c *Config) {
		c.SessionSecret = secret
	}
}

func WithStripePublishableKey(key string) Option {
	return func(c *Config) {
		c.StripePublishableKey = key
	}
}

func WithApiKeys(keys []string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

// WithDialer overrides how the realtime channel connects; tests use an
// in-process pipe.
func WithDialer(dial realtime.Dialer) Option {
	return func(c *Config) {
		c.Dialer = dial
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		RequestTimeout: 30 * time.Second,
	}
	c.Apply(opts...)
	return c
}

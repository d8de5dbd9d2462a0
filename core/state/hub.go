package state

import (
	"sync"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// Hub bundles the domain stores of one signed-in user. A nil user means
// signed out: fetches become no-ops and mutations fail fast with
// ErrNotAuthenticated.
type Hub struct {
	mu   sync.Mutex
	user *types.User

	api *client.Client

	Agents  *AgentStore
	Prompts *PromptStore
	Market  *MarketStore
	Sandbox *SandboxStore
}

// NewHub creates the store bundle on top of an API client.
func NewHub(api *client.Client) *Hub {
	h := &Hub{api: api}
	h.Agents = newAgentStore(api, h.authed)
	h.Prompts = newPromptStore(api, h.authed)
	h.Market = newMarketStore(api, h.authed)
	h.Sandbox = newSandboxStore(api, h.authed)
	return h
}

// SetUser records the signed-in identity. Passing nil signs out and drops
// every mirrored collection.
func (h *Hub) SetUser(u *types.User) {
	h.mu.Lock()
	h.user = u
	h.mu.Unlock()

	if u == nil {
		h.Agents.replace(nil)
		h.Prompts.replace(nil)
		h.Market.replace(nil)
		h.Sandbox.Reset()
	}
}

// API exposes the underlying backend client for one-off calls that have no
// mirrored collection, such as subscription status.
func (h *Hub) API() *client.Client {
	return h.api
}

// User returns the signed-in identity, nil when signed out.
func (h *Hub) User() *types.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user
}

func (h *Hub) authed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user != nil
}

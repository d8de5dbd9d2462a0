package state

import (
	"fmt"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// AgentStore mirrors the /agents collection.
type AgentStore struct {
	collection[types.Agent]
	api    *client.Client
	authed func() bool
}

func newAgentStore(api *client.Client, authed func() bool) *AgentStore {
	s := &AgentStore{api: api, authed: authed}
	s.key = func(a types.Agent) string { return a.ID }
	return s
}

// Fetch replaces the mirror with the server's agent list. On failure the
// previous, possibly stale list stays in place.
func (s *AgentStore) Fetch() error {
	if !s.authed() {
		return nil
	}
	s.begin()
	agents, err := s.api.ListAgents()
	if err != nil {
		s.finish(err)
		return err
	}
	s.replace(agents)
	s.finish(nil)
	return nil
}

// Create stores a new agent and appends the server record to the mirror.
func (s *AgentStore) Create(in client.AgentInput) (*types.Agent, error) {
	if !s.authed() {
		err := fmt.Errorf("create agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	agent, err := s.api.CreateAgent(in)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.add(*agent)
	s.finish(nil)
	return agent, nil
}

// Update patches an agent. Response fields are merged onto the existing
// record, so fields the server omits keep their previous values.
func (s *AgentStore) Update(id string, patch client.AgentPatch) (*types.Agent, error) {
	if !s.authed() {
		err := fmt.Errorf("update agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	merged, ok := s.get(id)
	if !ok {
		merged = types.Agent{ID: id}
	}
	s.begin()
	if err := s.api.UpdateAgent(id, patch, &merged); err != nil {
		s.finish(err)
		return nil, err
	}
	s.put(merged)
	s.finish(nil)
	return &merged, nil
}

// Delete removes an agent from the backend and the mirror.
func (s *AgentStore) Delete(id string) error {
	if !s.authed() {
		err := fmt.Errorf("delete agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}
	s.begin()
	if err := s.api.DeleteAgent(id); err != nil {
		s.finish(err)
		return err
	}
	s.remove(id)
	s.finish(nil)
	return nil
}

// Duplicate asks the backend for a copy and appends it to the mirror.
func (s *AgentStore) Duplicate(id string) (*types.Agent, error) {
	if !s.authed() {
		err := fmt.Errorf("duplicate agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	agent, err := s.api.DuplicateAgent(id)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.add(*agent)
	s.finish(nil)
	return agent, nil
}

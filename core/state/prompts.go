package state

import (
	"fmt"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// PromptStore mirrors the /prompts collection.
type PromptStore struct {
	collection[types.Prompt]
	api    *client.Client
	authed func() bool
}

func newPromptStore(api *client.Client, authed func() bool) *PromptStore {
	s := &PromptStore{api: api, authed: authed}
	s.key = func(p types.Prompt) string { return p.ID }
	return s
}

// Fetch replaces the mirror with the server's prompt list. On failure the
// previous, possibly stale list stays in place.
func (s *PromptStore) Fetch() error {
	if !s.authed() {
		return nil
	}
	s.begin()
	prompts, err := s.api.ListPrompts()
	if err != nil {
		s.finish(err)
		return err
	}
	s.replace(prompts)
	s.finish(nil)
	return nil
}

// Create stores a new prompt and appends the server record to the mirror.
func (s *PromptStore) Create(in client.PromptInput) (*types.Prompt, error) {
	if !s.authed() {
		err := fmt.Errorf("create prompt: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	prompt, err := s.api.CreatePrompt(in)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.add(*prompt)
	s.finish(nil)
	return prompt, nil
}

// Update patches a prompt, merging response fields onto the existing record.
func (s *PromptStore) Update(id string, patch client.PromptPatch) (*types.Prompt, error) {
	if !s.authed() {
		err := fmt.Errorf("update prompt: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	merged, ok := s.get(id)
	if !ok {
		merged = types.Prompt{ID: id}
	}
	s.begin()
	if err := s.api.UpdatePrompt(id, patch, &merged); err != nil {
		s.finish(err)
		return nil, err
	}
	s.put(merged)
	s.finish(nil)
	return &merged, nil
}

// Delete removes a prompt from the backend and the mirror.
func (s *PromptStore) Delete(id string) error {
	if !s.authed() {
		err := fmt.Errorf("delete prompt: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}
	s.begin()
	if err := s.api.DeletePrompt(id); err != nil {
		s.finish(err)
		return err
	}
	s.remove(id)
	s.finish(nil)
	return nil
}

// Duplicate asks the backend for a copy and appends it to the mirror.
func (s *PromptStore) Duplicate(id string) (*types.Prompt, error) {
	if !s.authed() {
		err := fmt.Errorf("duplicate prompt: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	prompt, err := s.api.DuplicatePrompt(id)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.add(*prompt)
	s.finish(nil)
	return prompt, nil
}

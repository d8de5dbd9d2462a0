package state

import (
	"fmt"
	"sync"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// placedAgent is a sandbox agent plus the optimistic-position bookkeeping.
// confirmed is the last server-acknowledged position; pending is the local
// drag value awaiting confirmation. seq fences overlapping drags so only the
// outcome of the most recent one is applied.
type placedAgent struct {
	agent     types.SandboxAgent
	confirmed types.Position
	pending   *types.Position
	seq       uint64
}

// SandboxStore mirrors the sandbox sessions of one user plus the agents,
// transcript and conflicts of the active session.
type SandboxStore struct {
	api    *client.Client
	authed func() bool

	mu        sync.Mutex
	sessions  []types.SandboxSession
	current   *types.SandboxSession
	agents    []*placedAgent
	messages  []types.ChatMessage
	conflicts []types.ConflictResolution
	loading   bool
	err       error
}

func newSandboxStore(api *client.Client, authed func() bool) *SandboxStore {
	return &SandboxStore{api: api, authed: authed}
}

// Reset drops every mirrored collection, as on sign-out.
func (s *SandboxStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	s.current = nil
	s.agents = nil
	s.messages = nil
	s.conflicts = nil
	s.err = nil
}

// Err returns the last recorded error, nil when clear.
func (s *SandboxStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ReportError surfaces an out-of-band failure, such as a dropped realtime
// connection, into the store's error state.
func (s *SandboxStore) ReportError(err error) {
	s.fail(err)
}

// ClearError dismisses the last error.
func (s *SandboxStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Loading reports whether a fetch is in flight.
func (s *SandboxStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *SandboxStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *SandboxStore) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.err = err
	s.mu.Unlock()
}

func (s *SandboxStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Sessions returns a copy of the mirrored session list.
func (s *SandboxStore) Sessions() []types.SandboxSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SandboxSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// CurrentSession returns the active session, nil when none is selected.
func (s *SandboxStore) CurrentSession() *types.SandboxSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrentSession switches the active session and drops the previous
// session's agents, transcript and conflicts. Room membership on the
// realtime channel is handled by the caller.
func (s *SandboxStore) SetCurrentSession(session *types.SandboxSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
	s.agents = nil
	s.messages = nil
	s.conflicts = nil
}

// FetchSessions replaces the session mirror. On failure the previous list
// stays in place.
func (s *SandboxStore) FetchSessions() error {
	if !s.authed() {
		return nil
	}
	s.begin()
	sessions, err := s.api.ListSessions()
	if err != nil {
		s.finish(err)
		return err
	}
	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// CreateSession stores a new session and appends the server record.
func (s *SandboxStore) CreateSession(in client.SessionInput) (*types.SandboxSession, error) {
	if !s.authed() {
		err := fmt.Errorf("create session: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	session, err := s.api.CreateSession(in)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, *session)
	s.mu.Unlock()
	s.finish(nil)
	return session, nil
}

// DeleteSession removes a session. Children are cascaded server side; the
// active session is cleared when it was the one deleted.
func (s *SandboxStore) DeleteSession(id string) error {
	if !s.authed() {
		err := fmt.Errorf("delete session: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}
	s.begin()
	if err := s.api.DeleteSession(id); err != nil {
		s.finish(err)
		return err
	}
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.agents = nil
		s.messages = nil
		s.conflicts = nil
	}
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// Agents returns the placed agents of the active session with the displayed
// position resolved: the pending drag value when one is in flight, otherwise
// the last confirmed position.
func (s *SandboxStore) Agents() []types.SandboxAgent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SandboxAgent, 0, len(s.agents))
	for _, p := range s.agents {
		a := p.agent
		if p.pending != nil {
			a.PositionX = p.pending.X
			a.PositionY = p.pending.Y
		}
		out = append(out, a)
	}
	return out
}

// FetchAgents replaces the placed-agent mirror for the active session. Any
// optimistic position state is discarded in favor of the server's answer.
func (s *SandboxStore) FetchAgents(sessionID string) error {
	if !s.authed() {
		return nil
	}
	s.begin()
	agents, err := s.api.ListSessionAgents(sessionID)
	if err != nil {
		s.finish(err)
		return err
	}
	placed := make([]*placedAgent, 0, len(agents))
	for _, a := range agents {
		placed = append(placed, &placedAgent{
			agent:     a,
			confirmed: types.Position{X: a.PositionX, Y: a.PositionY},
		})
	}
	s.mu.Lock()
	s.agents = placed
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// AddAgent places an agent in the session and appends the server record.
func (s *SandboxStore) AddAgent(sessionID string, in client.SandboxAgentInput) (*types.SandboxAgent, error) {
	if !s.authed() {
		err := fmt.Errorf("add agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	agent, err := s.api.AddSessionAgent(sessionID, in)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.mu.Lock()
	s.agents = append(s.agents, &placedAgent{
		agent:     *agent,
		confirmed: types.Position{X: agent.PositionX, Y: agent.PositionY},
	})
	s.mu.Unlock()
	s.finish(nil)
	return agent, nil
}

// RemoveAgent removes a placed agent from the session and the mirror.
func (s *SandboxStore) RemoveAgent(sessionID, agentID string) error {
	if !s.authed() {
		err := fmt.Errorf("remove agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}
	s.begin()
	if err := s.api.RemoveSessionAgent(sessionID, agentID); err != nil {
		s.finish(err)
		return err
	}
	s.mu.Lock()
	s.removeAgentLocked(agentID)
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// MoveAgent applies a drag position optimistically, then confirms it with
// the backend. On failure the displayed position reverts to the last
// confirmed value. Overlapping moves for the same agent are fenced: only the
// most recent call's outcome is applied.
func (s *SandboxStore) MoveAgent(sessionID, agentID string, pos types.Position) error {
	if !s.authed() {
		err := fmt.Errorf("move agent: %w", ErrNotAuthenticated)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	p := s.findAgentLocked(agentID)
	if p == nil {
		s.mu.Unlock()
		err := fmt.Errorf("move agent: no placed agent %s", agentID)
		s.fail(err)
		return err
	}
	p.pending = &pos
	p.seq++
	seq := p.seq
	merged := p.agent
	s.mu.Unlock()

	err := s.api.UpdateAgentPosition(sessionID, agentID, pos, &merged)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.seq != seq {
		// A newer drag superseded this one; its outcome wins.
		return nil
	}
	p.pending = nil
	if err != nil {
		s.err = err
		return err
	}
	p.agent = merged
	p.confirmed = types.Position{X: merged.PositionX, Y: merged.PositionY}
	return nil
}

// Messages returns a copy of the active session transcript.
func (s *SandboxStore) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// FetchMessages replaces the transcript mirror for the active session.
func (s *SandboxStore) FetchMessages(sessionID string) error {
	if !s.authed() {
		return nil
	}
	s.begin()
	messages, err := s.api.ListMessages(sessionID)
	if err != nil {
		s.finish(err)
		return err
	}
	s.mu.Lock()
	s.messages = messages
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// SendMessage posts a user message and appends the server record.
func (s *SandboxStore) SendMessage(sessionID, content string) (*types.ChatMessage, error) {
	if !s.authed() {
		err := fmt.Errorf("send message: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	msg, err := s.api.SendMessage(sessionID, content)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.messages = append(s.messages, *msg)
	s.mu.Unlock()
	return msg, nil
}

// Conflicts returns a copy of the active session's conflicts.
func (s *SandboxStore) Conflicts() []types.ConflictResolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ConflictResolution, len(s.conflicts))
	copy(out, s.conflicts)
	return out
}

// FetchConflicts replaces the conflict mirror for the active session.
func (s *SandboxStore) FetchConflicts(sessionID string) error {
	if !s.authed() {
		return nil
	}
	s.begin()
	conflicts, err := s.api.ListConflicts(sessionID)
	if err != nil {
		s.finish(err)
		return err
	}
	s.mu.Lock()
	s.conflicts = conflicts
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

// ResolveConflict submits a resolution and replaces the matching entry.
func (s *SandboxStore) ResolveConflict(conflictID, resolution string) (*types.ConflictResolution, error) {
	if !s.authed() {
		err := fmt.Errorf("resolve conflict: %w", ErrNotAuthenticated)
		s.fail(err)
		return nil, err
	}
	s.begin()
	resolved, err := s.api.ResolveConflict(conflictID, resolution)
	if err != nil {
		s.finish(err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.conflicts {
		if s.conflicts[i].ID == resolved.ID {
			s.conflicts[i] = *resolved
			break
		}
	}
	s.mu.Unlock()
	s.finish(nil)
	return resolved, nil
}

// ApplyMessage appends a server-pushed message when it belongs to the active
// session; messages for other sessions are dropped.
func (s *SandboxStore) ApplyMessage(msg types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || msg.SessionID != s.current.ID {
		return
	}
	s.messages = append(s.messages, msg)
}

// ApplyConflict appends a server-pushed conflict scoped to the active session.
func (s *SandboxStore) ApplyConflict(conflict types.ConflictResolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || conflict.SessionID != s.current.ID {
		return
	}
	s.conflicts = append(s.conflicts, conflict)
}

// ApplyConflictResolved replaces the conflict entry matching by id.
func (s *SandboxStore) ApplyConflictResolved(conflict types.ConflictResolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || conflict.SessionID != s.current.ID {
		return
	}
	for i := range s.conflicts {
		if s.conflicts[i].ID == conflict.ID {
			s.conflicts[i] = conflict
			return
		}
	}
}

// ApplyAgentUpdated replaces the placed-agent entry matching by id,
// last-write-wins. The server position becomes the confirmed one; an
// in-flight local drag keeps overriding the display until it settles.
func (s *SandboxStore) ApplyAgentUpdated(agent types.SandboxAgent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findAgentLocked(agent.ID); p != nil {
		p.agent = agent
		p.confirmed = types.Position{X: agent.PositionX, Y: agent.PositionY}
	}
}

// ApplyAgentRemoved removes exactly the placed agent with the given id.
func (s *SandboxStore) ApplyAgentRemoved(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeAgentLocked(agentID)
}

func (s *SandboxStore) findAgentLocked(agentID string) *placedAgent {
	for _, p := range s.agents {
		if p.agent.ID == agentID {
			return p
		}
	}
	return nil
}

func (s *SandboxStore) removeAgentLocked(agentID string) {
	for i, p := range s.agents {
		if p.agent.ID == agentID {
			s.agents = append(s.agents[:i], s.agents[i+1:]...)
			return
		}
	}
}

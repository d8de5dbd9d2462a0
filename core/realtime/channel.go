// Package realtime maintains the websocket channel to the backend: one
// connection per signed-in user, joined to at most one sandbox session room
// at a time.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/agentdeck/agentdeck/pkg/client"
	"github.com/agentdeck/agentdeck/xlog"
)

// Channel states.
type State int

const (
	Disconnected State = iota
	Connecting
	Joined
	Left
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	case Left:
		return "left"
	default:
		return "disconnected"
	}
}

// Envelope is the wire frame of the realtime channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Server-pushed event names.
const (
	EventNewMessage       = "new_message"
	EventNewConflict      = "new_conflict"
	EventConflictResolved = "conflict_resolved"
	EventAgentUpdated     = "agent_updated"
	EventAgentRemoved     = "agent_removed"
)

// EventHandler receives the server-pushed events of the joined session.
type EventHandler func(Envelope)

// Conn is the subset of *websocket.Conn the channel uses, extracted so tests
// can substitute an in-process pipe.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a websocket connection authenticated with token.
type Dialer func(url, token string) (Conn, error)

// DefaultDialer dials with gorilla/websocket, sending the bearer token as
// connection auth.
func DefaultDialer(url, token string) (Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("error dialing realtime channel: %w", err)
	}
	return conn, nil
}

// Channel is one user's realtime connection. Join/leave swaps the single
// active session room; handlers of the previous room are always detached
// before the new room's handler attaches, so session switches never
// accumulate duplicate handlers.
type Channel struct {
	mu      sync.Mutex
	conn    Conn
	state   State
	session string
	handler EventHandler
	onError func(error)
	closed  chan struct{}
}

// Connect dials the channel and starts the read loop. onError receives read
// and dispatch failures; there is no automatic reconnect.
func Connect(url string, tokens client.TokenSource, dial Dialer, onError func(error)) (*Channel, error) {
	if dial == nil {
		dial = DefaultDialer
	}
	if onError == nil {
		onError = func(error) {}
	}

	ch := &Channel{state: Connecting, onError: onError, closed: make(chan struct{})}

	conn, err := dial(url, tokens.Token())
	if err != nil {
		ch.state = Disconnected
		return nil, err
	}
	ch.conn = conn
	go ch.readLoop()
	return ch, nil
}

// State returns the current lifecycle state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Session returns the joined session id, empty when none.
func (ch *Channel) Session() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.session
}

// JoinSession leaves the previous session room, detaches its handler and
// joins the given one.
func (ch *Channel) JoinSession(sessionID string, handler EventHandler) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.conn == nil {
		return errors.New("realtime channel is not connected")
	}

	if ch.session != "" {
		ch.handler = nil
		if err := ch.conn.WriteJSON(roomSignal("leave_session", ch.session)); err != nil {
			return fmt.Errorf("error leaving session %s: %w", ch.session, err)
		}
	}

	if err := ch.conn.WriteJSON(roomSignal("join_session", sessionID)); err != nil {
		return fmt.Errorf("error joining session %s: %w", sessionID, err)
	}
	ch.session = sessionID
	ch.handler = handler
	ch.state = Joined
	return nil
}

// LeaveSession leaves the current room and detaches its handler.
func (ch *Channel) LeaveSession() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.session == "" {
		return nil
	}
	session := ch.session
	ch.session = ""
	ch.handler = nil
	ch.state = Left
	if ch.conn == nil {
		return nil
	}
	if err := ch.conn.WriteJSON(roomSignal("leave_session", session)); err != nil {
		return fmt.Errorf("error leaving session %s: %w", session, err)
	}
	return nil
}

// Close tears the connection down.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.session = ""
	ch.handler = nil
	ch.state = Disconnected
	select {
	case <-ch.closed:
	default:
		close(ch.closed)
	}
	if ch.conn == nil {
		return nil
	}
	conn := ch.conn
	ch.conn = nil
	return conn.Close()
}

func (ch *Channel) readLoop() {
	for {
		ch.mu.Lock()
		conn := ch.conn
		ch.mu.Unlock()
		if conn == nil {
			return
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-ch.closed:
				return
			default:
			}
			xlog.Error("Realtime read failed", "error", err)
			ch.mu.Lock()
			ch.state = Disconnected
			ch.mu.Unlock()
			ch.onError(err)
			return
		}

		ch.mu.Lock()
		handler := ch.handler
		ch.mu.Unlock()
		if handler != nil {
			handler(env)
		}
	}
}

func roomSignal(event, sessionID string) Envelope {
	data, _ := json.Marshal(struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID})
	return Envelope{Event: event, Data: data}
}

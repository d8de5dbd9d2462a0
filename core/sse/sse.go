// Package sse relays reconciled realtime events to open browser pages as
// server-sent events, so the sandbox view updates without polling.
package sse

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type (
	// Listener is the receiving end of one browser page.
	Listener interface {
		ID() string
		Chan() chan Envelope
	}

	// Envelope is content that can be written to an event stream.
	Envelope interface {
		String() string
	}

	// Manager fans envelopes out to every connected listener.
	Manager interface {
		Send(message Envelope)
		Handle(ctx *fiber.Ctx, cl Listener)
		Clients() []string
	}
)

// Client is the default Listener with a bounded mailbox; slow pages drop
// messages rather than block the fan-out.
type Client struct {
	id string
	ch chan Envelope
}

func NewClient(id string) Listener {
	return &Client{id: id, ch: make(chan Envelope, 50)}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) Chan() chan Envelope { return c.ch }

// Event is a named SSE message carrying a JSON payload.
type Event struct {
	Name string
	Data string
}

// NewEvent returns an envelope for the given event name and JSON data.
func NewEvent(name, data string) *Event {
	return &Event{Name: name, Data: data}
}

func (e *Event) String() string {
	sb := strings.Builder{}
	if e.Name != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", e.Name))
	}
	sb.WriteString(fmt.Sprintf("data: %s\n\n", e.Data))
	return sb.String()
}

type broadcaster struct {
	clients   sync.Map
	broadcast chan Envelope
	workers   int
	history   *history
}

// NewManager starts a broadcaster with the given fan-out worker count.
func NewManager(workers int) Manager {
	m := &broadcaster{
		broadcast: make(chan Envelope),
		workers:   workers,
		history:   newHistory(10),
	}
	m.start()
	return m
}

// Send broadcasts a message to all connected listeners.
func (m *broadcaster) Send(message Envelope) {
	m.broadcast <- message
}

// Handle attaches a listener to the response stream and replays recent
// history so a freshly opened page catches up.
func (m *broadcaster) Handle(c *fiber.Ctx, cl Listener) {
	m.clients.Store(cl.ID(), cl)
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	m.history.Send(cl)

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			m.clients.Delete(cl.ID())
			close(cl.Chan())
			close(done)
		case <-done:
		}
	}()

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			close(done)
			m.clients.Delete(cl.ID())
			close(cl.Chan())
		}()

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		w.Flush()

		for {
			select {
			case msg, ok := <-cl.Chan():
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg.String()); err != nil {
					return
				}
				w.Flush()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}))
}

// Clients lists connected listener ids.
func (m *broadcaster) Clients() []string {
	var out []string
	m.clients.Range(func(key, _ any) bool {
		if id, ok := key.(string); ok {
			out = append(out, id)
		}
		return true
	})
	return out
}

func (m *broadcaster) start() {
	for i := 0; i < m.workers; i++ {
		go func() {
			for message := range m.broadcast {
				m.clients.Range(func(_, value any) bool {
					cl, ok := value.(Listener)
					if !ok {
						return true
					}
					select {
					case cl.Chan() <- message:
						m.history.Add(message)
					default:
						// Full mailbox, drop for this listener.
					}
					return true
				})
			}
		}()
	}
}

type history struct {
	mu       sync.Mutex
	messages []Envelope
	maxSize  int
}

func newHistory(maxSize int) *history {
	return &history{maxSize: maxSize}
}

func (h *history) Add(message Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
	if len(h.messages) > h.maxSize {
		h.messages = h.messages[len(h.messages)-h.maxSize:]
	}
}

func (h *history) Send(c Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msg := range h.messages {
		c.Chan() <- msg
	}
}

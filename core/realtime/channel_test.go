package realtime_test

import (
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/agentdeck/agentdeck/core/realtime"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// fakeConn is an in-process stand-in for a websocket connection.
type fakeConn struct {
	mu       sync.Mutex
	sent     []realtime.Envelope
	incoming chan realtime.Envelope
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan realtime.Envelope, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	select {
	case env := <-f.incoming:
		*(v.(*realtime.Envelope)) = env
		return nil
	case <-f.closed:
		return errors.New("connection closed")
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	env, ok := v.(realtime.Envelope)
	if !ok {
		return errors.New("unexpected frame type")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) sentFrames() []realtime.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeConn) push(event string, data any) {
	raw, err := json.Marshal(data)
	Expect(err).ToNot(HaveOccurred())
	f.incoming <- realtime.Envelope{Event: event, Data: raw}
}

func sessionID(env realtime.Envelope) string {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	Expect(json.Unmarshal(env.Data, &payload)).To(Succeed())
	return payload.SessionID
}

var _ = Describe("Channel", func() {
	var (
		conn    *fakeConn
		channel *realtime.Channel
		dial    realtime.Dialer
	)

	BeforeEach(func() {
		conn = newFakeConn()
		dial = func(url, token string) (realtime.Conn, error) {
			return conn, nil
		}
		var err error
		channel, err = realtime.Connect("ws://test", client.StaticToken("tok"), dial, nil)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		channel.Close()
	})

	It("surfaces a dial failure", func() {
		failing := func(url, token string) (realtime.Conn, error) {
			return nil, errors.New("refused")
		}
		_, err := realtime.Connect("ws://test", client.StaticToken("tok"), failing, nil)
		Expect(err).To(MatchError("refused"))
	})

	It("joining a session emits join_session with the session id", func() {
		Expect(channel.JoinSession("s1", func(realtime.Envelope) {})).To(Succeed())

		frames := conn.sentFrames()
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Event).To(Equal("join_session"))
		Expect(sessionID(frames[0])).To(Equal("s1"))
		Expect(channel.Session()).To(Equal("s1"))
		Expect(channel.State()).To(Equal(realtime.Joined))
	})

	It("switching sessions leaves the old room before joining the new one", func() {
		Expect(channel.JoinSession("s1", func(realtime.Envelope) {})).To(Succeed())
		Expect(channel.JoinSession("s2", func(realtime.Envelope) {})).To(Succeed())

		frames := conn.sentFrames()
		Expect(frames).To(HaveLen(3))
		Expect(frames[1].Event).To(Equal("leave_session"))
		Expect(sessionID(frames[1])).To(Equal("s1"))
		Expect(frames[2].Event).To(Equal("join_session"))
		Expect(sessionID(frames[2])).To(Equal("s2"))
	})

	It("delivers pushed events to the joined handler", func() {
		got := make(chan realtime.Envelope, 1)
		Expect(channel.JoinSession("s1", func(env realtime.Envelope) {
			got <- env
		})).To(Succeed())

		conn.push("new_message", map[string]string{"id": "m1", "content": "hi"})

		var env realtime.Envelope
		Eventually(got).Should(Receive(&env))
		Expect(env.Event).To(Equal("new_message"))
	})

	It("never delivers to a detached handler after session switches", func() {
		var mu sync.Mutex
		deliveries := map[string]int{}
		record := func(name string) realtime.EventHandler {
			return func(realtime.Envelope) {
				mu.Lock()
				deliveries[name]++
				mu.Unlock()
			}
		}

		Expect(channel.JoinSession("s1", record("first"))).To(Succeed())
		Expect(channel.JoinSession("s2", record("second"))).To(Succeed())
		Expect(channel.JoinSession("s3", record("third"))).To(Succeed())

		conn.push("new_message", map[string]string{"id": "m1"})
		conn.push("new_message", map[string]string{"id": "m2"})

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return deliveries["third"]
		}).Should(Equal(2))
		mu.Lock()
		defer mu.Unlock()
		Expect(deliveries["first"]).To(BeZero())
		Expect(deliveries["second"]).To(BeZero())
	})

	It("leaving detaches the handler and emits leave_session", func() {
		got := make(chan realtime.Envelope, 1)
		Expect(channel.JoinSession("s1", func(env realtime.Envelope) {
			got <- env
		})).To(Succeed())
		Expect(channel.LeaveSession()).To(Succeed())

		frames := conn.sentFrames()
		Expect(frames[len(frames)-1].Event).To(Equal("leave_session"))
		Expect(channel.Session()).To(BeEmpty())

		conn.push("new_message", map[string]string{"id": "m1"})
		Consistently(got).ShouldNot(Receive())
	})

	It("reports read failures through onError and disconnects", func() {
		errs := make(chan error, 1)
		ch, err := realtime.Connect("ws://test", client.StaticToken("tok"), func(url, token string) (realtime.Conn, error) {
			return conn, nil
		}, func(err error) {
			errs <- err
		})
		Expect(err).ToNot(HaveOccurred())

		conn.Close()
		Eventually(errs).Should(Receive())
		Eventually(ch.State).Should(Equal(realtime.Disconnected))
	})
})

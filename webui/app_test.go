package webui_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/agentdeck/agentdeck/core/realtime"
	"github.com/agentdeck/agentdeck/webui"
)

// idleConn satisfies the realtime Conn without a server behind it.
type idleConn struct {
	closed chan struct{}
	once   sync.Once
}

func newIdleConn() *idleConn {
	return &idleConn{closed: make(chan struct{})}
}

func (c *idleConn) ReadJSON(v interface{}) error {
	<-c.closed
	return io.EOF
}

func (c *idleConn) WriteJSON(v interface{}) error { return nil }

func (c *idleConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// fakeBackend is a stand-in for the AgentDeck API.
type fakeBackend struct {
	mu       sync.Mutex
	tier     string
	declines bool
	agents   string
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		tier := b.tier
		declines := b.declines
		agents := b.agents
		b.mu.Unlock()

		switch {
		case r.URL.Path == "/auth/token":
			var creds struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "correct" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Incorrect email or password"}`))
				return
			}
			w.Write([]byte(`{"access_token":"backend-token","token_type":"bearer"}`))

		case r.URL.Path == "/auth/user":
			if r.Header.Get("Authorization") != "Bearer backend-token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Not authenticated"}`))
				return
			}
			w.Write([]byte(`{"id":"u1","email":"a@b.test","subscription_tier":"` + tier + `"}`))

		case r.URL.Path == "/agents":
			w.Write([]byte(agents))

		case r.URL.Path == "/prompts":
			w.Write([]byte(`[]`))

		case r.URL.Path == "/sandbox/sessions":
			w.Write([]byte(`[]`))

		case r.URL.Path == "/marketplace/listings":
			w.Write([]byte(`[{"id":"l1","title":"Researcher agent","description":"digs","price":5,"item_type":"agent"}]`))

		case strings.HasPrefix(r.URL.Path, "/marketplace/purchase/"):
			if declines {
				w.WriteHeader(http.StatusPaymentRequired)
				w.Write([]byte(`{"error":"card declined"}`))
				return
			}
			w.Write([]byte(`{"id":"t1","listing_id":"l1","amount":5,"status":"completed"}`))

		default:
			w.Write([]byte(`[]`))
		}
	})
}

var _ = Describe("App", func() {
	var (
		backend *fakeBackend
		server  *httptest.Server
		app     *webui.App
	)

	BeforeEach(func() {
		backend = &fakeBackend{tier: "basic", agents: `[]`}
		server = httptest.NewServer(backend.handler())
		app = webui.NewApp(
			webui.WithAPIBaseURL(server.URL),
			webui.WithSocketURL("ws://unused"),
			webui.WithSessionSecret("test-secret"),
			webui.WithDialer(func(url, token string) (realtime.Conn, error) {
				return newIdleConn(), nil
			}),
		)
	})

	AfterEach(func() {
		server.Close()
	})

	login := func() string {
		form := strings.NewReader("email=a%40b.test&password=correct")
		req := httptest.NewRequest(http.MethodPost, "/login", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.Test(req, 5000)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("/dashboard"))

		for _, cookie := range resp.Cookies() {
			if cookie.Name == "agentdeck_session" {
				return cookie.Value
			}
		}
		Fail("no session cookie issued")
		return ""
	}

	get := func(path, cookie string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "agentdeck_session", Value: cookie})
		}
		resp, err := app.Test(req, 5000)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	Describe("authentication", func() {
		It("redirects signed-out visitors to the login page", func() {
			resp := get("/dashboard", "")
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/login"))
		})

		It("rejects signed-out JSON calls with 401", func() {
			resp := get("/api/agents", "")
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("must be logged in"))
		})

		It("rejects a tampered session cookie", func() {
			resp := get("/dashboard", "not-a-jwt")
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/login"))
		})

		It("issues a session cookie on valid credentials", func() {
			cookie := login()
			Expect(cookie).ToNot(BeEmpty())

			resp := get("/dashboard", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("a@b.test"))
		})

		It("re-renders the login form on bad credentials", func() {
			form := strings.NewReader("email=a%40b.test&password=wrong")
			req := httptest.NewRequest(http.MethodPost, "/login", form)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			resp, err := app.Test(req, 5000)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("Incorrect email or password"))
		})

		It("logout expires the cookie and redirects to login", func() {
			cookie := login()
			resp := get("/logout", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/login"))
		})
	})

	Describe("tier gating", func() {
		It("sends basic users to the upgrade page for pro features", func() {
			cookie := login()
			resp := get("/marketplace/new", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/upgrade"))
		})

		It("lets pro users through", func() {
			backend.mu.Lock()
			backend.tier = "pro"
			backend.mu.Unlock()

			cookie := login()
			resp := get("/marketplace/new", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("pages", func() {
		It("renders the agent list from the backend", func() {
			backend.mu.Lock()
			backend.agents = `[{"id":"a1","name":"Researcher","description":"digs"}]`
			backend.mu.Unlock()

			cookie := login()
			resp := get("/agents", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("Researcher"))
		})

		It("a failed purchase shows the error without navigating away", func() {
			backend.mu.Lock()
			backend.declines = true
			backend.mu.Unlock()

			cookie := login()
			req := httptest.NewRequest(http.MethodPost, "/marketplace/l1/purchase", nil)
			req.AddCookie(&http.Cookie{Name: "agentdeck_session", Value: cookie})
			resp, err := app.Test(req, 5000)
			Expect(err).ToNot(HaveOccurred())

			Expect(resp.StatusCode).To(Equal(http.StatusPaymentRequired))
			Expect(resp.Header.Get("Location")).To(BeEmpty())
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("card declined"))
			Expect(string(body)).To(ContainSubstring("Researcher agent"))
		})

		It("a successful purchase renders the receipt", func() {
			cookie := login()
			req := httptest.NewRequest(http.MethodPost, "/marketplace/l1/purchase", nil)
			req.AddCookie(&http.Cookie{Name: "agentdeck_session", Value: cookie})
			resp, err := app.Test(req, 5000)
			Expect(err).ToNot(HaveOccurred())

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("Purchase complete"))
		})
	})

	Describe("JSON relay", func() {
		It("serves the mirrored agent list", func() {
			backend.mu.Lock()
			backend.agents = `[{"id":"a1","name":"Researcher"}]`
			backend.mu.Unlock()

			cookie := login()
			resp := get("/api/agents", cookie)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var agents []map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&agents)).To(Succeed())
			Expect(agents).To(HaveLen(1))
			Expect(agents[0]).To(HaveKeyWithValue("name", "Researcher"))
		})
	})
})

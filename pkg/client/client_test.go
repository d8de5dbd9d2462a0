package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		requests []recordedRequest
		respond  func(w http.ResponseWriter, r *http.Request)
		c        *client.Client
	)

	BeforeEach(func() {
		requests = nil
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			requests = append(requests, recordedRequest{
				Method: r.Method,
				Path:   r.URL.Path,
				Query:  r.URL.RawQuery,
				Auth:   r.Header.Get("Authorization"),
				Body:   body,
			})
			respond(w, r)
		}))
		c = client.NewClient(server.URL, client.StaticToken("secret-token"), time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the bearer token on every request", func() {
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}
		_, err := c.ListAgents()
		Expect(err).ToNot(HaveOccurred())
		Expect(requests).To(HaveLen(1))
		Expect(requests[0].Auth).To(Equal("Bearer secret-token"))
	})

	It("omits the Authorization header when there is no token", func() {
		anon := client.NewClient(server.URL, nil, time.Second)
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}
		_, err := anon.ListListings(client.ListingFilter{})
		Expect(err).ToNot(HaveOccurred())
		Expect(requests[0].Auth).To(BeEmpty())
	})

	It("reads the token fresh per request from a TokenStore", func() {
		tokens := &client.TokenStore{}
		tokens.Set("first")
		fresh := client.NewClient(server.URL, tokens, time.Second)
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}

		_, err := fresh.ListAgents()
		Expect(err).ToNot(HaveOccurred())
		tokens.Set("second")
		_, err = fresh.ListAgents()
		Expect(err).ToNot(HaveOccurred())

		Expect(requests[0].Auth).To(Equal("Bearer first"))
		Expect(requests[1].Auth).To(Equal("Bearer second"))
	})

	It("hits the expected paths and methods", func() {
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"a1"}`))
		}

		_, err := c.CreateAgent(client.AgentInput{Name: "researcher"})
		Expect(err).ToNot(HaveOccurred())
		Expect(c.DeleteAgent("a1")).To(Succeed())
		_, err = c.DuplicateAgent("a1")
		Expect(err).ToNot(HaveOccurred())

		Expect(requests[0].Method).To(Equal(http.MethodPost))
		Expect(requests[0].Path).To(Equal("/agents"))
		Expect(requests[1].Method).To(Equal(http.MethodDelete))
		Expect(requests[1].Path).To(Equal("/agents/a1"))
		Expect(requests[2].Method).To(Equal(http.MethodPost))
		Expect(requests[2].Path).To(Equal("/agents/a1/duplicate"))
	})

	It("encodes listing filters as query parameters", func() {
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}
		_, err := c.ListListings(client.ListingFilter{ItemType: "agent", Tag: "research"})
		Expect(err).ToNot(HaveOccurred())
		Expect(requests[0].Query).To(ContainSubstring("item_type=agent"))
		Expect(requests[0].Query).To(ContainSubstring("tag=research"))
	})

	It("leaves the query string empty without a filter", func() {
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}
		_, err := c.ListListings(client.ListingFilter{})
		Expect(err).ToNot(HaveOccurred())
		Expect(requests[0].Query).To(BeEmpty())
	})

	It("omits nil patch fields from the request body", func() {
		respond = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}
		name := "renamed"
		var out types.Agent
		Expect(c.UpdateAgent("a1", client.AgentPatch{Name: &name}, &out)).To(Succeed())

		var sent map[string]any
		Expect(json.Unmarshal(requests[0].Body, &sent)).To(Succeed())
		Expect(sent).To(HaveKeyWithValue("name", "renamed"))
		Expect(sent).ToNot(HaveKey("description"))
		Expect(sent).ToNot(HaveKey("system_prompt"))
	})

	Describe("update responses", func() {
		It("merges response fields onto the existing record", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id":"a1","name":"renamed"}`))
			}
			out := types.Agent{
				ID:           "a1",
				Name:         "old name",
				Description:  "keeps this",
				SystemPrompt: "and this",
			}
			name := "renamed"
			Expect(c.UpdateAgent("a1", client.AgentPatch{Name: &name}, &out)).To(Succeed())

			Expect(out.Name).To(Equal("renamed"))
			Expect(out.Description).To(Equal("keeps this"))
			Expect(out.SystemPrompt).To(Equal("and this"))
		})
	})

	Describe("error responses", func() {
		It("extracts the error field", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"name is required"}`))
			}
			_, err := c.CreateAgent(client.AgentInput{})
			var apiErr *client.APIError
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*client.APIError)
			Expect(apiErr.Status).To(Equal(http.StatusBadRequest))
			Expect(apiErr.Message).To(Equal("name is required"))
		})

		It("extracts the message field", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"message":"duplicate title"}`))
			}
			_, err := c.CreatePrompt(client.PromptInput{Title: "x"})
			apiErr := err.(*client.APIError)
			Expect(apiErr.Message).To(Equal("duplicate title"))
		})

		It("extracts the detail field", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Not authenticated"}`))
			}
			_, err := c.CurrentUser()
			apiErr := err.(*client.APIError)
			Expect(apiErr.Message).To(Equal("Not authenticated"))
		})

		It("falls back to a generic message for unreadable bodies", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`upstream exploded`))
			}
			_, err := c.ListAgents()
			apiErr := err.(*client.APIError)
			Expect(apiErr.Message).To(Equal("request failed with status 502"))
		})
	})

	Describe("authentication endpoints", func() {
		It("exchanges credentials for a token", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"access_token":"tok123","token_type":"bearer"}`))
			}
			tok, err := c.Token("a@b.test", "pw")
			Expect(err).ToNot(HaveOccurred())
			Expect(tok.AccessToken).To(Equal("tok123"))
			Expect(requests[0].Path).To(Equal("/auth/token"))
		})

		It("fetches the current user", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id":"u1","email":"a@b.test","subscription_tier":"pro"}`))
			}
			user, err := c.CurrentUser()
			Expect(err).ToNot(HaveOccurred())
			Expect(user.SubscriptionTier).To(Equal("pro"))
		})
	})

	Describe("sandbox endpoints", func() {
		It("confirms a position with PUT and merges the response", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"position_x":10,"position_y":20}`))
			}
			out := types.SandboxAgent{ID: "sa1", AgentID: "a1"}
			err := c.UpdateAgentPosition("s1", "sa1", types.Position{X: 10, Y: 20}, &out)
			Expect(err).ToNot(HaveOccurred())

			Expect(requests[0].Method).To(Equal(http.MethodPut))
			Expect(requests[0].Path).To(Equal("/sandbox/sessions/s1/agents/sa1/position"))
			Expect(out.PositionX).To(Equal(10.0))
			Expect(out.AgentID).To(Equal("a1"))
		})

		It("sends chat messages with the user sender type", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id":"m1","content":"hello"}`))
			}
			_, err := c.SendMessage("s1", "hello")
			Expect(err).ToNot(HaveOccurred())

			Expect(requests[0].Path).To(Equal("/chat/s1/messages"))
			var sent map[string]any
			Expect(json.Unmarshal(requests[0].Body, &sent)).To(Succeed())
			Expect(sent).To(HaveKeyWithValue("sender_type", "user"))
			Expect(sent).To(HaveKeyWithValue("content", "hello"))
		})

		It("submits conflict resolutions", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id":"c1","status":"resolved"}`))
			}
			resolved, err := c.ResolveConflict("c1", "merge both")
			Expect(err).ToNot(HaveOccurred())
			Expect(requests[0].Path).To(Equal("/sandbox/conflicts/c1/resolve"))
			Expect(resolved.Status).To(Equal(types.ConflictResolved))
		})
	})
})

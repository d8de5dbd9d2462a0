package webui

import (
	"embed"
	"net/http"
	"sync"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/Masterminds/sprig/v3"

	"github.com/agentdeck/agentdeck/core/realtime"
	"github.com/agentdeck/agentdeck/core/sse"
	"github.com/agentdeck/agentdeck/core/state"
	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
	"github.com/agentdeck/agentdeck/xlog"
)

//go:embed views/*.html
var viewsfs embed.FS

type (
	App struct {
		config *Config

		mu       sync.Mutex
		sessions map[string]*userSession
		*fiber.App
	}

	// userSession is the server-side mirror of one signed-in browser user:
	// the domain stores, the realtime channel and the SSE relay feeding that
	// user's open pages.
	userSession struct {
		tokens     *client.TokenStore
		hub        *state.Hub
		channel    *realtime.Channel
		reconciler *realtime.Reconciler
		events     sse.Manager
	}
)

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	engine := html.NewFileSystem(http.FS(viewsfs), ".html")
	engine.AddFuncMap(sprig.FuncMap())

	webapp := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "views/layout",
	})

	a := &App{
		config:   config,
		sessions: make(map[string]*userSession),
		App:      webapp,
	}

	a.registerRoutes(webapp)

	return a
}

// apiClient builds a backend client bound to a token source.
func (a *App) apiClient(tokens client.TokenSource) *client.Client {
	return client.NewClient(a.config.APIBaseURL, tokens, a.config.RequestTimeout)
}

// sessionFor returns the user's store bundle, creating it and opening the
// realtime channel on first sight. A failed channel dial is logged and
// surfaced as a store error; page browsing keeps working without realtime.
func (a *App) sessionFor(user *types.User, token string) *userSession {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.sessions[user.ID]; ok {
		s.tokens.Set(token)
		s.hub.SetUser(user)
		return s
	}

	tokens := &client.TokenStore{}
	tokens.Set(token)

	s := &userSession{
		tokens: tokens,
		hub:    state.NewHub(a.apiClient(tokens)),
		events: sse.NewManager(2),
	}
	s.hub.SetUser(user)
	s.reconciler = realtime.NewReconciler(s.hub.Sandbox)
	s.reconciler.Notify = func(env realtime.Envelope) {
		s.events.Send(sse.NewEvent(env.Event, string(env.Data)))
	}

	channel, err := realtime.Connect(a.config.SocketURL, tokens, a.config.Dialer, func(err error) {
		s.hub.Sandbox.ReportError(err)
	})
	if err != nil {
		xlog.Error("Realtime channel connect failed", "user", user.ID, "error", err)
		s.hub.Sandbox.ReportError(err)
	} else {
		s.channel = channel
	}

	a.sessions[user.ID] = s
	return s
}

// dropSession tears down a user's stores and channel on sign-out.
func (a *App) dropSession(userID string) {
	a.mu.Lock()
	s, ok := a.sessions[userID]
	delete(a.sessions, userID)
	a.mu.Unlock()
	if !ok {
		return
	}

	s.tokens.Set("")
	s.hub.SetUser(nil)
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			xlog.Warn("Realtime channel close failed", "user", userID, "error", err)
		}
	}
}

func errorJSONMessage(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusInternalServerError).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

func statusJSONMessage(c *fiber.Ctx, message string) error {
	return c.JSON(struct {
		Status string `json:"status"`
	}{Status: message})
}

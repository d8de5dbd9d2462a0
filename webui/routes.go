package webui

import (
	"crypto/subtle"
	"errors"

	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"github.com/agentdeck/agentdeck/core/types"
)

func (a *App) registerRoutes(webapp *fiber.App) {

	if len(a.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(a.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	webapp.Get("/login", a.Login())
	webapp.Post("/login", a.SubmitLogin())
	webapp.Get("/register", a.Register())
	webapp.Post("/register", a.SubmitRegister())
	webapp.Get("/logout", a.Logout())

	user := a.RequireUser()

	webapp.Get("/dashboard", user, a.Dashboard())

	webapp.Get("/agents", user, a.AgentsPage())
	webapp.Get("/agents/new", user, a.AgentFormPage())
	webapp.Get("/agents/:id/edit", user, a.AgentFormPage())
	webapp.Post("/agents", user, a.SubmitAgent())
	webapp.Post("/agents/:id", user, a.SubmitAgent())
	webapp.Post("/agents/:id/delete", user, a.DeleteAgentForm())
	webapp.Post("/agents/:id/duplicate", user, a.DuplicateAgentForm())

	webapp.Get("/prompts", user, a.PromptsPage())
	webapp.Get("/prompts/new", user, a.PromptFormPage())
	webapp.Get("/prompts/:id/edit", user, a.PromptFormPage())
	webapp.Post("/prompts", user, a.SubmitPrompt())
	webapp.Post("/prompts/:id", user, a.SubmitPrompt())
	webapp.Post("/prompts/:id/delete", user, a.DeletePromptForm())
	webapp.Post("/prompts/:id/duplicate", user, a.DuplicatePromptForm())

	// Selling on the marketplace is a paid feature; browsing and buying are
	// open to every signed-in user.
	pro := a.RequireTier(types.TierPro)
	webapp.Get("/marketplace", user, a.MarketplacePage())
	webapp.Get("/marketplace/new", user, pro, a.NewListingPage())
	webapp.Post("/marketplace", user, pro, a.SubmitListing())
	webapp.Get("/marketplace/:id", user, a.ListingPage())
	webapp.Post("/marketplace/:id/purchase", user, a.PurchaseListing())
	webapp.Get("/transactions", user, a.TransactionsPage())

	webapp.Get("/sandbox", user, a.SandboxPage())
	webapp.Post("/sandbox", user, a.SubmitSession())
	webapp.Get("/sandbox/:id", user, a.SessionPage())
	webapp.Post("/sandbox/:id/delete", user, a.DeleteSessionForm())

	webapp.Get("/upgrade", user, a.UpgradePage())
	webapp.Post("/upgrade", user, a.SubmitUpgrade())

	webapp.Get("/sse", user, a.Events())

	api := webapp.Group("/api", user)

	api.Get("/agents", a.ListAgentsAPI())
	api.Post("/agents", a.CreateAgentAPI())
	api.Put("/agents/:id", a.UpdateAgentAPI())
	api.Delete("/agents/:id", a.DeleteAgentAPI())
	api.Post("/agents/:id/duplicate", a.DuplicateAgentAPI())

	api.Get("/prompts", a.ListPromptsAPI())
	api.Post("/prompts", a.CreatePromptAPI())
	api.Put("/prompts/:id", a.UpdatePromptAPI())
	api.Delete("/prompts/:id", a.DeletePromptAPI())
	api.Post("/prompts/:id/duplicate", a.DuplicatePromptAPI())

	api.Get("/marketplace/listings", a.ListListingsAPI())
	api.Post("/marketplace/purchase/:id", a.PurchaseAPI())

	api.Get("/sandbox/sessions", a.ListSessionsAPI())
	api.Get("/sandbox/sessions/:id/agents", a.SessionAgentsAPI())
	api.Post("/sandbox/sessions/:id/agents", a.AddSessionAgentAPI())
	api.Delete("/sandbox/sessions/:id/agents/:agentId", a.RemoveSessionAgentAPI())
	api.Put("/sandbox/sessions/:id/agents/:agentId/position", a.MoveSessionAgentAPI())
	api.Get("/sandbox/sessions/:id/conflicts", a.ListConflictsAPI())
	api.Post("/sandbox/conflicts/:id/resolve", a.ResolveConflictAPI())

	api.Get("/chat/:id/messages", a.ListMessagesAPI())
	api.Post("/chat/:id/messages", a.SendMessageAPI())

	api.Get("/subscriptions/status", a.SubscriptionStatusAPI())
	api.Post("/payments/create-intent", a.CreatePaymentIntentAPI())
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization", "header:x-api-key", "header:xi-api-key", "cookie:token"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(false, apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

func getApiKeyErrorHandler(opaqueErrors bool, apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next() // if no keys are set up, any error we get here is not an error.
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			if opaqueErrors {
				return ctx.SendStatus(401)
			}
			return ctx.Status(401).Render("views/login", fiber.Map{
				"Title": "Sign in",
			})
		}
		if opaqueErrors {
			return ctx.SendStatus(500)
		}
		return err
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {

	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil // If no keys are setup, accept everything
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}

}

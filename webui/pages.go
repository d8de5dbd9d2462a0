package webui

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
	"github.com/agentdeck/agentdeck/pkg/xstrings"
	"github.com/agentdeck/agentdeck/xlog"
)

// pageData assembles the common template fields: the signed-in user plus the
// dismissable error banner, if any store holds one.
func pageData(c *fiber.Ctx, title string, err error) fiber.Map {
	data := fiber.Map{"Title": title}
	if user, ok := c.Locals("user").(*types.User); ok {
		data["User"] = user
	}
	if err != nil {
		data["Error"] = userMessage(err)
	}
	return data
}

func (a *App) Dashboard() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		// Best-effort refresh; stale mirrors render with an error banner.
		_ = s.hub.Agents.Fetch()
		_ = s.hub.Prompts.Fetch()
		_ = s.hub.Sandbox.FetchSessions()

		data := pageData(c, "Dashboard", firstError(s.hub.Agents.Err(), s.hub.Prompts.Err(), s.hub.Sandbox.Err()))
		data["Agents"] = s.hub.Agents.Items()
		data["Prompts"] = s.hub.Prompts.Items()
		data["Sessions"] = s.hub.Sandbox.Sessions()
		return c.Render("views/dashboard", data)
	}
}

func (a *App) AgentsPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		_ = s.hub.Agents.Fetch()

		data := pageData(c, "Agents", s.hub.Agents.Err())
		data["Agents"] = s.hub.Agents.Items()
		return c.Render("views/agents", data)
	}
}

func (a *App) AgentFormPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		data := pageData(c, "New agent", nil)

		if id := c.Params("id"); id != "" {
			_ = s.hub.Agents.Fetch()
			for _, agent := range s.hub.Agents.Items() {
				if agent.ID == id {
					data["Title"] = "Edit agent"
					data["Agent"] = agent
					break
				}
			}
		}
		return c.Render("views/agent_form", data)
	}
}

func (a *App) SubmitAgent() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Name         string `form:"name"`
			Description  string `form:"description"`
			SystemPrompt string `form:"system_prompt"`
			IsPublic     bool   `form:"is_public"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		var err error
		if id := c.Params("id"); id != "" {
			_, err = s.hub.Agents.Update(id, client.AgentPatch{
				Name:         &payload.Name,
				Description:  &payload.Description,
				SystemPrompt: &payload.SystemPrompt,
				IsPublic:     &payload.IsPublic,
			})
		} else {
			_, err = s.hub.Agents.Create(client.AgentInput{
				Name:         payload.Name,
				Description:  payload.Description,
				SystemPrompt: payload.SystemPrompt,
				IsPublic:     payload.IsPublic,
			})
		}
		if err != nil {
			// Keep the form open with the submitted values.
			data := pageData(c, "Agent", err)
			data["Agent"] = types.Agent{
				ID:           c.Params("id"),
				Name:         payload.Name,
				Description:  payload.Description,
				SystemPrompt: payload.SystemPrompt,
				IsPublic:     payload.IsPublic,
			}
			return c.Status(fiber.StatusBadRequest).Render("views/agent_form", data)
		}
		return c.Redirect("/agents")
	}
}

func (a *App) DeleteAgentForm() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Agents.Delete(c.Params("id")); err != nil {
			xlog.Warn("Agent delete failed", "agent", c.Params("id"), "error", err)
		}
		return c.Redirect("/agents")
	}
}

func (a *App) DuplicateAgentForm() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if _, err := s.hub.Agents.Duplicate(c.Params("id")); err != nil {
			xlog.Warn("Agent duplicate failed", "agent", c.Params("id"), "error", err)
		}
		return c.Redirect("/agents")
	}
}

func (a *App) PromptsPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		_ = s.hub.Prompts.Fetch()

		data := pageData(c, "Prompts", s.hub.Prompts.Err())
		data["Prompts"] = s.hub.Prompts.Items()
		return c.Render("views/prompts", data)
	}
}

func (a *App) PromptFormPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		data := pageData(c, "New prompt", nil)

		if id := c.Params("id"); id != "" {
			_ = s.hub.Prompts.Fetch()
			for _, prompt := range s.hub.Prompts.Items() {
				if prompt.ID == id {
					data["Title"] = "Edit prompt"
					data["Prompt"] = prompt
					break
				}
			}
		}
		return c.Render("views/prompt_form", data)
	}
}

func (a *App) SubmitPrompt() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Title       string `form:"title"`
			Content     string `form:"content"`
			Description string `form:"description"`
			Tags        string `form:"tags"`
			IsPublic    bool   `form:"is_public"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}
		tags := xstrings.ParseList(payload.Tags)

		var err error
		if id := c.Params("id"); id != "" {
			_, err = s.hub.Prompts.Update(id, client.PromptPatch{
				Title:       &payload.Title,
				Content:     &payload.Content,
				Description: &payload.Description,
				Tags:        &tags,
				IsPublic:    &payload.IsPublic,
			})
		} else {
			_, err = s.hub.Prompts.Create(client.PromptInput{
				Title:       payload.Title,
				Content:     payload.Content,
				Description: payload.Description,
				Tags:        tags,
				IsPublic:    payload.IsPublic,
			})
		}
		if err != nil {
			data := pageData(c, "Prompt", err)
			data["Prompt"] = types.Prompt{
				ID:          c.Params("id"),
				Title:       payload.Title,
				Content:     payload.Content,
				Description: payload.Description,
				Tags:        tags,
				IsPublic:    payload.IsPublic,
			}
			return c.Status(fiber.StatusBadRequest).Render("views/prompt_form", data)
		}
		return c.Redirect("/prompts")
	}
}

func (a *App) DeletePromptForm() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Prompts.Delete(c.Params("id")); err != nil {
			xlog.Warn("Prompt delete failed", "prompt", c.Params("id"), "error", err)
		}
		return c.Redirect("/prompts")
	}
}

func (a *App) DuplicatePromptForm() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if _, err := s.hub.Prompts.Duplicate(c.Params("id")); err != nil {
			xlog.Warn("Prompt duplicate failed", "prompt", c.Params("id"), "error", err)
		}
		return c.Redirect("/prompts")
	}
}

func (a *App) MarketplacePage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		filter := client.ListingFilter{
			ItemType: c.Query("item_type"),
			Tag:      c.Query("tag"),
		}
		_ = s.hub.Market.Fetch(filter)

		data := pageData(c, "Marketplace", s.hub.Market.Err())
		data["Listings"] = s.hub.Market.Items()
		data["Filter"] = filter
		return c.Render("views/marketplace", data)
	}
}

func (a *App) ListingPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		listing, ok := a.findListing(s, c.Params("id"))
		if !ok {
			return c.Redirect("/marketplace")
		}

		data := pageData(c, listing.Title, nil)
		data["Listing"] = listing
		data["StripeKey"] = a.config.StripePublishableKey
		return c.Render("views/listing", data)
	}
}

func (a *App) NewListingPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		_ = s.hub.Agents.Fetch()
		_ = s.hub.Prompts.Fetch()

		data := pageData(c, "Sell an item", nil)
		data["Agents"] = s.hub.Agents.Items()
		data["Prompts"] = s.hub.Prompts.Items()
		return c.Render("views/listing_form", data)
	}
}

func (a *App) SubmitListing() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Title       string  `form:"title"`
			Description string  `form:"description"`
			Price       float64 `form:"price"`
			ItemType    string  `form:"item_type"`
			ItemID      string  `form:"item_id"`
			Tags        string  `form:"tags"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		_, err := s.hub.Market.CreateListing(client.ListingInput{
			Title:       payload.Title,
			Description: payload.Description,
			Price:       payload.Price,
			ItemType:    payload.ItemType,
			ItemID:      payload.ItemID,
			Tags:        xstrings.ParseList(payload.Tags),
		})
		if err != nil {
			data := pageData(c, "Sell an item", err)
			data["Agents"] = s.hub.Agents.Items()
			data["Prompts"] = s.hub.Prompts.Items()
			return c.Status(fiber.StatusBadRequest).Render("views/listing_form", data)
		}
		return c.Redirect("/marketplace")
	}
}

// PurchaseListing buys a listing. A payment failure re-renders the listing
// with the error banner; the user is not navigated away.
func (a *App) PurchaseListing() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		id := c.Params("id")

		tx, err := s.hub.Market.Purchase(id)
		if err != nil {
			listing, _ := a.findListing(s, id)
			data := pageData(c, "Marketplace", err)
			data["Listing"] = listing
			data["StripeKey"] = a.config.StripePublishableKey
			return c.Status(fiber.StatusPaymentRequired).Render("views/listing", data)
		}

		data := pageData(c, "Purchase complete", nil)
		data["Transaction"] = tx
		return c.Render("views/purchase", data)
	}
}

func (a *App) TransactionsPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		_ = s.hub.Market.FetchTransactions()

		data := pageData(c, "Transactions", s.hub.Market.Err())
		data["Transactions"] = s.hub.Market.Transactions()
		return c.Render("views/transactions", data)
	}
}

func (a *App) SandboxPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		_ = s.hub.Sandbox.FetchSessions()

		data := pageData(c, "Sandbox", s.hub.Sandbox.Err())
		data["Sessions"] = s.hub.Sandbox.Sessions()
		return c.Render("views/sandbox", data)
	}
}

func (a *App) SubmitSession() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Name string `form:"name"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		session, err := s.hub.Sandbox.CreateSession(client.SessionInput{Name: payload.Name})
		if err != nil {
			data := pageData(c, "Sandbox", err)
			data["Sessions"] = s.hub.Sandbox.Sessions()
			return c.Status(fiber.StatusBadRequest).Render("views/sandbox", data)
		}
		return c.Redirect("/sandbox/" + session.ID)
	}
}

// SessionPage opens the sandbox canvas: selects the session, joins its
// realtime room (detaching whatever room was joined before) and mirrors its
// agents, transcript and conflicts.
func (a *App) SessionPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		id := c.Params("id")

		_ = s.hub.Sandbox.FetchSessions()
		var session *types.SandboxSession
		for _, candidate := range s.hub.Sandbox.Sessions() {
			if candidate.ID == id {
				session = &candidate
				break
			}
		}
		if session == nil {
			return c.Redirect("/sandbox")
		}

		s.hub.Sandbox.SetCurrentSession(session)
		if s.channel != nil {
			if err := s.channel.JoinSession(id, s.reconciler.Handler()); err != nil {
				xlog.Warn("Session join failed", "session", id, "error", err)
				s.hub.Sandbox.ReportError(err)
			}
		}

		_ = s.hub.Sandbox.FetchAgents(id)
		_ = s.hub.Sandbox.FetchMessages(id)
		_ = s.hub.Sandbox.FetchConflicts(id)

		data := pageData(c, session.Name, s.hub.Sandbox.Err())
		data["Session"] = session
		data["Agents"] = s.hub.Sandbox.Agents()
		data["Messages"] = s.hub.Sandbox.Messages()
		data["Conflicts"] = s.hub.Sandbox.Conflicts()
		return c.Render("views/session", data)
	}
}

func (a *App) DeleteSessionForm() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		id := c.Params("id")
		if s.channel != nil && s.channel.Session() == id {
			if err := s.channel.LeaveSession(); err != nil {
				xlog.Warn("Session leave failed", "session", id, "error", err)
			}
		}
		if err := s.hub.Sandbox.DeleteSession(id); err != nil {
			xlog.Warn("Session delete failed", "session", id, "error", err)
		}
		return c.Redirect("/sandbox")
	}
}

// UpgradePage is where tier-gated routes land basic users.
func (a *App) UpgradePage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		status, err := s.hub.API().SubscriptionStatus()

		data := pageData(c, "Upgrade", err)
		data["Status"] = status
		data["StripeKey"] = a.config.StripePublishableKey
		return c.Render("views/upgrade", data)
	}
}

// SubmitUpgrade creates a hosted checkout session and redirects to it.
func (a *App) SubmitUpgrade() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			PriceID string `form:"price_id"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		checkout, err := s.hub.API().CreateCheckoutSession(
			payload.PriceID,
			c.BaseURL()+"/dashboard",
			c.BaseURL()+"/upgrade",
		)
		if err != nil {
			data := pageData(c, "Upgrade", err)
			data["StripeKey"] = a.config.StripePublishableKey
			return c.Status(fiber.StatusBadGateway).Render("views/upgrade", data)
		}
		return c.Redirect(checkout.URL)
	}
}

func (a *App) findListing(s *userSession, id string) (types.MarketplaceListing, bool) {
	if listing, ok := s.hub.Market.Get(id); ok {
		return listing, true
	}
	_ = s.hub.Market.Fetch(client.ListingFilter{})
	return s.hub.Market.Get(id)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

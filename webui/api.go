package webui

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/core/sse"
	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
)

// The /api handlers mirror the store operations for the browser's own fetch
// calls: same semantics as the pages, JSON in and out.

func (a *App) ListAgentsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Agents.Fetch(); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Agents.Items())
	}
}

func (a *App) CreateAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var in client.AgentInput
		if err := c.BodyParser(&in); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		agent, err := s.hub.Agents.Create(in)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(agent)
	}
}

func (a *App) UpdateAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var patch client.AgentPatch
		if err := c.BodyParser(&patch); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		agent, err := s.hub.Agents.Update(c.Params("id"), patch)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(agent)
	}
}

func (a *App) DeleteAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Agents.Delete(c.Params("id")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return statusJSONMessage(c, "ok")
	}
}

func (a *App) DuplicateAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		agent, err := s.hub.Agents.Duplicate(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(agent)
	}
}

func (a *App) ListPromptsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Prompts.Fetch(); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Prompts.Items())
	}
}

func (a *App) CreatePromptAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var in client.PromptInput
		if err := c.BodyParser(&in); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		prompt, err := s.hub.Prompts.Create(in)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(prompt)
	}
}

func (a *App) UpdatePromptAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var patch client.PromptPatch
		if err := c.BodyParser(&patch); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		prompt, err := s.hub.Prompts.Update(c.Params("id"), patch)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(prompt)
	}
}

func (a *App) DeletePromptAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Prompts.Delete(c.Params("id")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return statusJSONMessage(c, "ok")
	}
}

func (a *App) DuplicatePromptAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		prompt, err := s.hub.Prompts.Duplicate(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(prompt)
	}
}

func (a *App) ListListingsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		filter := client.ListingFilter{
			ItemType: c.Query("item_type"),
			Tag:      c.Query("tag"),
		}
		if err := s.hub.Market.Fetch(filter); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Market.Items())
	}
}

func (a *App) PurchaseAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		tx, err := s.hub.Market.Purchase(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(tx)
	}
}

func (a *App) ListSessionsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Sandbox.FetchSessions(); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Sandbox.Sessions())
	}
}

func (a *App) SessionAgentsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Sandbox.FetchAgents(c.Params("id")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Sandbox.Agents())
	}
}

func (a *App) AddSessionAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var in client.SandboxAgentInput
		if err := c.BodyParser(&in); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		agent, err := s.hub.Sandbox.AddAgent(c.Params("id"), in)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(agent)
	}
}

func (a *App) RemoveSessionAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Sandbox.RemoveAgent(c.Params("id"), c.Params("agentId")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return statusJSONMessage(c, "ok")
	}
}

// MoveSessionAgentAPI confirms a drag: the store applies the coordinates
// optimistically and reverts if the backend rejects them.
func (a *App) MoveSessionAgentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		var pos types.Position
		if err := c.BodyParser(&pos); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		if err := s.hub.Sandbox.MoveAgent(c.Params("id"), c.Params("agentId"), pos); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return statusJSONMessage(c, "ok")
	}
}

func (a *App) ListMessagesAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Sandbox.FetchMessages(c.Params("id")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Sandbox.Messages())
	}
}

func (a *App) SendMessageAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Content string `json:"content" form:"content"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		if payload.Content == "" {
			return errorJSONMessage(c, "Message cannot be empty")
		}
		msg, err := s.hub.Sandbox.SendMessage(c.Params("id"), payload.Content)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(msg)
	}
}

func (a *App) ListConflictsAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		if err := s.hub.Sandbox.FetchConflicts(c.Params("id")); err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(s.hub.Sandbox.Conflicts())
	}
}

func (a *App) ResolveConflictAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			Resolution string `json:"resolution" form:"resolution"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		conflict, err := s.hub.Sandbox.ResolveConflict(c.Params("id"), payload.Resolution)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(conflict)
	}
}

func (a *App) SubscriptionStatusAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		status, err := s.hub.API().SubscriptionStatus()
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(status)
	}
}

func (a *App) CreatePaymentIntentAPI() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		payload := struct {
			ListingID string `json:"listing_id"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, "Invalid request")
		}
		intent, err := s.hub.API().CreatePaymentIntent(payload.ListingID)
		if err != nil {
			return errorJSONMessage(c, userMessage(err))
		}
		return c.JSON(intent)
	}
}

// Events streams reconciled realtime events to the page as SSE.
func (a *App) Events() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		s := a.currentSession(c)
		s.events.Handle(c, sse.NewClient(uuid.NewString()))
		return nil
	}
}

package webui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/agentdeck/agentdeck/core/types"
	"github.com/agentdeck/agentdeck/pkg/client"
	"github.com/agentdeck/agentdeck/xlog"
)

const sessionCookie = "agentdeck_session"

// sessionClaims wraps the backend bearer token in the signed session cookie.
// The browser never sees the raw token outside this cookie.
type sessionClaims struct {
	BearerToken string `json:"tok"`
	jwt.RegisteredClaims
}

// issueSessionCookie signs the backend token into the session cookie.
func (a *App) issueSessionCookie(c *fiber.Ctx, token string) error {
	claims := &sessionClaims{
		BearerToken: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.SessionSecret))
	if err != nil {
		return fmt.Errorf("error signing session cookie: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
	})
	return nil
}

// bearerFromCookie validates the session cookie and extracts the backend
// token.
func (a *App) bearerFromCookie(c *fiber.Ctx) (string, error) {
	raw := c.Cookies(sessionCookie)
	if raw == "" {
		return "", errors.New("missing session cookie")
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.config.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired session cookie")
	}
	return claims.BearerToken, nil
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/") || c.Path() == "/sse"
}

// RequireUser resolves the identity behind the session cookie before every
// guarded route. An absent or rejected session redirects to /login (401 for
// JSON routes); a transient backend failure renders a holding page instead,
// so a refresh does not bounce a still-valid session to the login screen.
func (a *App) RequireUser() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		bearer, err := a.bearerFromCookie(c)
		if err != nil {
			return a.unauthenticated(c)
		}

		user, err := a.apiClient(client.StaticToken(bearer)).CurrentUser()
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				return a.unauthenticated(c)
			}
			xlog.Warn("Identity check failed", "error", err)
			if wantsJSON(c) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "identity check unavailable",
				})
			}
			return c.Status(fiber.StatusServiceUnavailable).Render("views/loading", fiber.Map{
				"Title": "Loading",
			})
		}

		c.Locals("user", user)
		c.Locals("token", bearer)
		return c.Next()
	}
}

// RequireTier additionally gates a route on the subscription tier; a
// mismatch lands on the upgrade page. Must run after RequireUser.
func (a *App) RequireTier(tier string) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*types.User)
		if !ok || user == nil {
			return a.unauthenticated(c)
		}
		if user.SubscriptionTier != tier {
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "subscription upgrade required",
				})
			}
			return c.Redirect("/upgrade")
		}
		return c.Next()
	}
}

func (a *App) unauthenticated(c *fiber.Ctx) error {
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "must be logged in",
		})
	}
	return c.Redirect("/login")
}

// currentSession returns the store bundle for the authenticated request.
func (a *App) currentSession(c *fiber.Ctx) *userSession {
	user := c.Locals("user").(*types.User)
	token := c.Locals("token").(string)
	return a.sessionFor(user, token)
}

// Login renders the sign-in form.
func (a *App) Login() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.Render("views/login", fiber.Map{"Title": "Sign in"})
	}
}

// SubmitLogin exchanges credentials for a bearer token and issues the
// session cookie.
func (a *App) SubmitLogin() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			Email    string `form:"email" json:"email"`
			Password string `form:"password" json:"password"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		token, err := a.apiClient(nil).Token(payload.Email, payload.Password)
		if err != nil {
			xlog.Info("Login rejected", "email", payload.Email, "error", err)
			return c.Status(fiber.StatusUnauthorized).Render("views/login", fiber.Map{
				"Title": "Sign in",
				"Error": userMessage(err),
			})
		}
		if err := a.issueSessionCookie(c, token.AccessToken); err != nil {
			return err
		}
		return c.Redirect("/dashboard")
	}
}

// Register renders the sign-up form.
func (a *App) Register() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.Render("views/register", fiber.Map{"Title": "Create account"})
	}
}

// SubmitRegister creates an account, then sends the user to sign in.
func (a *App) SubmitRegister() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := struct {
			Email    string `form:"email" json:"email"`
			Password string `form:"password" json:"password"`
		}{}
		if err := c.BodyParser(&payload); err != nil {
			return err
		}

		if _, err := a.apiClient(nil).Register(payload.Email, payload.Password); err != nil {
			return c.Status(fiber.StatusBadRequest).Render("views/register", fiber.Map{
				"Title": "Create account",
				"Error": userMessage(err),
			})
		}
		return c.Redirect("/login")
	}
}

// Logout clears the session cookie and tears down the user's stores.
func (a *App) Logout() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if bearer, err := a.bearerFromCookie(c); err == nil {
			if user, err := a.apiClient(client.StaticToken(bearer)).CurrentUser(); err == nil {
				a.dropSession(user.ID)
			}
		}
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    "",
			HTTPOnly: true,
			Expires:  time.Now().Add(-time.Hour),
		})
		return c.Redirect("/login")
	}
}

// userMessage extracts the human-readable part of an error for display.
func userMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

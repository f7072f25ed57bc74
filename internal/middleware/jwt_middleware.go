package middleware

import (
	"strings"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/models"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SessionCookie holds the session token issued at login.
const SessionCookie = "session"

const accountKey = "account"

// sessionToken returns the token from the session cookie or, failing that,
// from an "Authorization: Bearer <token>" header.
func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// LoadAccount resolves the session, when there is one, and stores the
// account for later handlers. Requests without a valid session continue
// anonymously.
func LoadAccount(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return c.Next()
		}
		account, err := authService.AccountForToken(c.UserContext(), token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid session")
			return c.Next()
		}
		c.Locals(accountKey, account)
		return c.Next()
	}
}

// AuthRequired sends anonymous requests to the login page.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentAccount(c) != nil {
			return c.Next()
		}

		token := sessionToken(c)
		if token == "" {
			return flash.Redirect(c, "/login", "Please log in to access this page.")
		}
		account, err := authService.AccountForToken(c.UserContext(), token)
		if err != nil {
			log.Info().Err(err).Str("path", c.Path()).Msg("session validation failed")
			c.ClearCookie(SessionCookie)
			return flash.Redirect(c, "/login", "Your session has expired, please log in again.")
		}

		c.Locals(accountKey, account)
		return c.Next()
	}
}

// CurrentAccount returns the logged-in account, or nil.
func CurrentAccount(c *fiber.Ctx) models.Account {
	account, _ := c.Locals(accountKey).(models.Account)
	return account
}

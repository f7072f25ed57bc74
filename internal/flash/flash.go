// Package flash carries one-shot user messages across a redirect in a cookie.
package flash

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

const cookieName = "flash"

// Set stores message for the next page view.
func Set(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Pop returns the pending message, if any, and clears it.
func Pop(c *fiber.Ctx) string {
	raw := c.Cookies(cookieName)
	if raw == "" {
		return ""
	}
	c.ClearCookie(cookieName)
	message, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return message
}

// Redirect stores message and answers 302 to location.
func Redirect(c *fiber.Ctx, location, message string) error {
	Set(c, message)
	return c.Redirect(location, fiber.StatusFound)
}

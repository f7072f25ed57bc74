package handlers

import (
	"errors"
	"fmt"
	"strings"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// render answers a page route with its view model, the pending flash
// message and the logged-in user.
func render(c *fiber.Ctx, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["page"] = page
	if message := flash.Pop(c); message != "" {
		data["flash"] = message
	}
	if account := middleware.CurrentAccount(c); account != nil {
		data["current_user"] = account.User()
	}
	return c.JSON(data)
}

// result answers a JSON action route.
func result(c *fiber.Ctx, success bool, message string) error {
	return c.JSON(fiber.Map{
		"success": success,
		"message": message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": message,
	})
}

func internalError(c *fiber.Ctx, err error, message string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationMessage turns validator errors into one line for a flash message.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return strings.Join(messages, "; ")
}

package middleware

import (
	"farmersmarket/internal/flash"
	"farmersmarket/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireFarmer lets farmers through and redirects everyone else to
// redirectTo with message. It must run after AuthRequired.
func RequireFarmer(redirectTo, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentAccount(c).(models.FarmerAccount); !ok {
			return flash.Redirect(c, redirectTo, message)
		}
		return c.Next()
	}
}

// RequireCustomer is RequireFarmer for customers.
func RequireCustomer(redirectTo, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentAccount(c).(models.CustomerAccount); !ok {
			return flash.Redirect(c, redirectTo, message)
		}
		return c.Next()
	}
}

// RequireFarmerJSON answers {success: false, message} to non-farmers.
func RequireFarmerJSON(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentAccount(c).(models.FarmerAccount); !ok {
			return c.JSON(fiber.Map{"success": false, "message": message})
		}
		return c.Next()
	}
}

// RequireCustomerJSON answers {success: false, message} to non-customers.
func RequireCustomerJSON(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentAccount(c).(models.CustomerAccount); !ok {
			return c.JSON(fiber.Map{"success": false, "message": message})
		}
		return c.Next()
	}
}

// CurrentFarmer returns the farmer behind the request. Only valid behind RequireFarmer.
func CurrentFarmer(c *fiber.Ctx) models.FarmerAccount {
	farmer, _ := CurrentAccount(c).(models.FarmerAccount)
	return farmer
}

// CurrentCustomer returns the customer behind the request. Only valid behind RequireCustomer.
func CurrentCustomer(c *fiber.Ctx) models.CustomerAccount {
	customer, _ := CurrentAccount(c).(models.CustomerAccount)
	return customer
}

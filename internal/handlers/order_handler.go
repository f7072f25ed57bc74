package handlers

import (
	"errors"
	"fmt"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/models"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// OrderHandler handles order history for customers and fulfillment for farmers.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/orders", requireAuth, middleware.RequireCustomer("/dashboard", "Only customers can view orders"), h.HandleGetOrders)
	router.Get("/order_details/:id", requireAuth, middleware.RequireCustomer("/dashboard", "Only customers can view order details"), h.HandleGetOrderByID)

	router.Get("/farmer_orders", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can view orders"), h.HandleFarmerOrders)
	router.Get("/farmer_order_details/:id", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can view order details"), h.HandleFarmerOrderDetails)
	router.Post("/update_order_status/:id", requireAuth, middleware.RequireFarmerJSON("Only farmers can update orders"), h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the customer's orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.CustomerOrders(c.UserContext(), middleware.CurrentCustomer(c))
	if err != nil {
		return internalError(c, err, "Could not retrieve orders")
	}
	return render(c, "orders", fiber.Map{"orders": orders})
}

// HandleGetOrderByID shows one of the customer's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.CustomerOrderDetails(c.UserContext(), middleware.CurrentCustomer(c), orderID)
	if err != nil {
		switch {
		case services.IsNotFound(err):
			return notFound(c, fmt.Sprintf("Order with ID %s not found", orderID))
		case errors.Is(err, services.ErrNotYourOrder):
			return flash.Redirect(c, "/orders", "You can only view your own orders")
		}
		return internalError(c, err, "Could not retrieve order")
	}
	return render(c, "order_details", fiber.Map{
		"order":       order,
		"order_items": order.Items,
	})
}

// HandleFarmerOrders lists the orders containing the farmer's lines.
func (h *OrderHandler) HandleFarmerOrders(c *fiber.Ctx) error {
	overview, err := h.service.FarmerOrders(c.UserContext(), middleware.CurrentFarmer(c))
	if err != nil {
		return internalError(c, err, "Could not retrieve orders")
	}
	return render(c, "farmer_orders", fiber.Map{
		"orders":      overview.Orders,
		"order_items": overview.Items,
		"statuses":    models.OrderStatuses,
	})
}

// HandleFarmerOrderDetails shows an order restricted to the farmer's lines.
func (h *OrderHandler) HandleFarmerOrderDetails(c *fiber.Ctx) error {
	details, err := h.service.FarmerOrderDetails(c.UserContext(), middleware.CurrentFarmer(c), c.Params("id"))
	if err != nil {
		if services.IsNotFound(err) {
			return flash.Redirect(c, "/farmer_orders", "Order not found")
		}
		return internalError(c, err, "Could not retrieve order")
	}
	return render(c, "farmer_order_details", fiber.Map{
		"order":       details.Order,
		"order_items": details.Items,
		"statuses":    models.OrderStatuses,
	})
}

// UpdateOrderStatusRequest represents the status form.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// HandleUpdateOrderStatus sets the status of an order the farmer takes part
// in and answers {success, message}.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateOrderStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return result(c, false, "Invalid status")
		}
	}

	err := h.service.UpdateOrderStatus(c.UserContext(), middleware.CurrentFarmer(c), orderID, models.OrderStatus(req.Status))
	switch {
	case err == nil:
		return result(c, true, fmt.Sprintf("Order status updated to %s", req.Status))
	case services.IsNotFound(err):
		return result(c, false, "Order not found")
	case errors.Is(err, services.ErrInvalidStatus):
		return result(c, false, "Invalid status")
	default:
		log.Error().Err(err).Str("order_id", orderID).Msg("order status update failed")
		return result(c, false, "Could not update order status")
	}
}

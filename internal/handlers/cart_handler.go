package handlers

import (
	"errors"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CartHandler handles the customer's cart and checkout.
type CartHandler struct {
	cartService  *services.CartService
	orderService *services.OrderService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, orderService *services.OrderService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/cart", requireAuth, middleware.RequireCustomer("/dashboard", "Only customers can view cart"), h.HandleViewCart)
	router.Post("/add_to_cart/:id", requireAuth, middleware.RequireCustomerJSON("Only customers can add to cart"), h.HandleAddToCart)
	router.Post("/remove_from_cart/:id", requireAuth, middleware.RequireCustomer("/dashboard", "Only customers can remove from cart"), h.HandleRemoveFromCart)
	router.Post("/checkout", requireAuth, middleware.RequireCustomer("/dashboard", "Only customers can checkout"), h.HandleCheckout)
}

// AddToCartRequest represents the add-to-cart form. Quantity defaults to 1.
type AddToCartRequest struct {
	Quantity *int `json:"quantity" form:"quantity"`
}

// HandleViewCart shows the cart lines and their total at current prices.
func (h *CartHandler) HandleViewCart(c *fiber.Ctx) error {
	cart, err := h.cartService.ViewCart(c.UserContext(), middleware.CurrentCustomer(c))
	if err != nil {
		return internalError(c, err, "Could not retrieve cart")
	}
	return render(c, "cart", fiber.Map{
		"cart_items": cart.Items,
		"total":      cart.Total.StringFixed(2),
	})
}

// HandleAddToCart adds a product to the cart and answers {success, message}.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	quantity := 1
	if len(c.Body()) > 0 {
		var req AddToCartRequest
		if err := c.BodyParser(&req); err != nil {
			return result(c, false, "Invalid quantity")
		}
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
	}

	err := h.cartService.AddToCart(c.UserContext(), middleware.CurrentCustomer(c), c.Params("id"), quantity)
	switch {
	case err == nil:
		return result(c, true, "Product added to cart")
	case services.IsNotFound(err):
		return result(c, false, "Product not found")
	case errors.Is(err, services.ErrNotEnoughStock):
		return result(c, false, "Not enough stock")
	case errors.Is(err, services.ErrInvalidQuantity):
		return result(c, false, "Quantity must be at least 1")
	default:
		log.Error().Err(err).Str("product_id", c.Params("id")).Msg("add to cart failed")
		return result(c, false, "Could not add product to cart")
	}
}

// HandleRemoveFromCart deletes one of the customer's cart lines. Lines of
// other customers are left alone without an error.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	removed, err := h.cartService.RemoveFromCart(c.UserContext(), middleware.CurrentCustomer(c), c.Params("id"))
	if err != nil {
		return internalError(c, err, "Could not remove item from cart")
	}
	if removed {
		return flash.Redirect(c, "/cart", "Item removed from cart")
	}
	return c.Redirect("/cart", fiber.StatusFound)
}

// HandleCheckout turns the cart into an order.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	_, err := h.orderService.Checkout(c.UserContext(), middleware.CurrentCustomer(c))
	if err != nil {
		var stockErr *services.InsufficientStockError
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return flash.Redirect(c, "/cart", "Your cart is empty")
		case errors.As(err, &stockErr):
			return flash.Redirect(c, "/cart", stockErr.Error())
		}
		return internalError(c, err, "Could not place order")
	}
	return flash.Redirect(c, "/orders", "Order placed successfully!")
}

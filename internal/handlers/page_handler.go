package handlers

import (
	"errors"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/models"
	"farmersmarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PageHandler serves the home page, the static pages, the dashboard and the profile.
type PageHandler struct {
	authService    *services.AuthService
	productService *services.ProductService
	cartService    *services.CartService
	orderService   *services.OrderService
	reviewService  *services.ReviewService
	validate       *validator.Validate
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(
	authService *services.AuthService,
	productService *services.ProductService,
	cartService *services.CartService,
	orderService *services.OrderService,
	reviewService *services.ReviewService,
) *PageHandler {
	return &PageHandler{
		authService:    authService,
		productService: productService,
		cartService:    cartService,
		orderService:   orderService,
		reviewService:  reviewService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the page routes with the Fiber app.
func (h *PageHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/", h.HandleIndex)
	router.Get("/about", h.static("about"))
	router.Get("/contact", h.static("contact"))
	router.Get("/terms", h.static("terms"))
	router.Get("/dashboard", requireAuth, h.HandleDashboard)
	router.Get("/profile", requireAuth, h.HandleProfile)
	router.Post("/profile", requireAuth, h.HandleUpdateProfile)
}

func (h *PageHandler) static(page string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return render(c, page, nil)
	}
}

// HandleIndex shows a handful of in-stock products.
func (h *PageHandler) HandleIndex(c *fiber.Ctx) error {
	products, err := h.productService.Featured(c.UserContext())
	if err != nil {
		return internalError(c, err, "Could not retrieve products")
	}
	return render(c, "index", fiber.Map{"products": products})
}

// HandleDashboard shows the role-specific overview of the logged-in account.
func (h *PageHandler) HandleDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	switch account := middleware.CurrentAccount(c).(type) {
	case models.FarmerAccount:
		products, err := h.productService.MyProducts(ctx, account)
		if err != nil {
			return internalError(c, err, "Could not load dashboard")
		}
		reviews, err := h.reviewService.CountReceived(ctx, account)
		if err != nil {
			return internalError(c, err, "Could not load dashboard")
		}
		return render(c, "dashboard", fiber.Map{
			"products":               products,
			"total_products":         len(products),
			"received_reviews_count": reviews,
		})
	case models.CustomerAccount:
		orders, err := h.orderService.CustomerOrders(ctx, account)
		if err != nil {
			return internalError(c, err, "Could not load dashboard")
		}
		cartItems, err := h.cartService.CountItems(ctx, account)
		if err != nil {
			return internalError(c, err, "Could not load dashboard")
		}
		return render(c, "dashboard", fiber.Map{
			"orders":           orders,
			"total_orders":     len(orders),
			"cart_items_count": cartItems,
		})
	default:
		return flash.Redirect(c, "/login", "Please log in to access this page.")
	}
}

// ProfileRequest represents the profile form.
type ProfileRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=120"`
}

// HandleProfile shows the logged-in account.
func (h *PageHandler) HandleProfile(c *fiber.Ctx) error {
	return render(c, "profile", nil)
}

// HandleUpdateProfile changes the account's email.
func (h *PageHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return flash.Redirect(c, "/profile", "Invalid profile form")
	}
	if err := h.validate.Struct(req); err != nil {
		return flash.Redirect(c, "/profile", validationMessage(err))
	}

	if err := h.authService.UpdateEmail(c.UserContext(), middleware.CurrentAccount(c), req.Email); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return flash.Redirect(c, "/profile", "Email already registered")
		}
		return internalError(c, err, "Could not update profile")
	}
	return flash.Redirect(c, "/profile", "Profile updated successfully!")
}

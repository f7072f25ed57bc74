package handlers

import (
	"errors"
	"fmt"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles review authoring and the farmer's review overview.
type ReviewHandler struct {
	reviewService  *services.ReviewService
	productService *services.ProductService
	validate       *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *services.ReviewService, productService *services.ProductService) *ReviewHandler {
	return &ReviewHandler{
		reviewService:  reviewService,
		productService: productService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	customersOnly := middleware.RequireCustomer("/marketplace", "Only customers can add reviews")
	router.Get("/add_review/:product_id", requireAuth, customersOnly, h.HandleReviewForm)
	router.Post("/add_review/:product_id", requireAuth, customersOnly, h.HandleAddReview)
	router.Get("/farmer_reviews", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can view this page"), h.HandleFarmerReviews)
}

// ReviewRequest represents the review form.
type ReviewRequest struct {
	Rating  int    `json:"rating" form:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" form:"comment" validate:"max=2000"`
}

func productPath(productID string) string {
	return "/product/" + productID
}

// HandleReviewForm shows the review form unless the customer already reviewed the product.
func (h *ReviewHandler) HandleReviewForm(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	product, err := h.productService.GetProduct(c.UserContext(), productID)
	if err != nil {
		if services.IsNotFound(err) {
			return notFound(c, fmt.Sprintf("Product with ID %s not found", productID))
		}
		return internalError(c, err, "Could not retrieve product")
	}

	reviewed, err := h.reviewService.HasReviewed(c.UserContext(), middleware.CurrentCustomer(c), productID)
	if err != nil {
		return internalError(c, err, "Could not retrieve reviews")
	}
	if reviewed {
		return flash.Redirect(c, productPath(productID), "You have already reviewed this product")
	}
	return render(c, "add_review", fiber.Map{"product": product})
}

// HandleAddReview records the customer's review of a product.
func (h *ReviewHandler) HandleAddReview(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return flash.Redirect(c, "/add_review/"+productID, "Invalid review form")
	}
	if err := h.validate.Struct(req); err != nil {
		return flash.Redirect(c, "/add_review/"+productID, "Rating must be between 1 and 5")
	}

	_, err := h.reviewService.AddReview(c.UserContext(), middleware.CurrentCustomer(c), productID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case services.IsNotFound(err):
			return notFound(c, fmt.Sprintf("Product with ID %s not found", productID))
		case errors.Is(err, services.ErrAlreadyReviewed):
			return flash.Redirect(c, productPath(productID), "You have already reviewed this product")
		case errors.Is(err, services.ErrInvalidRating):
			return flash.Redirect(c, "/add_review/"+productID, "Rating must be between 1 and 5")
		}
		return internalError(c, err, "Could not add review")
	}
	return flash.Redirect(c, productPath(productID), "Review added successfully!")
}

// HandleFarmerReviews lists the reviews the farmer received and their mean.
func (h *ReviewHandler) HandleFarmerReviews(c *fiber.Ctx) error {
	received, err := h.reviewService.FarmerReviews(c.UserContext(), middleware.CurrentFarmer(c))
	if err != nil {
		return internalError(c, err, "Could not retrieve reviews")
	}
	return render(c, "farmer_reviews", fiber.Map{
		"reviews":      received.Reviews,
		"avg_rating":   received.AvgRating,
		"review_count": received.ReviewCount,
	})
}

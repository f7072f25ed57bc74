package handlers

import (
	"errors"
	"fmt"
	"strings"

	"farmersmarket/internal/flash"
	"farmersmarket/internal/middleware"
	"farmersmarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles the catalog and farmers' product management.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/marketplace", h.HandleMarketplace)
	router.Get("/product/:id", h.HandleProductDetails)

	router.Get("/add_product", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can add products"), h.HandleAddProductForm)
	router.Post("/add_product", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can add products"), h.HandleAddProduct)
	router.Get("/my_products", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can view their products"), h.HandleMyProducts)
	router.Get("/edit_product/:id", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can edit products"), h.HandleEditProductForm)
	router.Post("/edit_product/:id", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can edit products"), h.HandleEditProduct)
	router.Post("/delete_product/:id", requireAuth, middleware.RequireFarmer("/dashboard", "Only farmers can delete products"), h.HandleDeleteProduct)
}

// ProductRequest represents the add and edit product forms. Price is kept
// as text so it is parsed exactly.
type ProductRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description"`
	Price       string `json:"price" form:"price" validate:"required,numeric"`
	Quantity    int    `json:"quantity" form:"quantity" validate:"gte=0"`
	Category    string `json:"category" form:"category" validate:"max=50"`
	ImageURL    string `json:"image_url" form:"image_url" validate:"omitempty,url,max=200"`
}

func (h *ProductHandler) parseProduct(c *fiber.Ctx) (services.ProductInput, error) {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return services.ProductInput{}, errors.New("Invalid product form")
	}
	req.Price = strings.TrimSpace(req.Price)
	if err := h.validate.Struct(req); err != nil {
		return services.ProductInput{}, errors.New(validationMessage(err))
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return services.ProductInput{}, fmt.Errorf("Invalid price %q", req.Price)
	}
	return services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price.Round(2),
		Quantity:    req.Quantity,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}, nil
}

// HandleMarketplace lists in-stock products filtered by category and name.
func (h *ProductHandler) HandleMarketplace(c *fiber.Ctx) error {
	category := c.Query("category")
	search := c.Query("search")
	market, err := h.service.Marketplace(c.UserContext(), category, search)
	if err != nil {
		return internalError(c, err, "Could not retrieve products")
	}
	return render(c, "marketplace", fiber.Map{
		"products":         market.Products,
		"categories":       market.Categories,
		"current_category": category,
		"search_query":     search,
	})
}

// HandleProductDetails shows one product with its reviews.
func (h *ProductHandler) HandleProductDetails(c *fiber.Ctx) error {
	productID := c.Params("id")
	details, err := h.service.ProductDetails(c.UserContext(), productID, middleware.CurrentAccount(c))
	if err != nil {
		if services.IsNotFound(err) {
			return notFound(c, fmt.Sprintf("Product with ID %s not found", productID))
		}
		return internalError(c, err, "Could not retrieve product")
	}
	return render(c, "product_details", fiber.Map{
		"product":      details.Product,
		"reviews":      details.Reviews,
		"avg_rating":   details.AvgRating,
		"review_count": details.ReviewCount,
		"can_review":   details.CanReview,
	})
}

// HandleAddProductForm describes the empty product form.
func (h *ProductHandler) HandleAddProductForm(c *fiber.Ctx) error {
	return render(c, "add_product", nil)
}

// HandleAddProduct lists a new product for the logged-in farmer.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	input, err := h.parseProduct(c)
	if err != nil {
		return flash.Redirect(c, "/add_product", err.Error())
	}
	if _, err := h.service.CreateProduct(c.UserContext(), middleware.CurrentFarmer(c), input); err != nil {
		if errors.Is(err, services.ErrInvalidProduct) {
			return flash.Redirect(c, "/add_product", err.Error())
		}
		return internalError(c, err, "Could not create product")
	}
	return flash.Redirect(c, "/my_products", "Product added successfully!")
}

// HandleMyProducts lists the farmer's products, sold-out ones included.
func (h *ProductHandler) HandleMyProducts(c *fiber.Ctx) error {
	products, err := h.service.MyProducts(c.UserContext(), middleware.CurrentFarmer(c))
	if err != nil {
		return internalError(c, err, "Could not retrieve products")
	}
	return render(c, "my_products", fiber.Map{"products": products})
}

// HandleEditProductForm shows one of the farmer's products for editing.
func (h *ProductHandler) HandleEditProductForm(c *fiber.Ctx) error {
	product, err := h.service.GetOwnedProduct(c.UserContext(), middleware.CurrentFarmer(c), c.Params("id"))
	if err != nil {
		if services.IsNotFound(err) {
			return flash.Redirect(c, "/my_products", "Product not found or you do not have permission to edit it")
		}
		return internalError(c, err, "Could not retrieve product")
	}
	return render(c, "edit_product", fiber.Map{"product": product})
}

// HandleEditProduct overwrites one of the farmer's products.
func (h *ProductHandler) HandleEditProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	input, err := h.parseProduct(c)
	if err != nil {
		return flash.Redirect(c, "/edit_product/"+productID, err.Error())
	}
	if _, err := h.service.UpdateProduct(c.UserContext(), middleware.CurrentFarmer(c), productID, input); err != nil {
		switch {
		case services.IsNotFound(err):
			return flash.Redirect(c, "/my_products", "Product not found or you do not have permission to edit it")
		case errors.Is(err, services.ErrInvalidProduct):
			return flash.Redirect(c, "/edit_product/"+productID, err.Error())
		}
		return internalError(c, err, "Could not update product")
	}
	return flash.Redirect(c, "/my_products", "Product updated successfully!")
}

// HandleDeleteProduct removes one of the farmer's products.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), middleware.CurrentFarmer(c), c.Params("id")); err != nil {
		switch {
		case services.IsNotFound(err):
			return flash.Redirect(c, "/my_products", "Product not found or you do not have permission to delete it")
		case errors.Is(err, services.ErrProductHasOrders):
			return flash.Redirect(c, "/my_products", "Cannot delete product that has existing orders. You can set quantity to 0 instead.")
		}
		return internalError(c, err, "Could not delete product")
	}
	return flash.Redirect(c, "/my_products", "Product deleted successfully!")
}

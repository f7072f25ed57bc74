package services

import (
	"context"
	"fmt"
	"strings"

	"farmersmarket/internal/cache"
	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// FeaturedLimit is the number of products shown on the home page.
const FeaturedLimit = 8

// ProductService handles the catalog and farmers' product management.
type ProductService struct {
	repo    repositories.ProductRepository
	reviews repositories.ReviewRepository
	uow     repositories.UnitOfWork
	ratings cache.RatingCache // optional
}

// NewProductService creates a new ProductService. ratings may be nil.
func NewProductService(repo repositories.ProductRepository, reviews repositories.ReviewRepository, uow repositories.UnitOfWork, ratings cache.RatingCache) *ProductService {
	return &ProductService{
		repo:    repo,
		reviews: reviews,
		uow:     uow,
		ratings: ratings,
	}
}

// ProductInput holds the farmer-editable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    string
	ImageURL    string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.Category = strings.TrimSpace(in.Category)
	p.ImageURL = in.ImageURL
}

// Marketplace is the filtered catalog with rating aggregates.
type Marketplace struct {
	Products   []models.ProductListing `json:"products"`
	Categories []string                `json:"categories"`
}

// ProductDetails is a single product page.
type ProductDetails struct {
	Product     *models.Product `json:"product"`
	Reviews     []models.Review `json:"reviews"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int64           `json:"review_count"`
	CanReview   bool            `json:"can_review"`
}

// Featured returns up to FeaturedLimit in-stock products.
func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx, repositories.ProductFilter{InStockOnly: true, Limit: FeaturedLimit})
}

// Marketplace returns every in-stock product matching category (exact) and
// search (substring of the name), each with its average rating and review count.
func (s *ProductService) Marketplace(ctx context.Context, category, search string) (*Marketplace, error) {
	products, err := s.repo.List(ctx, repositories.ProductFilter{
		Category:    category,
		Search:      search,
		InStockOnly: true,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	summaries, err := ratingSummaries(ctx, s.reviews, s.ratings, ids)
	if err != nil {
		return nil, err
	}

	listings := make([]models.ProductListing, len(products))
	for i, p := range products {
		summary := summaries[p.ID]
		listings[i] = models.ProductListing{
			Product:     p,
			AvgRating:   summary.Average,
			ReviewCount: summary.Count,
		}
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &Marketplace{Products: listings, Categories: categories}, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ProductDetails loads a product with its reviews. viewer may be nil.
func (s *ProductService) ProductDetails(ctx context.Context, id string, viewer models.Account) (*ProductDetails, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	ratings := make([]int, len(reviews))
	canReview := false
	customer, isCustomer := viewer.(models.CustomerAccount)
	if isCustomer {
		canReview = true
	}
	for i, r := range reviews {
		ratings[i] = r.Rating
		if isCustomer && r.CustomerID == customer.ID() {
			canReview = false
		}
	}
	summary := summarize(ratings)

	return &ProductDetails{
		Product:     product,
		Reviews:     reviews,
		AvgRating:   summary.Average,
		ReviewCount: summary.Count,
		CanReview:   canReview,
	}, nil
}

// MyProducts returns every product of the farmer, including sold-out ones.
func (s *ProductService) MyProducts(ctx context.Context, farmer models.FarmerAccount) ([]models.Product, error) {
	return s.repo.ListByFarmer(ctx, farmer.ID())
}

// GetOwnedProduct returns the product only when the farmer owns it.
func (s *ProductService) GetOwnedProduct(ctx context.Context, farmer models.FarmerAccount, id string) (*models.Product, error) {
	return s.repo.GetOwned(ctx, id, farmer.ID())
}

// CreateProduct lists a new product owned by farmer.
func (s *ProductService) CreateProduct(ctx context.Context, farmer models.FarmerAccount, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{FarmerID: farmer.ID()}
	input.apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	log.Info().Str("product_id", product.ID).Str("farmer_id", farmer.ID()).Msg("product created")
	return product, nil
}

// UpdateProduct overwrites the editable fields of one of the farmer's products.
func (s *ProductService) UpdateProduct(ctx context.Context, farmer models.FarmerAccount, id string, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.GetOwned(ctx, id, farmer.ID())
	if err != nil {
		return nil, err
	}
	input.apply(product)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes one of the farmer's products together with the cart
// lines and reviews pointing at it. Products that were ever ordered are kept.
func (s *ProductService) DeleteProduct(ctx context.Context, farmer models.FarmerAccount, id string) error {
	err := s.uow.Transaction(ctx, func(tx repositories.Repositories) error {
		if _, err := tx.Products.GetOwned(ctx, id, farmer.ID()); err != nil {
			return err
		}
		ordered, err := tx.Orders.HasItemsForProduct(ctx, id)
		if err != nil {
			return err
		}
		if ordered {
			return ErrProductHasOrders
		}
		if err := tx.Carts.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.Reviews.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.ratings != nil {
		if err := s.ratings.Invalidate(ctx, id); err != nil {
			log.Warn().Err(err).Str("product_id", id).Msg("rating cache invalidation failed")
		}
	}
	log.Info().Str("product_id", id).Str("farmer_id", farmer.ID()).Msg("product deleted")
	return nil
}

package repositories

import (
	"context"

	"farmersmarket/internal/models"
)

// ProductFilter narrows a product listing. Zero values disable a filter.
type ProductFilter struct {
	Category    string
	Search      string // substring of the name
	InStockOnly bool
	Limit       int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetOwned(ctx context.Context, id, farmerID string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
}

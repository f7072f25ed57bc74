package repositories

import (
	"context"

	"farmersmarket/internal/models"
)

// CartRepository defines the interface for cart line data access.
type CartRepository interface {
	ListByCustomer(ctx context.Context, customerID string) ([]models.CartItem, error)
	GetByCustomerAndProduct(ctx context.Context, customerID, productID string) (*models.CartItem, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	DeleteOwned(ctx context.Context, id, customerID string) (bool, error)
	DeleteByCustomer(ctx context.Context, customerID string) error
	DeleteByProduct(ctx context.Context, productID string) error
}

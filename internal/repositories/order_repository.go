package repositories

import (
	"context"

	"farmersmarket/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]models.Order, error)
	ItemsByFarmer(ctx context.Context, farmerID string) ([]models.OrderItem, error)
	ItemsByOrderAndFarmer(ctx context.Context, orderID, farmerID string) ([]models.OrderItem, error)
	UpdateStatusForFarmer(ctx context.Context, orderID, farmerID string, status models.OrderStatus) error
	HasItemsForProduct(ctx context.Context, productID string) (bool, error)
}

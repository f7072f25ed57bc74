package repositories

import (
	"context"

	"farmersmarket/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByCustomerAndProduct(ctx context.Context, customerID, productID string) (*models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]models.Review, error)
	CountByFarmer(ctx context.Context, farmerID string) (int64, error)
	RatingSummaries(ctx context.Context, productIDs []string) (map[string]models.RatingSummary, error)
	DeleteByProduct(ctx context.Context, productID string) error
}

package repositories

import (
	"context"
	"fmt"

	"farmersmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

// Create inserts a review. A second review for the same (customer, product)
// fails with ErrDuplicate through the unique index.
func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", translate(err))
	}
	return nil
}

func (r *GORMReviewRepository) GetByCustomerAndProduct(ctx context.Context, customerID, productID string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "customer_id = ? AND product_id = ?", customerID, productID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get review of product %s by %s: %w", productID, customerID, translate(err))
	}
	return &review, nil
}

// ListByProduct returns the product's reviews with their authors, newest first.
func (r *GORMReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of product %s: %w", productID, err)
	}
	return reviews, nil
}

// ListByFarmer returns the reviews received by farmerID with product and author.
func (r *GORMReviewRepository) ListByFarmer(ctx context.Context, farmerID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Customer").
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of farmer %s: %w", farmerID, err)
	}
	return reviews, nil
}

func (r *GORMReviewRepository) CountByFarmer(ctx context.Context, farmerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("farmer_id = ?", farmerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reviews of farmer %s: %w", farmerID, err)
	}
	return count, nil
}

// RatingSummaries returns the raw mean and count per product in one grouped
// query. Products without reviews are absent from the map.
func (r *GORMReviewRepository) RatingSummaries(ctx context.Context, productIDs []string) (map[string]models.RatingSummary, error) {
	summaries := make(map[string]models.RatingSummary, len(productIDs))
	if len(productIDs) == 0 {
		return summaries, nil
	}

	var rows []struct {
		ProductID string
		Average   float64
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	for _, row := range rows {
		summaries[row.ProductID] = models.RatingSummary{Average: row.Average, Count: row.Count}
	}
	return summaries, nil
}

// DeleteByProduct removes every review of productID.
func (r *GORMReviewRepository) DeleteByProduct(ctx context.Context, productID string) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Review{}).Error; err != nil {
		return fmt.Errorf("failed to delete reviews of product %s: %w", productID, err)
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"

	"farmersmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// ListByCustomer returns the customer's cart lines in insertion order with
// their products loaded.
func (r *GORMCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("added_at, id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart of customer %s: %w", customerID, err)
	}
	return items, nil
}

// GetByCustomerAndProduct returns the customer's line for productID.
func (r *GORMCartRepository) GetByCustomerAndProduct(ctx context.Context, customerID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).First(&item, "customer_id = ? AND product_id = ?", customerID, productID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cart line for product %s: %w", productID, translate(err))
	}
	return &item, nil
}

// CountByCustomer returns the number of lines in the customer's cart.
func (r *GORMCartRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cart of customer %s: %w", customerID, err)
	}
	return count, nil
}

// Create inserts a new cart line.
func (r *GORMCartRepository) Create(ctx context.Context, item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		return fmt.Errorf("failed to create cart line: %w", translate(err))
	}
	return nil
}

// UpdateQuantity overwrites the quantity of a cart line.
func (r *GORMCartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart line %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart line %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteOwned deletes the line only if it belongs to customerID and reports
// whether a row was removed.
func (r *GORMCartRepository) DeleteOwned(ctx context.Context, id, customerID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND customer_id = ?", id, customerID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete cart line %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByCustomer empties the customer's cart.
func (r *GORMCartRepository) DeleteByCustomer(ctx context.Context, customerID string) error {
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart of customer %s: %w", customerID, err)
	}
	return nil
}

// DeleteByProduct removes every cart line referencing productID.
func (r *GORMCartRepository) DeleteByProduct(ctx context.Context, productID string) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove product %s from carts: %w", productID, err)
	}
	return nil
}

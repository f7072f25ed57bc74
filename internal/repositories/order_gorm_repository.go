package repositories

import (
	"context"
	"fmt"
	"time"

	"farmersmarket/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order row only; items are written with CreateItem.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreateItem inserts one order line.
func (r *GORMOrderRepository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create order item for order %s: %w", item.OrderID, err)
	}
	return nil
}

// GetByID retrieves an order with all its lines and their products.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, translate(err))
	}
	return &order, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *GORMOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of customer %s: %w", customerID, err)
	}
	return orders, nil
}

// ListByFarmer returns the distinct orders containing at least one line
// fulfilled by farmerID, newest first.
func (r *GORMOrderRepository) ListByFarmer(ctx context.Context, farmerID string) ([]models.Order, error) {
	db := r.db.WithContext(ctx)
	var orders []models.Order
	err := db.
		Where("id IN (?)", db.Model(&models.OrderItem{}).Select("order_id").Where("farmer_id = ?", farmerID)).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of farmer %s: %w", farmerID, err)
	}
	return orders, nil
}

// ItemsByFarmer returns every order line fulfilled by farmerID.
func (r *GORMOrderRepository) ItemsByFarmer(ctx context.Context, farmerID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Preload("Product").Where("farmer_id = ?", farmerID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list order items of farmer %s: %w", farmerID, err)
	}
	return items, nil
}

// ItemsByOrderAndFarmer returns the lines of orderID fulfilled by farmerID.
func (r *GORMOrderRepository) ItemsByOrderAndFarmer(ctx context.Context, orderID, farmerID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("order_id = ? AND farmer_id = ?", orderID, farmerID).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %s for farmer %s: %w", orderID, farmerID, err)
	}
	return items, nil
}

// UpdateStatusForFarmer sets the order status only when farmerID fulfills at
// least one of its lines. The ownership check and the write are one statement.
func (r *GORMOrderRepository) UpdateStatusForFarmer(ctx context.Context, orderID, farmerID string, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Where("EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.farmer_id = ?)", farmerID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for farmer %s: %w", orderID, farmerID, ErrNotFound)
	}
	return nil
}

// HasItemsForProduct reports whether any order line references productID.
func (r *GORMOrderRepository) HasItemsForProduct(ctx context.Context, productID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check orders of product %s: %w", productID, err)
	}
	return count > 0, nil
}

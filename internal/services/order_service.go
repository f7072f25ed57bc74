package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderService handles checkout, order history and farmer fulfillment.
type OrderService struct {
	uow       repositories.UnitOfWork
	orders    repositories.OrderRepository
	publisher EventPublisher // optional
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(uow repositories.UnitOfWork, orders repositories.OrderRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		uow:       uow,
		orders:    orders,
		publisher: publisher,
	}
}

// FarmerOrders is the fulfillment overview of one farmer.
type FarmerOrders struct {
	Orders []models.Order     `json:"orders"`
	Items  []models.OrderItem `json:"order_items"`
}

// FarmerOrderDetails is one order restricted to the farmer's own lines.
type FarmerOrderDetails struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"order_items"`
}

// Checkout turns the customer's cart into a pending order in one transaction.
// The total is taken from current prices before any line is processed; each
// line then re-reads its product and decrements stock conditionally. Any
// line without enough stock rolls back the order, its lines, every stock
// decrement and leaves the cart intact.
func (s *OrderService) Checkout(ctx context.Context, customer models.CustomerAccount) (*models.Order, error) {
	var order *models.Order
	err := s.uow.Transaction(ctx, func(tx repositories.Repositories) error {
		lines, err := tx.Carts.ListByCustomer(ctx, customer.ID())
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		for _, line := range lines {
			if line.Product == nil {
				return fmt.Errorf("cart line %s references missing product %s: %w", line.ID, line.ProductID, ErrNotFound)
			}
			total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order = &models.Order{
			CustomerID:  customer.ID(),
			TotalAmount: total,
			Status:      models.OrderStatusPending,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		for _, line := range lines {
			product, err := tx.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := tx.Products.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) {
					return &InsufficientStockError{ProductName: product.Name}
				}
				return err
			}
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				FarmerID:  product.FarmerID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}
			if err := tx.Orders.CreateItem(ctx, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		return tx.Carts.DeleteByCustomer(ctx, customer.ID())
	})
	if err != nil {
		log.Info().Err(err).Str("customer_id", customer.ID()).Msg("checkout aborted")
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID).
		Str("customer_id", customer.ID()).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("order placed")

	publish(s.publisher, OrderEvent{
		Type:       EventOrderPlaced,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		Total:      &order.TotalAmount,
		FarmerIDs:  farmerIDs(order.Items),
		OccurredAt: time.Now(),
	})
	return order, nil
}

// CustomerOrders returns the customer's orders, newest first.
func (s *OrderService) CustomerOrders(ctx context.Context, customer models.CustomerAccount) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customer.ID())
}

// CustomerOrderDetails returns one of the customer's orders with all lines.
func (s *OrderService) CustomerOrderDetails(ctx context.Context, customer models.CustomerAccount, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID() {
		return nil, ErrNotYourOrder
	}
	return order, nil
}

// FarmerOrders lists the orders containing the farmer's lines and those lines.
func (s *OrderService) FarmerOrders(ctx context.Context, farmer models.FarmerAccount) (*FarmerOrders, error) {
	orders, err := s.orders.ListByFarmer(ctx, farmer.ID())
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ItemsByFarmer(ctx, farmer.ID())
	if err != nil {
		return nil, err
	}
	return &FarmerOrders{Orders: orders, Items: items}, nil
}

// FarmerOrderDetails returns an order with only the farmer's lines. An order
// without such lines is reported as not found.
func (s *OrderService) FarmerOrderDetails(ctx context.Context, farmer models.FarmerAccount, orderID string) (*FarmerOrderDetails, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ItemsByOrderAndFarmer(ctx, orderID, farmer.ID())
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order %s has no items of farmer %s: %w", orderID, farmer.ID(), ErrNotFound)
	}
	order.Items = nil
	return &FarmerOrderDetails{Order: order, Items: items}, nil
}

// UpdateOrderStatus sets the shared status of an order the farmer fulfills at
// least one line of. Any status in models.OrderStatuses is accepted from any
// other status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, farmer models.FarmerAccount, orderID string, status models.OrderStatus) error {
	items, err := s.orders.ItemsByOrderAndFarmer(ctx, orderID, farmer.ID())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("order %s has no items of farmer %s: %w", orderID, farmer.ID(), ErrNotFound)
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.orders.UpdateStatusForFarmer(ctx, orderID, farmer.ID(), status); err != nil {
		return err
	}
	log.Info().Str("order_id", orderID).Str("farmer_id", farmer.ID()).Str("status", string(status)).Msg("order status updated")

	publish(s.publisher, OrderEvent{
		Type:       EventOrderStatusUpdated,
		OrderID:    orderID,
		Status:     status,
		UpdatedBy:  farmer.ID(),
		OccurredAt: time.Now(),
	})
	return nil
}

func farmerIDs(items []models.OrderItem) []string {
	seen := make(map[string]bool, len(items))
	var ids []string
	for _, item := range items {
		if !seen[item.FarmerID] {
			seen[item.FarmerID] = true
			ids = append(ids, item.FarmerID)
		}
	}
	return ids
}

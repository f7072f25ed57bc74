package services

import (
	"context"
	"errors"

	"farmersmarket/internal/models"
	"farmersmarket/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartService handles customers' cart lines.
type CartService struct {
	uow   repositories.UnitOfWork
	carts repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(uow repositories.UnitOfWork, carts repositories.CartRepository) *CartService {
	return &CartService{
		uow:   uow,
		carts: carts,
	}
}

// AddToCart puts quantity units of a product in the customer's cart, merging
// into an existing line. The add is rejected, leaving the cart untouched,
// when the requested or merged quantity exceeds current stock.
func (s *CartService) AddToCart(ctx context.Context, customer models.CustomerAccount, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	return s.uow.Transaction(ctx, func(tx repositories.Repositories) error {
		product, err := tx.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > product.Quantity {
			return ErrNotEnoughStock
		}

		line, err := tx.Carts.GetByCustomerAndProduct(ctx, customer.ID(), productID)
		switch {
		case err == nil:
			merged := line.Quantity + quantity
			if merged > product.Quantity {
				return ErrNotEnoughStock
			}
			return tx.Carts.UpdateQuantity(ctx, line.ID, merged)
		case errors.Is(err, repositories.ErrNotFound):
			return tx.Carts.Create(ctx, &models.CartItem{
				CustomerID: customer.ID(),
				ProductID:  productID,
				Quantity:   quantity,
			})
		default:
			return err
		}
	})
}

// RemoveFromCart deletes a cart line of the customer. A line that does not
// exist or belongs to someone else is ignored; the result reports whether
// anything was removed.
func (s *CartService) RemoveFromCart(ctx context.Context, customer models.CustomerAccount, lineID string) (bool, error) {
	return s.carts.DeleteOwned(ctx, lineID, customer.ID())
}

// ViewCart returns the customer's lines and their total at current prices.
func (s *CartService) ViewCart(ctx context.Context, customer models.CustomerAccount) (*models.Cart, error) {
	items, err := s.carts.ListByCustomer(ctx, customer.ID())
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return &models.Cart{Items: items, Total: total}, nil
}

// CountItems returns the number of lines in the customer's cart.
func (s *CartService) CountItems(ctx context.Context, customer models.CustomerAccount) (int64, error) {
	return s.carts.CountByCustomer(ctx, customer.ID())
}

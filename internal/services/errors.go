package services

import (
	"errors"
	"fmt"

	"farmersmarket/internal/repositories"
)

var (
	ErrNotFound           = repositories.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidUserType    = errors.New("user type must be farmer or customer")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrProductHasOrders   = errors.New("cannot delete product that has existing orders")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrNotEnoughStock     = errors.New("not enough stock")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrNotYourOrder       = errors.New("you can only view your own orders")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed    = errors.New("you have already reviewed this product")
)

// InsufficientStockError aborts a checkout and names the product that ran out.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrNotEnoughStock
}

// IsNotFound reports whether err means the requested row does not exist or
// is not visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

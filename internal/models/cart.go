package models

import "github.com/shopspring/decimal"

// CartItem is one line of a customer's cart. There is at most one line per
// (customer, product).
type CartItem struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string   `json:"customer_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_customer_product"`
	ProductID  string   `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_customer_product"`
	Product    *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   int      `json:"quantity" gorm:"not null"`
	AddedAt    int64    `json:"-" gorm:"autoCreateTime:nano;index"`
}

// Cart is the computed view of a customer's cart at current prices.
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

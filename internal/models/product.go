package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a farmer's listing in the market.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null;check:quantity >= 0"` // available stock
	Category    string          `json:"category" gorm:"type:varchar(50);index"`
	ImageURL    string          `json:"image_url,omitempty" gorm:"type:varchar(200)"`
	FarmerID    string          `json:"farmer_id" gorm:"type:varchar(36);not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListing is a product together with its rating aggregate.
type ProductListing struct {
	Product
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int64   `json:"review_count"`
}

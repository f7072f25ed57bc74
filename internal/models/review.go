package models

import "time"

// Review is a customer's rating of a product. FarmerID is copied from the
// product when the review is written.
type Review struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID  string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_customer_product"`
	Product    *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_customer_product"`
	Customer   *User     `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	FarmerID   string    `json:"farmer_id" gorm:"type:varchar(36);not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingSummary is the mean rating (one decimal) and number of reviews.
type RatingSummary struct {
	Average float64 `json:"avg_rating"`
	Count   int64   `json:"review_count"`
}

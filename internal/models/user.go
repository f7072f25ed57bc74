package models

import "time"

// UserType is the role an account is created with. It never changes.
type UserType string

const (
	UserTypeFarmer   UserType = "farmer"
	UserTypeCustomer UserType = "customer"
)

// User represents an account of the market.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(80);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(120);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	UserType  UserType  `json:"user_type" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
}

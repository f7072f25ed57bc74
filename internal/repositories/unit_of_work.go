package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles one repository per table, all bound to the same
// connection or transaction.
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Reviews  ReviewRepository
}

// NewGORMRepositories binds every GORM repository to db.
func NewGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    NewGORMUserRepository(db),
		Products: NewGORMProductRepository(db),
		Carts:    NewGORMCartRepository(db),
		Orders:   NewGORMOrderRepository(db),
		Reviews:  NewGORMReviewRepository(db),
	}
}

// UnitOfWork runs fn inside one transaction. Returning an error from fn rolls
// back every write made through the repositories it received.
type UnitOfWork interface {
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
}

// GORMUnitOfWork is a GORM implementation of UnitOfWork.
type GORMUnitOfWork struct {
	db *gorm.DB
}

// NewGORMUnitOfWork creates a new instance of GORMUnitOfWork.
func NewGORMUnitOfWork(db *gorm.DB) *GORMUnitOfWork {
	return &GORMUnitOfWork{db: db}
}

func (u *GORMUnitOfWork) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMRepositories(tx))
	})
}

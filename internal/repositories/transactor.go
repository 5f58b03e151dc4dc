package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs fn inside a single database transaction. Repositories
// called with the context passed to fn participate in that transaction, so a
// service can group writes across repositories into one atomic boundary.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (g *gormTransactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls reuse the transaction already carried by the context.
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom resolves the handle repositories should use: the transaction carried
// by the context when present, the shared pool otherwise.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lojinha/internal/models/db_models"
)

type IStoreRepository interface {
	GetByID(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error)
	// GetByIDForUpdate takes a pessimistic row lock on the store, serializing
	// concurrent payment-intent creation for it. Must be called with a context
	// produced by Transactor.Do.
	GetByIDForUpdate(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error)
	GetBySlug(ctx context.Context, slug string) (*db_models.Store, error)
	SetOpen(ctx context.Context, storeID uuid.UUID, open bool) error
}

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) IStoreRepository {
	return &StoreRepository{db: db}
}

func (s *StoreRepository) GetByID(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error) {
	var store db_models.Store
	err := dbFrom(ctx, s.db).First(&store, "id = ?", storeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoreRepository) GetByIDForUpdate(ctx context.Context, storeID uuid.UUID) (*db_models.Store, error) {
	var store db_models.Store
	err := dbFrom(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&store, "id = ?", storeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoreRepository) GetBySlug(ctx context.Context, slug string) (*db_models.Store, error) {
	var store db_models.Store
	err := dbFrom(ctx, s.db).First(&store, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoreRepository) SetOpen(ctx context.Context, storeID uuid.UUID, open bool) error {
	return dbFrom(ctx, s.db).
		Model(&db_models.Store{}).
		Where("id = ?", storeID).
		Update("open", open).Error
}

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lojinha/internal/models/db_models"
)

type ISubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	// GetCurrentByStore returns the subscription with the latest end date for
	// the store. Callers must always resolve "current" through this lookup,
	// never assume uniqueness of non-terminal rows.
	GetCurrentByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Subscription, error)
	Create(ctx context.Context, sub *db_models.Subscription) error
	Update(ctx context.Context, sub *db_models.Subscription) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status db_models.SubscriptionStatus) error
	UpdateReminderStage(ctx context.Context, id uuid.UUID, stage int) error
	ListAll(ctx context.Context) ([]db_models.Subscription, error)
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) ISubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (s *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := dbFrom(ctx, s.db).
		Preload("Plan").
		Preload("Store").
		First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionRepository) GetCurrentByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := dbFrom(ctx, s.db).
		Preload("Plan").
		Where("store_id = ?", storeID).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionRepository) Create(ctx context.Context, sub *db_models.Subscription) error {
	return dbFrom(ctx, s.db).Create(sub).Error
}

func (s *SubscriptionRepository) Update(ctx context.Context, sub *db_models.Subscription) error {
	return dbFrom(ctx, s.db).
		Model(&db_models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"plan_id":        sub.PlanID,
			"status":         sub.Status,
			"starts_at":      sub.StartsAt,
			"ends_at":        sub.EndsAt,
			"auto_renew":     sub.AutoRenew,
			"reminder_stage": sub.ReminderStage,
		}).Error
}

func (s *SubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status db_models.SubscriptionStatus) error {
	return dbFrom(ctx, s.db).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *SubscriptionRepository) UpdateReminderStage(ctx context.Context, id uuid.UUID, stage int) error {
	return dbFrom(ctx, s.db).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		Update("reminder_stage", stage).Error
}

func (s *SubscriptionRepository) ListAll(ctx context.Context) ([]db_models.Subscription, error) {
	var subs []db_models.Subscription
	err := dbFrom(ctx, s.db).
		Preload("Plan").
		Preload("Store").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

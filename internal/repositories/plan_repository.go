package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lojinha/internal/models/db_models"
)

type IPlanRepository interface {
	GetByID(ctx context.Context, planID uuid.UUID) (*db_models.Plan, error)
	GetByName(ctx context.Context, name string) (*db_models.Plan, error)
	ListEnabled(ctx context.Context) ([]db_models.Plan, error)
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (p *PlanRepository) GetByID(ctx context.Context, planID uuid.UUID) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := dbFrom(ctx, p.db).First(&plan, "id = ?", planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (p *PlanRepository) GetByName(ctx context.Context, name string) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := dbFrom(ctx, p.db).First(&plan, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (p *PlanRepository) ListEnabled(ctx context.Context) ([]db_models.Plan, error) {
	var plans []db_models.Plan
	err := dbFrom(ctx, p.db).
		Where("enabled = TRUE").
		Order("price_minor ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

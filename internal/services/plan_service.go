package services

import (
	"context"

	"github.com/google/uuid"

	"lojinha/internal/models/response_models"
	"lojinha/internal/repositories"
	"lojinha/pkg/utils"
)

type PlanServiceInterface interface {
	ListEnabled(ctx context.Context) ([]response_models.PlanResponse, error)
	GetPlanByID(ctx context.Context, planID uuid.UUID) (response_models.PlanResponse, error)
}

func NewPlanService(planRepo repositories.IPlanRepository) PlanServiceInterface {
	return &PlanService{planRepo: planRepo}
}

type PlanService struct {
	planRepo repositories.IPlanRepository
}

func (p *PlanService) ListEnabled(ctx context.Context) ([]response_models.PlanResponse, error) {
	plans, err := p.planRepo.ListEnabled(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, response_models.PlanResponse{
			ID:           plan.ID,
			Name:         plan.Name,
			DisplayName:  plan.DisplayName,
			PriceMinor:   plan.PriceMinor,
			Currency:     plan.Currency,
			DurationDays: plan.DurationDays,
		})
	}
	return result, nil
}

func (p *PlanService) GetPlanByID(ctx context.Context, planID uuid.UUID) (response_models.PlanResponse, error) {
	plan, err := p.planRepo.GetByID(ctx, planID)
	if err != nil {
		return response_models.PlanResponse{}, utils.ErrDatabaseError
	}
	if plan == nil {
		return response_models.PlanResponse{}, utils.ErrPlanInvalid
	}

	return response_models.PlanResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		DisplayName:  plan.DisplayName,
		PriceMinor:   plan.PriceMinor,
		Currency:     plan.Currency,
		DurationDays: plan.DurationDays,
	}, nil
}

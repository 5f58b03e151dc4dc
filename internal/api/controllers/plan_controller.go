package controllers

import (
	"github.com/gin-gonic/gin"

	"lojinha/internal/services"
	"lojinha/pkg/utils"
)

type PlanController struct {
	planService services.PlanServiceInterface
}

func NewPlanController(planService services.PlanServiceInterface) *PlanController {
	return &PlanController{planService: planService}
}

func (p *PlanController) ListPlans(c *gin.Context) {
	plans, err := p.planService.ListEnabled(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plans, "Plans retrieved successfully")
}

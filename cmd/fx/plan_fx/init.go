package plan_fx

import (
	"go.uber.org/fx"

	"lojinha/internal/api/controllers"
	"lojinha/internal/services"
)

var Module = fx.Provide(
	services.NewPlanService,
	controllers.NewPlanController,
)

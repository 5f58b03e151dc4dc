package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"lojinha/internal/infra"
	"lojinha/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	repositories.NewTransactor,
	repositories.NewPlanRepository,
	repositories.NewStoreRepository,
	repositories.NewSubscriptionRepository,
	repositories.NewPaymentRepository,
)

func provideDB() *gorm.DB {
	return infra.InitPostgresql()
}

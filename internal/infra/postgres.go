package infra

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lojinha/internal/models/db_models"
)

func InitPostgresql() *gorm.DB {
	dsn := os.Getenv("POSTGRES_URL")

	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("Error connecting to database: %v", err)
		log.Fatal("Error connecting to database")
	}

	if err := connectionPool.AutoMigrate(
		&db_models.Store{},
		&db_models.Plan{},
		&db_models.Subscription{},
		&db_models.Payment{},
		&db_models.PaymentEvent{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	seedPlans(connectionPool)

	return connectionPool
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting database instance: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}
}

// seedPlans inserts the default pricing tiers when the catalog is empty.
// Existing plans are never updated here: a plan referenced by a live
// subscription is immutable, changes only apply to rows created later.
func seedPlans(db *gorm.DB) {
	var count int64
	if err := db.Model(&db_models.Plan{}).Count(&count).Error; err != nil {
		log.Printf("Error counting plans: %v", err)
		return
	}
	if count > 0 {
		return
	}

	defaults := []db_models.Plan{
		{Name: "mensal", DisplayName: "Plano Mensal", PriceMinor: 4990, Currency: "BRL", DurationDays: 30, Enabled: true},
		{Name: "trimestral", DisplayName: "Plano Trimestral", PriceMinor: 12990, Currency: "BRL", DurationDays: 90, Enabled: true},
		{Name: "anual", DisplayName: "Plano Anual", PriceMinor: 44990, Currency: "BRL", DurationDays: 365, Enabled: true},
	}
	if err := db.Create(&defaults).Error; err != nil {
		log.Printf("Error seeding plans: %v", err)
	}
}

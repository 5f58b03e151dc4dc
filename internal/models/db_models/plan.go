package db_models

type Plan struct {
	BaseModel
	Name         string `gorm:"uniqueIndex"` // machine name, e.g. "basic", "pro"
	DisplayName  string
	PriceMinor   int64  // 4990 = R$49,90
	Currency     string `gorm:"size:3;default:'BRL'"`
	DurationDays int    `gorm:"not null"`
	Enabled      bool   `gorm:"default:true"`
}

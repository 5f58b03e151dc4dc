package db_models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Store struct {
	BaseModel
	OwnerID      uuid.UUID `gorm:"index"`
	Name         string
	Slug         string `gorm:"uniqueIndex"`
	ContactEmail string

	// Open gates whether the storefront accepts orders. It is derived from the
	// current subscription and only written by the subscription engine.
	Open bool `gorm:"default:false"`

	// Payment methods the store offers at checkout, e.g. {"pix","credit_card"}.
	PaymentMethods pq.StringArray `gorm:"type:text[]"`

	Subscriptions []Subscription `gorm:"foreignKey:StoreID"`
}

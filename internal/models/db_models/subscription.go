package db_models

import (
	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubStatusPending   SubscriptionStatus = "pending"
	SubStatusTrial     SubscriptionStatus = "trial"
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusExpiring  SubscriptionStatus = "expiring"
	SubStatusExpired   SubscriptionStatus = "expired"
	SubStatusSuspended SubscriptionStatus = "suspended"
	SubStatusCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	BaseModel
	StoreID uuid.UUID `gorm:"index"`
	// Plan snapshot reference: a subscription keeps the plan it was created
	// with even if the catalog changes later.
	PlanID uuid.UUID `gorm:"index"`

	Status   SubscriptionStatus `gorm:"type:varchar(16);index"`
	StartsAt int64              `gorm:"not null"`
	EndsAt   int64              `gorm:"not null;index"`

	AutoRenew bool `gorm:"default:true"`

	// How many expiry reminders have been sent (0-3). Only ever increases
	// until a renewal resets it.
	ReminderStage int `gorm:"default:0"`

	Store Store `gorm:"foreignKey:StoreID"`
	Plan  Plan  `gorm:"foreignKey:PlanID"`
}

// OrderingDisabled reports whether this status forbids the store from
// accepting orders.
func (s SubscriptionStatus) OrderingDisabled() bool {
	switch s {
	case SubStatusPending, SubStatusExpired, SubStatusCancelled, SubStatusSuspended:
		return true
	}
	return false
}

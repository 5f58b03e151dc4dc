package response_models

import "github.com/google/uuid"

type SubscriptionResponse struct {
	ID            uuid.UUID `json:"id"`
	StoreID       uuid.UUID `json:"store_id"`
	PlanID        uuid.UUID `json:"plan_id"`
	PlanName      string    `json:"plan_name,omitempty"`
	Status        string    `json:"status"`
	StartsAt      int64     `json:"starts_at"`
	EndsAt        int64     `json:"ends_at"`
	AutoRenew     bool      `json:"auto_renew"`
	ReminderStage int       `json:"reminder_stage"`
}

type StoreGateResponse struct {
	StoreID uuid.UUID `json:"store_id"`
	Active  bool      `json:"active"`
}

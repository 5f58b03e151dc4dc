package response_models

import "github.com/google/uuid"

type PlanResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	PriceMinor   int64     `json:"price_minor"`
	Currency     string    `json:"currency"`
	DurationDays int       `json:"duration_days"`
}

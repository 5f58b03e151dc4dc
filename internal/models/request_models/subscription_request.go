package request_models

import "github.com/google/uuid"

type RenewSubscriptionRequest struct {
	PlanID    *uuid.UUID `json:"plan_id"`
	AutoRenew *bool      `json:"auto_renew"`
}

type CreateRenewalPaymentRequest struct {
	PlanID        uuid.UUID `json:"plan_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required,oneof=pix credit_card boleto"`
}

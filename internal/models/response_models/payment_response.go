package response_models

import "github.com/google/uuid"

type PaymentResponse struct {
	ID                uuid.UUID `json:"id"`
	SubscriptionID    uuid.UUID `json:"subscription_id"`
	Method            string    `json:"method"`
	Status            string    `json:"status"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	Provider          string    `json:"provider"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	QRCodeBase64      string    `json:"qr_code_base64,omitempty"`
	QRCodeText        string    `json:"qr_code_text,omitempty"`
	PaymentLink       string    `json:"payment_link,omitempty"`
	ExpiresAt         int64     `json:"expires_at"`
}

type WebhookResponse struct {
	Status string `json:"status"`
}

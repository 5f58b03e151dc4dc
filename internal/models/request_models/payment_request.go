package request_models

type ReprocessPaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id"`
}

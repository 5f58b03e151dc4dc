package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"lojinha/internal/models/db_models"
)

type MercadoPagoConfig struct {
	AccessToken string // empty means the provider is unconfigured
}

type GatewayCreateRequest struct {
	AmountMinor       int64
	Currency          string
	Method            db_models.PaymentMethod
	Description       string
	ExternalReference string // our payment id, echoed back in webhooks
	PayerEmail        string
}

type GatewayPayment struct {
	ProviderPaymentID string
	PaymentLink       string
	QRCodeBase64      string
	QRCodeText        string
}

// PaymentGatewayService is the boundary to the external payment provider.
// The provider is treated as untrusted, possibly slow and possibly failing:
// an errored call means "unknown, retry later", never success.
type PaymentGatewayService interface {
	Name() string
	// CreatePayment returns (nil, nil) when the provider is unconfigured.
	CreatePayment(ctx context.Context, req GatewayCreateRequest) (*GatewayPayment, error)
	// GetPayment fetches the provider's current view of a payment as raw
	// provider-shaped JSON. Returns (nil, nil) when unconfigured.
	GetPayment(ctx context.Context, providerPaymentID string) (map[string]interface{}, error)
}

// mercadoPagoAPI is the slice of the SDK payment client this adapter uses.
type mercadoPagoAPI interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type mercadoPagoGateway struct {
	api mercadoPagoAPI
}

func NewMercadoPagoGateway(cfg MercadoPagoConfig) (PaymentGatewayService, error) {
	if cfg.AccessToken == "" {
		return &mercadoPagoGateway{}, nil
	}
	sdkCfg, err := config.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &mercadoPagoGateway{api: payment.NewClient(sdkCfg)}, nil
}

func (g *mercadoPagoGateway) Name() string { return "mercadopago" }

var methodIDs = map[db_models.PaymentMethod]string{
	db_models.MethodPix:        "pix",
	db_models.MethodBoleto:     "bolbradesco",
	db_models.MethodCreditCard: "credit_card",
}

func (g *mercadoPagoGateway) CreatePayment(ctx context.Context, req GatewayCreateRequest) (*GatewayPayment, error) {
	if g.api == nil {
		return nil, nil
	}

	resource, err := g.api.Create(ctx, payment.Request{
		TransactionAmount: float64(req.AmountMinor) / 100,
		Description:       req.Description,
		PaymentMethodID:   methodIDs[req.Method],
		ExternalReference: req.ExternalReference,
		Payer:             &payment.PayerRequest{Email: req.PayerEmail},
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago create payment: %w", err)
	}

	out := &GatewayPayment{}
	if resource.ID != 0 {
		out.ProviderPaymentID = strconv.Itoa(resource.ID)
	}
	transactionData := resource.PointOfInteraction.TransactionData
	out.QRCodeBase64 = transactionData.QRCodeBase64
	out.QRCodeText = transactionData.QRCode
	out.PaymentLink = transactionData.TicketURL
	return out, nil
}

func (g *mercadoPagoGateway) GetPayment(ctx context.Context, providerPaymentID string) (map[string]interface{}, error) {
	if g.api == nil {
		return nil, nil
	}

	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("mercadopago payment id %q: %w", providerPaymentID, err)
	}

	resource, err := g.api.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mercadopago get payment %s: %w", providerPaymentID, err)
	}

	// Reconciliation consumes provider-shaped JSON, not SDK structs; round-trip
	// through the response's own wire tags.
	raw, err := json.Marshal(resource)
	if err != nil {
		return nil, err
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// extractProviderID tolerates the id arriving as number or string.
func extractProviderID(payload map[string]interface{}) string {
	switch v := payload["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	}
	return ""
}

// extractArtifacts pulls QR/link fields from either the nested
// point_of_interaction shape or flat keys.
func extractArtifacts(payload map[string]interface{}) (qrBase64, qrText, link string) {
	if poi, ok := payload["point_of_interaction"].(map[string]interface{}); ok {
		if td, ok := poi["transaction_data"].(map[string]interface{}); ok {
			qrBase64, _ = td["qr_code_base64"].(string)
			qrText, _ = td["qr_code"].(string)
			link, _ = td["ticket_url"].(string)
		}
	}
	if qrBase64 == "" {
		qrBase64, _ = payload["qr_code_base64"].(string)
	}
	if qrText == "" {
		qrText, _ = payload["qr_code_text"].(string)
	}
	if link == "" {
		link, _ = payload["payment_link"].(string)
	}
	return qrBase64, qrText, link
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lojinha/internal/models/db_models"
	"lojinha/internal/models/request_models"
	"lojinha/internal/models/response_models"
	"lojinha/internal/services"
	"lojinha/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

func toPaymentResponse(payment *db_models.Payment) response_models.PaymentResponse {
	return response_models.PaymentResponse{
		ID:                payment.ID,
		SubscriptionID:    payment.SubscriptionID,
		Method:            string(payment.Method),
		Status:            string(payment.Status),
		AmountMinor:       payment.AmountMinor,
		Currency:          payment.Currency,
		Provider:          payment.Provider,
		ProviderPaymentID: payment.ProviderPaymentID,
		QRCodeBase64:      payment.QRCodeBase64,
		QRCodeText:        payment.QRCodeText,
		PaymentLink:       payment.PaymentLink,
		ExpiresAt:         payment.ExpiresAt,
	}
}

// HandleWebhook godoc
// @Summary Provider webhook entry point
// @Description Accepts an arbitrary provider payload; only status and external_reference are interpreted.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	payment, rawStatus, err := p.paymentService.ApplyProviderStatus(c.Request.Context(), payload)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if payment == nil {
		utils.RespondSuccess(c, response_models.WebhookResponse{Status: rawStatus}, "No payment to reconcile")
		return
	}
	utils.RespondSuccess(c, toPaymentResponse(payment), "Webhook processed")
}

// ConfirmPayment godoc
// @Summary Manually confirm a payment (admin)
// @Tags Payments
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/{id}/confirm [post]
func (p *PaymentController) ConfirmPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid payment id")
		return
	}

	payment, err := p.paymentService.ConfirmPayment(c.Request.Context(), paymentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toPaymentResponse(payment), "Payment confirmed")
}

// Reprocess godoc
// @Summary Re-pull a payment's state from the provider (admin)
// @Description Recovery path for lost or never-delivered webhooks.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/{id}/reprocess [post]
func (p *PaymentController) Reprocess(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid payment id")
		return
	}

	var request request_models.ReprocessPaymentRequest
	_ = c.ShouldBindJSON(&request)

	payment, rawStatus, err := p.paymentService.ReprocessByPaymentID(c.Request.Context(), paymentID, request.ProviderPaymentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if payment == nil {
		utils.RespondSuccess(c, response_models.WebhookResponse{Status: rawStatus}, "No payment to reconcile")
		return
	}
	utils.RespondSuccess(c, toPaymentResponse(payment), "Payment reprocessed")
}

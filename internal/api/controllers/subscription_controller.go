package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lojinha/internal/models/db_models"
	"lojinha/internal/models/request_models"
	"lojinha/internal/models/response_models"
	"lojinha/internal/repositories"
	"lojinha/internal/services"
	"lojinha/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
	storeRepo           repositories.IStoreRepository
}

func NewSubscriptionController(
	subscriptionService services.SubscriptionServiceInterface,
	storeRepo repositories.IStoreRepository,
) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		storeRepo:           storeRepo,
	}
}

func storeIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	storeID, err := uuid.Parse(c.GetString("store_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "store_id is required")
		return uuid.Nil, false
	}
	return storeID, true
}

func toSubscriptionResponse(sub *db_models.Subscription) response_models.SubscriptionResponse {
	return response_models.SubscriptionResponse{
		ID:            sub.ID,
		StoreID:       sub.StoreID,
		PlanID:        sub.PlanID,
		PlanName:      sub.Plan.Name,
		Status:        string(sub.Status),
		StartsAt:      sub.StartsAt,
		EndsAt:        sub.EndsAt,
		AutoRenew:     sub.AutoRenew,
		ReminderStage: sub.ReminderStage,
	}
}

// GetCurrent godoc
// @Summary Current subscription of the caller's store
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/current [get]
func (s *SubscriptionController) GetCurrent(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	sub, err := s.subscriptionService.GetCurrentByStore(c.Request.Context(), storeID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if sub == nil {
		utils.RespondSuccess(c, nil, "No subscription for this store")
		return
	}
	utils.RespondSuccess(c, toSubscriptionResponse(sub), "Subscription retrieved successfully")
}

// Renew godoc
// @Summary Renew a subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.RenewSubscriptionRequest true "Renew Subscription Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/renew [post]
func (s *SubscriptionController) Renew(c *gin.Context) {
	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	var request request_models.RenewSubscriptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sub, err := s.subscriptionService.Renew(c.Request.Context(), subID, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toSubscriptionResponse(sub), "Subscription renewed successfully")
}

// CreateRenewalPayment godoc
// @Summary Create (or reuse) the pending renewal payment for the caller's store
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CreateRenewalPaymentRequest true "Create Renewal Payment Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/renewal-payment [post]
func (s *SubscriptionController) CreateRenewalPayment(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	var request request_models.CreateRenewalPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	payment, err := s.subscriptionService.CreateRenewalPayment(c.Request.Context(), userID, storeID, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toPaymentResponse(payment), "Renewal payment ready")
}

// Suspend godoc
// @Summary Suspend a subscription (admin)
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/suspend [post]
func (s *SubscriptionController) Suspend(c *gin.Context) {
	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	sub, err := s.subscriptionService.Suspend(c.Request.Context(), subID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toSubscriptionResponse(sub), "Subscription suspended")
}

// Activate godoc
// @Summary Lift a suspension (admin)
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/activate [post]
func (s *SubscriptionController) Activate(c *gin.Context) {
	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	sub, err := s.subscriptionService.Activate(c.Request.Context(), subID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, toSubscriptionResponse(sub), "Subscription activated")
}

// StoreGate godoc
// @Summary Whether a store is currently allowed to accept orders
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /stores/{slug}/active [get]
func (s *SubscriptionController) StoreGate(c *gin.Context) {
	store, err := s.storeRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if store == nil {
		utils.HandleServiceError(c, utils.ErrStoreNotFound)
		return
	}

	active, err := s.subscriptionService.AssertStoreIsActive(c.Request.Context(), store.ID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.StoreGateResponse{StoreID: store.ID, Active: active}, "")
}

package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"lojinha/internal/models/db_models"
	"lojinha/internal/repositories"
	"lojinha/pkg/pix"
	"lojinha/pkg/utils"
)

type PaymentConfig struct {
	// PaymentTTL bounds how long a pending payment intent stays reusable.
	PaymentTTL time.Duration

	// Fallback PIX charge identity, used when the gateway is unconfigured or
	// its create call fails.
	PixKey       string
	MerchantName string
	MerchantCity string
}

type CreatePaymentInput struct {
	UserID         uuid.UUID
	StoreID        uuid.UUID
	SubscriptionID uuid.UUID
	Method         db_models.PaymentMethod
	AmountMinor    int64
	Currency       string
	Description    string
	PayerEmail     string
}

// PaymentService owns the payment ledger and the reconciliation entry points
// that keep it synchronized with the external provider.
type PaymentService interface {
	// CreatePayment persists a pending payment and asks the gateway to create
	// the provider-side charge. Meant to run inside the renewal transaction.
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*db_models.Payment, error)
	// ConfirmPayment performs the activation side effects exactly once per
	// payment, no matter how many confirmations race.
	ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*db_models.Payment, error)
	// ApplyProviderStatus normalizes an arbitrary provider callback payload.
	// Returns the affected payment (nil when nothing was reconciled) and the
	// raw provider status.
	ApplyProviderStatus(ctx context.Context, payload map[string]interface{}) (*db_models.Payment, string, error)
	// ReprocessByPaymentID re-pulls the provider's current state, bypassing
	// webhooks entirely. Recovery path for lost deliveries.
	ReprocessByPaymentID(ctx context.Context, paymentID uuid.UUID, providerPaymentID string) (*db_models.Payment, string, error)
}

type paymentService struct {
	paymentRepo      repositories.IPaymentRepository
	subscriptionRepo repositories.ISubscriptionRepository
	storeRepo        repositories.IStoreRepository
	gateway          PaymentGatewayService
	mail             IMailService
	transactor       repositories.Transactor
	cfg              PaymentConfig
}

func NewPaymentService(
	paymentRepo repositories.IPaymentRepository,
	subscriptionRepo repositories.ISubscriptionRepository,
	storeRepo repositories.IStoreRepository,
	gateway PaymentGatewayService,
	mail IMailService,
	transactor repositories.Transactor,
	cfg PaymentConfig,
) PaymentService {
	if cfg.PaymentTTL <= 0 {
		cfg.PaymentTTL = 30 * time.Minute
	}
	return &paymentService{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		storeRepo:        storeRepo,
		gateway:          gateway,
		mail:             mail,
		transactor:       transactor,
		cfg:              cfg,
	}
}

const localProviderName = "local"

func (p *paymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*db_models.Payment, error) {
	now := time.Now()
	payment := &db_models.Payment{
		UserID:         input.UserID,
		StoreID:        input.StoreID,
		SubscriptionID: input.SubscriptionID,
		Method:         input.Method,
		Status:         db_models.PaymentStatusPending,
		AmountMinor:    input.AmountMinor,
		Currency:       input.Currency,
		ExpiresAt:      now.Add(p.cfg.PaymentTTL).Unix(),
	}
	if err := p.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	created, err := p.gateway.CreatePayment(ctx, GatewayCreateRequest{
		AmountMinor:       input.AmountMinor,
		Currency:          input.Currency,
		Method:            input.Method,
		Description:       input.Description,
		ExternalReference: payment.ID.String(),
		PayerEmail:        input.PayerEmail,
	})
	if err != nil {
		log.Printf("gateway create payment %s failed, using local pix fallback: %v", payment.ID, err)
	}

	if created != nil {
		payment.Provider = p.gateway.Name()
		payment.ProviderPaymentID = created.ProviderPaymentID
		payment.QRCodeBase64 = created.QRCodeBase64
		payment.QRCodeText = created.QRCodeText
		payment.PaymentLink = created.PaymentLink
	} else {
		// Unconfigured gateway or a failed create never blocks the flow: a
		// self-contained PIX charge keeps the payment collectable.
		charge := pix.Charge{
			Key:          p.cfg.PixKey,
			MerchantName: p.cfg.MerchantName,
			MerchantCity: p.cfg.MerchantCity,
			AmountMinor:  input.AmountMinor,
			TxID:         strings.ReplaceAll(payment.ID.String(), "-", "")[:25],
		}
		payloadStr, dataURI, qrErr := charge.QRCodeBase64()
		if qrErr != nil {
			log.Printf("local pix fallback for payment %s: %v", payment.ID, qrErr)
		} else {
			payment.Provider = localProviderName
			payment.QRCodeText = payloadStr
			payment.QRCodeBase64 = dataURI
		}
	}

	if err := p.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (p *paymentService) ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*db_models.Payment, error) {
	var (
		confirmed *db_models.Payment
		activated bool
		store     *db_models.Store
	)

	err := p.transactor.Do(ctx, func(ctx context.Context) error {
		// The row lock serializes every concurrent confirmation attempt for
		// this payment; the paid check below must happen under it.
		payment, err := p.paymentRepo.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return utils.ErrPaymentNotFound
		}

		if payment.Status == db_models.PaymentStatusPaid {
			confirmed = payment
			return nil
		}
		if payment.Status == db_models.PaymentStatusFailed {
			return utils.ErrPaymentAlreadyFailed
		}

		sub, err := p.subscriptionRepo.GetByID(ctx, payment.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return utils.ErrSubscriptionNotFound
		}

		now := time.Now().Unix()
		payment.Status = db_models.PaymentStatusPaid
		payment.PaidAt = &now
		if err := p.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		sub.Status = db_models.SubStatusActive
		sub.StartsAt = now
		sub.EndsAt = utils.AddDays(now, sub.Plan.DurationDays)
		sub.ReminderStage = 0
		if err := p.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}

		if err := p.storeRepo.SetOpen(ctx, payment.StoreID, true); err != nil {
			return err
		}

		confirmed = payment
		activated = true
		store = &sub.Store
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best effort, outside the transaction: an email failure must never roll
	// back the financial state change.
	if activated && store != nil && store.ContactEmail != "" {
		if mailErr := p.mail.SendActivationEmail(store.ContactEmail, store.Slug); mailErr != nil {
			log.Printf("activation email for store %s: %v", store.Slug, mailErr)
		}
	}

	return confirmed, nil
}

// failureStatuses is the provider vocabulary that moves a pending payment to
// failed. Anything else that is not approved is recorded and otherwise ignored.
var failureStatuses = map[string]bool{
	"rejected":     true,
	"cancelled":    true,
	"charged_back": true,
	"refunded":     true,
	"failed":       true,
}

func (p *paymentService) ApplyProviderStatus(ctx context.Context, payload map[string]interface{}) (*db_models.Payment, string, error) {
	externalRef, _ := payload["external_reference"].(string)
	if externalRef == "" {
		// Nothing to reconcile against.
		return nil, "", nil
	}

	paymentID, err := uuid.Parse(externalRef)
	if err != nil {
		log.Printf("provider callback with malformed external_reference %q", externalRef)
		return nil, "", nil
	}

	payment, err := p.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, "", err
	}
	if payment == nil {
		log.Printf("provider callback for unknown payment %s", paymentID)
		return nil, "", nil
	}

	rawStatus, _ := payload["status"].(string)
	provider, _ := payload["provider"].(string)
	if provider == "" {
		provider = p.gateway.Name()
	}

	// The audit trail captures every signal received, before any
	// interpretation can fail.
	rawPayload, _ := json.Marshal(payload)
	event := &db_models.PaymentEvent{
		PaymentID: payment.ID,
		Provider:  provider,
		RawStatus: rawStatus,
		Payload:   datatypes.JSON(rawPayload),
	}
	if err := p.paymentRepo.AppendEvent(ctx, event); err != nil {
		return nil, "", err
	}

	p.backfillArtifacts(ctx, payment, provider, payload)

	status := strings.ToLower(strings.TrimSpace(rawStatus))
	if status != "approved" {
		if failureStatuses[status] && payment.Status != db_models.PaymentStatusPaid {
			if err := p.paymentRepo.MarkFailed(ctx, payment.ID); err != nil {
				return nil, rawStatus, err
			}
			payment.Status = db_models.PaymentStatusFailed
		}
		return payment, rawStatus, nil
	}

	confirmed, err := p.ConfirmPayment(ctx, payment.ID)
	if err != nil {
		return nil, rawStatus, err
	}
	return confirmed, rawStatus, nil
}

func (p *paymentService) ReprocessByPaymentID(ctx context.Context, paymentID uuid.UUID, providerPaymentID string) (*db_models.Payment, string, error) {
	payment, err := p.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, "", err
	}
	if payment == nil {
		return nil, "", utils.ErrPaymentNotFound
	}

	if providerPaymentID == "" {
		providerPaymentID = payment.ProviderPaymentID
	}
	if providerPaymentID == "" {
		return nil, "", utils.ErrGatewayUnavailable
	}

	payload, err := p.gateway.GetPayment(ctx, providerPaymentID)
	if err != nil {
		return nil, "", err
	}
	if payload == nil {
		return nil, "", utils.ErrGatewayUnavailable
	}

	// The provider response may omit the reference we handed out at creation
	// time; reattach it so reconciliation can resolve the payment.
	if _, ok := payload["external_reference"].(string); !ok {
		payload["external_reference"] = payment.ID.String()
	}

	return p.ApplyProviderStatus(ctx, payload)
}

// backfillArtifacts fills display fields the creation call did not return,
// first writer wins. The write is column-scoped: the payment struct here was
// read without a lock, so persisting its status could undo a confirmation
// that committed in between. Failures are logged only: artifacts are
// cosmetic, reconciliation must go on.
func (p *paymentService) backfillArtifacts(ctx context.Context, payment *db_models.Payment, provider string, payload map[string]interface{}) {
	changed := false

	if payment.Provider == "" {
		payment.Provider = provider
		changed = true
	}
	if payment.ProviderPaymentID == "" {
		if id := extractProviderID(payload); id != "" {
			payment.ProviderPaymentID = id
			changed = true
		}
	}
	qrBase64, qrText, link := extractArtifacts(payload)
	if payment.QRCodeBase64 == "" && qrBase64 != "" {
		payment.QRCodeBase64 = qrBase64
		changed = true
	}
	if payment.QRCodeText == "" && qrText != "" {
		payment.QRCodeText = qrText
		changed = true
	}
	if payment.PaymentLink == "" && link != "" {
		payment.PaymentLink = link
		changed = true
	}

	if changed {
		if err := p.paymentRepo.UpdateArtifacts(ctx, payment); err != nil {
			log.Printf("backfill payment %s: %v", payment.ID, err)
		}
	}
}

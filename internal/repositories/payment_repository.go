package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lojinha/internal/models/db_models"
)

type IPaymentRepository interface {
	Create(ctx context.Context, payment *db_models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error)
	// GetByIDForUpdate takes a pessimistic row lock on the payment. Must be
	// called with a context produced by Transactor.Do so the lock lives for
	// the duration of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*db_models.Payment, error)
	GetPendingByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Payment, error)
	CountByStoreSince(ctx context.Context, storeID uuid.UUID, since int64) (int64, error)
	Update(ctx context.Context, payment *db_models.Payment) error
	// UpdateArtifacts writes only the provider display columns. Status is
	// deliberately out of reach: artifact backfill runs outside the row lock
	// and must never be able to touch the state machine.
	UpdateArtifacts(ctx context.Context, payment *db_models.Payment) error
	// MarkFailed moves a payment from pending to failed. It is a guarded
	// write: a paid (terminal) or already-failed row is left untouched, so an
	// out-of-order failure callback can never downgrade a confirmed payment.
	MarkFailed(ctx context.Context, id uuid.UUID) error
	AppendEvent(ctx context.Context, event *db_models.PaymentEvent) error
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) IPaymentRepository {
	return &PaymentRepository{db: db}
}

func (p *PaymentRepository) Create(ctx context.Context, payment *db_models.Payment) error {
	return dbFrom(ctx, p.db).Create(payment).Error
}

func (p *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := dbFrom(ctx, p.db).
		Preload("Subscription").
		Preload("Subscription.Plan").
		First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (p *PaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := dbFrom(ctx, p.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (p *PaymentRepository) GetPendingByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Payment, error) {
	var payment db_models.Payment
	err := dbFrom(ctx, p.db).
		Where("store_id = ? AND status = ?", storeID, db_models.PaymentStatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (p *PaymentRepository) CountByStoreSince(ctx context.Context, storeID uuid.UUID, since int64) (int64, error) {
	var count int64
	err := dbFrom(ctx, p.db).
		Model(&db_models.Payment{}).
		Where("store_id = ? AND created_at >= ?", storeID, since).
		Count(&count).Error
	return count, err
}

func (p *PaymentRepository) Update(ctx context.Context, payment *db_models.Payment) error {
	return dbFrom(ctx, p.db).
		Omit(clause.Associations).
		Save(payment).Error
}

func (p *PaymentRepository) UpdateArtifacts(ctx context.Context, payment *db_models.Payment) error {
	return dbFrom(ctx, p.db).
		Model(&db_models.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"provider":            payment.Provider,
			"provider_payment_id": payment.ProviderPaymentID,
			"qr_code_base64":      payment.QRCodeBase64,
			"qr_code_text":        payment.QRCodeText,
			"payment_link":        payment.PaymentLink,
		}).Error
}

func (p *PaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return dbFrom(ctx, p.db).
		Model(&db_models.Payment{}).
		Where("id = ? AND status = ?", id, db_models.PaymentStatusPending).
		Update("status", db_models.PaymentStatusFailed).Error
}

func (p *PaymentRepository) AppendEvent(ctx context.Context, event *db_models.PaymentEvent) error {
	return dbFrom(ctx, p.db).Create(event).Error
}

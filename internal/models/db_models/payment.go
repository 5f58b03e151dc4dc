package db_models

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodPix        PaymentMethod = "pix"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodBoleto     PaymentMethod = "boleto"
)

type Payment struct {
	BaseModel
	UserID         uuid.UUID `gorm:"index"`
	StoreID        uuid.UUID `gorm:"index"`
	SubscriptionID uuid.UUID `gorm:"index"`

	Method PaymentMethod `gorm:"type:varchar(16)"`
	// Status only moves pending->paid or pending->failed. Paid is terminal
	// and must never be overwritten by a late out-of-order callback.
	Status PaymentStatus `gorm:"type:varchar(8);index"`

	AmountMinor int64
	Currency    string `gorm:"size:3;default:'BRL'"`

	// Gateway fields
	Provider          string `gorm:"index"` // "mercadopago", "local"
	ProviderPaymentID string `gorm:"index"`
	QRCodeBase64      string
	QRCodeText        string
	PaymentLink       string

	// Unix seconds
	ExpiresAt int64
	PaidAt    *int64

	Subscription Subscription `gorm:"foreignKey:SubscriptionID"`
	Events       []PaymentEvent
}

// Expired reports whether a pending payment intent has outlived its window.
func (p *Payment) Expired(now int64) bool {
	return p.ExpiresAt > 0 && now > p.ExpiresAt
}

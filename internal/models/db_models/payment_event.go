package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentEvent is the append-only audit trail of provider signals. One row
// per webhook delivery or poll result, recorded even when it produces no
// state change, so any reconciliation can be replayed and debugged.
type PaymentEvent struct {
	BaseModel
	PaymentID uuid.UUID `gorm:"index"`
	Provider  string
	RawStatus string
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

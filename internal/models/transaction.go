package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transaction is the append-only purchase log. PaymentID is the payment
// provider's id and the idempotency key: the unique index on it is the
// sole thing that makes replayed payment notifications safe.
//
// BuyerID is a weak reference with no FK constraint, so the row survives
// account deletion as an audit artifact.
type Transaction struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID      string         `gorm:"size:255;not null;uniqueIndex" json:"payment_id"`
	AmountPaid     int64          `gorm:"not null" json:"amount_paid"`
	Plan           string         `gorm:"size:100" json:"plan"`
	CreditsGranted int64          `gorm:"not null" json:"credits_granted"`
	BuyerID        uuid.UUID      `gorm:"type:uuid;index" json:"buyer_id"`
	RawEvent       datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
}

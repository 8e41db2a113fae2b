package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local ledger record for an identity-provider account.
// ExternalID is the provider's stable id and the only cross-system key;
// the unique index on it is what closes the concurrent-provisioning race.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID    string    `gorm:"size:255;not null;uniqueIndex" json:"external_id"`
	Email         string    `gorm:"size:255" json:"email"`
	Username      string    `gorm:"size:255" json:"username"`
	Photo         string    `gorm:"size:512" json:"photo"`
	FirstName     string    `gorm:"size:255" json:"first_name"`
	LastName      string    `gorm:"size:255" json:"last_name"`
	CreditBalance int64     `gorm:"not null;default:0" json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixora/credits-backend/internal/models"
	"gorm.io/gorm"
)

var ErrInsufficientCredit = errors.New("insufficient credit")

type CreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// Adjust applies a signed delta to the user's balance as a single
// storage-level increment. A read-compute-write sequence here would lose
// updates under concurrent debits, so the balance column is only ever
// touched through this expression. The ledger enforces no floor; the
// balance may go negative.
func (s *CreditService) Adjust(userID uuid.UUID, delta int64) (*models.User, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", delta))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to adjust credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to re-read user after adjustment: %w", err)
	}
	return &user, nil
}

// Debit pre-checks sufficiency before applying a negative adjustment.
// The check is caller-side policy, not a ledger floor: two racing debits
// can both pass it and briefly overdraw the account, which is tolerated.
func (s *CreditService) Debit(userID uuid.UUID, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, errors.New("debit amount must be positive")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.CreditBalance < amount {
		return nil, ErrInsufficientCredit
	}

	return s.Adjust(userID, -amount)
}

// Credit applies a positive adjustment.
func (s *CreditService) Credit(userID uuid.UUID, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, errors.New("credit amount must be positive")
	}
	return s.Adjust(userID, amount)
}

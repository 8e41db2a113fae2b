package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixora/credits-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// PurchaseOutcome is the result of recording a finalized payment.
type PurchaseOutcome string

const (
	OutcomeRecorded        PurchaseOutcome = "recorded"
	OutcomeAlreadyRecorded PurchaseOutcome = "already_recorded"
	OutcomeBuyerNotFound   PurchaseOutcome = "buyer_not_found"
)

// PurchaseInput carries a finalized payment event.
type PurchaseInput struct {
	PaymentID      string
	BuyerID        uuid.UUID
	AmountPaid     int64
	Plan           string
	CreditsGranted int64
	RawEvent       []byte
}

type TransactionService struct {
	db      *gorm.DB
	credits *CreditService
}

func NewTransactionService(db *gorm.DB, credits *CreditService) *TransactionService {
	return &TransactionService{db: db, credits: credits}
}

// RecordPurchase appends a transaction row and applies the credit grant
// exactly once per payment id. The unique index on payment_id is the sole
// serialization point: a replayed notification hits a duplicate-key error
// on insert and returns AlreadyRecorded with no balance effect, which is
// what makes at-least-once delivery from the payment provider safe.
func (s *TransactionService) RecordPurchase(in *PurchaseInput) (PurchaseOutcome, *models.Transaction, error) {
	if in.PaymentID == "" {
		return "", nil, errors.New("payment id is required")
	}

	txn := models.Transaction{
		ID:             uuid.New(),
		PaymentID:      in.PaymentID,
		AmountPaid:     in.AmountPaid,
		Plan:           in.Plan,
		CreditsGranted: in.CreditsGranted,
		BuyerID:        in.BuyerID,
	}
	if len(in.RawEvent) > 0 {
		txn.RawEvent = datatypes.JSON(in.RawEvent)
	}

	if err := s.db.Create(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Transaction
			if err := s.db.First(&existing, "payment_id = ?", in.PaymentID).Error; err != nil {
				return OutcomeAlreadyRecorded, nil, nil
			}
			return OutcomeAlreadyRecorded, &existing, nil
		}
		return "", nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if _, err := s.credits.Adjust(in.BuyerID, in.CreditsGranted); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The row stays as an audit artifact; reconciliation, not a crash.
			slog.Warn("purchase recorded for missing buyer",
				"payment_id", in.PaymentID, "buyer_id", in.BuyerID)
			return OutcomeBuyerNotFound, &txn, nil
		}
		return "", nil, fmt.Errorf("failed to apply credit grant: %w", err)
	}

	slog.Info("purchase recorded",
		"payment_id", in.PaymentID, "plan", in.Plan, "credits", in.CreditsGranted)
	return OutcomeRecorded, &txn, nil
}

// GetByPaymentID resolves a transaction by its idempotency key.
func (s *TransactionService) GetByPaymentID(paymentID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.First(&txn, "payment_id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}
	return &txn, nil
}

// ListByBuyer returns the buyer's purchase history, newest first.
func (s *TransactionService) ListByBuyer(buyerID uuid.UUID, limit, offset int) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	query := s.db.Model(&models.Transaction{}).Where("buyer_id = ?", buyerID)
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txns, total, nil
}

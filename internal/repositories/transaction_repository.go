package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"canvango_backend/internal/models"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// SetAggregatorRefs attaches the aggregator-side reference and checkout
// URL after the payment is created upstream.
func (r *TransactionRepository) SetAggregatorRefs(ctx context.Context, id, reference, checkoutURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tripay_reference": reference,
			"checkout_url":     checkoutURL,
		}).Error
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if gormIsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// Complete transitions pending -> completed, credits the owning user's
// balance from the transaction's STORED amount, and records the dedup
// event, all in one database transaction. The status predicate is a
// compare-and-swap: under concurrent duplicate delivery exactly one caller
// observes RowsAffected == 1; everyone else gets applied == false. The
// unique index on the dedup reference closes the remaining window.
func (r *TransactionRepository) Complete(ctx context.Context, txID string, paidAt time.Time, event *models.SecurityEvent) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("id = ?", txID).First(&txn).Error; err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":       models.TransactionStatusCompleted,
				"paid_at":      paidAt,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already terminal; nothing to credit, nothing to record.
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", txn.UserID).
			Update("balance", gorm.Expr("balance + ?", txn.Amount)).Error; err != nil {
			return err
		}

		if err := tx.Create(event).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})

	if err != nil && gormIsDuplicate(err) {
		// A concurrent duplicate won the dedup reference; the whole
		// transaction rolled back, so no double credit occurred.
		return false, nil
	}
	return applied, err
}

// Fail transitions pending -> failed and records the dedup event in the
// same database transaction. No balance movement.
func (r *TransactionRepository) Fail(ctx context.Context, txID string, event *models.SecurityEvent) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txID, models.TransactionStatusPending).
			Update("status", models.TransactionStatusFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(event).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})

	if err != nil && gormIsDuplicate(err) {
		return false, nil
	}
	return applied, err
}

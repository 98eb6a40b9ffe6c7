package repositories

import (
	"context"

	"gorm.io/gorm"

	"canvango_backend/internal/models"
)

type OpenPaymentRepository struct {
	db *gorm.DB
}

func NewOpenPaymentRepository(db *gorm.DB) *OpenPaymentRepository {
	return &OpenPaymentRepository{db: db}
}

func (r *OpenPaymentRepository) Create(ctx context.Context, op *models.OpenPayment) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *OpenPaymentRepository) FindByMerchantRef(ctx context.Context, merchantRef string) (*models.OpenPayment, error) {
	var op models.OpenPayment
	err := r.db.WithContext(ctx).Where("merchant_ref = ?", merchantRef).First(&op).Error
	if err != nil {
		if gormIsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

// Materialize creates the transaction an open payment settles into, plus
// the join record, the balance credit and the dedup event, all in one
// database transaction. This is the only path where a
// callback-supplied amount becomes authoritative, so txn.Amount arrives
// already set from the verified callback body.
func (r *OpenPaymentRepository) Materialize(ctx context.Context, op *models.OpenPayment, txn *models.Transaction, event *models.SecurityEvent) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		link := &models.OpenPaymentTransaction{
			OpenPaymentID: op.ID,
			TransactionID: txn.ID,
		}
		if err := tx.Create(link).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", op.UserID).
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
		// Concurrent duplicate delivery; the dedup reference is already
		// taken and everything above rolled back.
		return false, nil
	}
	return applied, err
}

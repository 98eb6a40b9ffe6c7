package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/logger"
	"canvango_backend/internal/models"
	"canvango_backend/pkg/apperrors"
)

// TripayClient is the outbound aggregator surface used when creating
// payments.
type TripayClient interface {
	CreateClosedTransaction(ctx context.Context, merchantRef, method string, amount float64, customerName, customerEmail string) (*CreateTransactionResult, error)
	CreateOpenPayment(ctx context.Context, channel, merchantRef string) (*CreateTransactionResult, error)
}

// PaymentTransactionStore is what payment creation needs from storage.
type PaymentTransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	SetAggregatorRefs(ctx context.Context, id, reference, checkoutURL string) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
}

// OpenPaymentCreator registers open payment intents.
type OpenPaymentCreator interface {
	Create(ctx context.Context, op *models.OpenPayment) error
}

// PaymentService creates closed transactions and open payment intents
// against the aggregator.
type PaymentService struct {
	tripay       TripayClient
	transactions PaymentTransactionStore
	openPayments OpenPaymentCreator
}

func NewPaymentService(tripay TripayClient, transactions PaymentTransactionStore, openPayments OpenPaymentCreator) *PaymentService {
	return &PaymentService{
		tripay:       tripay,
		transactions: transactions,
		openPayments: openPayments,
	}
}

// CreateClosedPayment records a pending internal transaction first, then
// creates the aggregator transaction with our id as merchant_ref. The
// internal amount recorded here is what a later PAID callback credits,
// whatever the callback body claims.
func (s *PaymentService) CreateClosedPayment(ctx context.Context, userID string, req dto.CreateClosedPaymentRequest) (*models.Transaction, error) {
	txn := &models.Transaction{
		UserID:        userID,
		Amount:        req.Amount,
		Status:        models.TransactionStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "payment", "Failed to record transaction", 500)
	}

	result, err := s.tripay.CreateClosedTransaction(ctx, txn.ID, req.PaymentMethod, req.Amount, req.CustomerName, req.CustomerEmail)
	if err != nil {
		logger.CtxWithError(ctx, "aggregator transaction creation failed", err, "transaction_id", txn.ID)
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "payment", "Payment aggregator rejected the request", 502)
	}

	if err := s.transactions.SetAggregatorRefs(ctx, txn.ID, result.Reference, result.CheckoutURL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "payment", "Failed to store aggregator reference", 500)
	}

	txn.TripayReference = result.Reference
	txn.CheckoutURL = result.CheckoutURL
	return txn, nil
}

// CreateOpenPayment registers an intent without creating a transaction;
// one materializes only when the aggregator confirms payment.
func (s *PaymentService) CreateOpenPayment(ctx context.Context, userID string, req dto.CreateOpenPaymentRequest) (*models.OpenPayment, error) {
	merchantRef := fmt.Sprintf("OP-%s", uuid.NewString())

	result, err := s.tripay.CreateOpenPayment(ctx, req.PaymentMethod, merchantRef)
	if err != nil {
		logger.CtxWithError(ctx, "aggregator open payment creation failed", err, "merchant_ref", merchantRef)
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "payment", "Payment aggregator rejected the request", 502)
	}

	op := &models.OpenPayment{
		UserID:        userID,
		MerchantRef:   merchantRef,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OpenPaymentStatusActive,
		TripayURL:     result.CheckoutURL,
	}
	if err := s.openPayments.Create(ctx, op); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "payment", "Failed to record open payment", 500)
	}
	return op, nil
}

// GetTransaction returns a transaction, restricted to its owner unless the
// caller is an admin.
func (s *PaymentService) GetTransaction(ctx context.Context, id, callerID string, callerRole models.UserRole) (*models.Transaction, error) {
	txn, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "payment", "Failed to load transaction", 500)
	}
	if txn == nil {
		return nil, apperrors.ErrNotFound(nil)
	}
	if txn.UserID != callerID && callerRole != models.UserRoleAdmin {
		return nil, apperrors.NewForbiddenError("Not your transaction")
	}
	return txn, nil
}

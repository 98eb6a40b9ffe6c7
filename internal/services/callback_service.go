package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"canvango_backend/internal/config"
	"canvango_backend/internal/dto"
	"canvango_backend/internal/logger"
	"canvango_backend/internal/models"
	"canvango_backend/internal/security"
	"canvango_backend/internal/validator"
)

// TransactionStore is the closed-payment half of the reconciler's storage.
// Complete and Fail are atomic units: status compare-and-swap, balance
// credit (Complete only) and dedup event commit or roll back together.
type TransactionStore interface {
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	Complete(ctx context.Context, txID string, paidAt time.Time, event *models.SecurityEvent) (bool, error)
	Fail(ctx context.Context, txID string, event *models.SecurityEvent) (bool, error)
}

// OpenPaymentStore is the open-payment half.
type OpenPaymentStore interface {
	FindByMerchantRef(ctx context.Context, merchantRef string) (*models.OpenPayment, error)
	Materialize(ctx context.Context, op *models.OpenPayment, txn *models.Transaction, event *models.SecurityEvent) (bool, error)
}

// SecurityAuditor records gateway decisions and answers idempotency
// lookups.
type SecurityAuditor interface {
	Log(ctx context.Context, event *models.SecurityEvent)
	AlreadyProcessed(ctx context.Context, reference string) (bool, error)
}

// CallbackRequest is the raw material of one inbound callback. Body is the
// exact bytes read from the wire; nothing upstream has parsed it.
type CallbackRequest struct {
	Body      []byte
	Signature string
	SourceIP  string
	Endpoint  string
}

// CallbackService runs the verification pipeline and the reconciliation
// state machine for aggregator callbacks.
type CallbackService struct {
	gateway      config.GatewayConfig
	privateKey   string
	allowlist    *security.IPAllowlist
	validate     *validator.Validator
	transactions TransactionStore
	openPayments OpenPaymentStore
	audit        SecurityAuditor
}

func NewCallbackService(
	gateway config.GatewayConfig,
	privateKey string,
	allowlist *security.IPAllowlist,
	validate *validator.Validator,
	transactions TransactionStore,
	openPayments OpenPaymentStore,
	audit SecurityAuditor,
) *CallbackService {
	return &CallbackService{
		gateway:      gateway,
		privateKey:   privateKey,
		allowlist:    allowlist,
		validate:     validate,
		transactions: transactions,
		openPayments: openPayments,
		audit:        audit,
	}
}

// Process runs a callback through IP validation, signature verification
// over the raw body, payload validation, the idempotency guard and the
// reconciler. Every rejection emits an audit event before returning.
func (s *CallbackService) Process(ctx context.Context, req CallbackRequest) Outcome {
	// IP allow-list. Enforcement is policy-gated so operators can ride
	// out aggregator IP-range migrations without a deploy.
	if !s.allowlist.IsAllowed(req.SourceIP) {
		if s.gateway.EnableIPValidation {
			s.audit.Log(ctx, &models.SecurityEvent{
				EventType: models.EventIPRejected,
				Severity:  models.SeverityHigh,
				SourceIP:  req.SourceIP,
				Endpoint:  req.Endpoint,
				Details:   datatypes.JSONMap{"reason": "ip not in allow list"},
			})
			return rejected(OutcomeRejectedIP, "sender IP not allowed")
		}

		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventIPValidationWarning,
			Severity:  models.SeverityMedium,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   datatypes.JSONMap{"reason": "ip outside allow list, validation disabled"},
		})
	}

	// Signature over the exact raw bytes, strictly before any parsing.
	if req.Signature == "" {
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventSignatureInvalid,
			Severity:  models.SeverityCritical,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   datatypes.JSONMap{"reason": "missing signature header"},
		})
		return rejected(OutcomeRejectedSignature, "missing callback signature")
	}
	if !security.VerifyCallbackSignature(req.Body, req.Signature, s.privateKey) {
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventSignatureInvalid,
			Severity:  models.SeverityCritical,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   datatypes.JSONMap{"reason": "signature mismatch"},
		})
		return rejected(OutcomeRejectedSignature, "invalid callback signature")
	}

	// Only now is the body parsed into the typed DTO.
	var cb dto.TripayCallback
	if err := json.Unmarshal(req.Body, &cb); err != nil {
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventPayloadInvalid,
			Severity:  models.SeverityHigh,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   datatypes.JSONMap{"reason": "malformed json", "error": security.Sanitize(err.Error())},
		})
		return rejected(OutcomeRejectedPayload, "malformed callback body")
	}

	if err := s.validate.Validate(&cb); err != nil {
		outcome := rejected(OutcomeRejectedPayload, "invalid callback payload")
		details := datatypes.JSONMap{"reason": "validation failed"}
		if vErr, ok := err.(*validator.ValidationError); ok {
			outcome.Errors = vErr.Errors
			fields := make(map[string]interface{}, len(vErr.Errors))
			for k, v := range vErr.Errors {
				fields[k] = v
			}
			details["fields"] = fields
		}
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventPayloadInvalid,
			Severity:  models.SeverityHigh,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   details,
		})
		return outcome
	}

	// Free-text fields are cleansed before they reach storage or logs.
	cb.PaymentMethod = security.Sanitize(cb.PaymentMethod)
	cb.PaymentName = security.Sanitize(cb.PaymentName)
	cb.Reference = security.Sanitize(cb.Reference)
	cb.MerchantRef = security.Sanitize(cb.MerchantRef)

	// Idempotency guard: after signature (never trust an unauthenticated
	// dedup key), before any mutation.
	done, err := s.audit.AlreadyProcessed(ctx, cb.Reference)
	if err != nil {
		logger.CtxWithError(ctx, "idempotency lookup failed", err, "reference", cb.Reference)
		return failed("idempotency check unavailable")
	}
	if done {
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventCallbackDuplicate,
			Severity:  models.SeverityLow,
			SourceIP:  req.SourceIP,
			Endpoint:  req.Endpoint,
			Details:   datatypes.JSONMap{"reference": cb.Reference},
		})
		return duplicate()
	}

	if cb.IsClosed() {
		return s.reconcileClosed(ctx, req, &cb)
	}
	return s.reconcileOpen(ctx, req, &cb)
}

// reconcileClosed maps a verified callback onto a pre-existing
// transaction. The credited amount is ALWAYS the stored one; the callback
// only chooses whether to apply it.
func (s *CallbackService) reconcileClosed(ctx context.Context, req CallbackRequest, cb *dto.TripayCallback) Outcome {
	txn, err := s.transactions.FindByID(ctx, cb.MerchantRef)
	if err != nil {
		logger.CtxWithError(ctx, "transaction lookup failed", err, "merchant_ref", cb.MerchantRef)
		return failed("transaction lookup failed")
	}
	if txn == nil {
		s.audit.Log(ctx, s.mismatchEvent(req, cb, "no transaction for merchant_ref"))
		return rejected(OutcomeMismatchReference, "unknown merchant reference")
	}

	if txn.PaymentMethod != "" && txn.PaymentMethod != cb.PaymentMethod {
		s.audit.Log(ctx, s.mismatchEvent(req, cb, "payment method mismatch"))
		return rejected(OutcomeMismatchMethod, "payment method mismatch")
	}

	switch cb.TripayStatus() {
	case models.TripayStatusPaid:
		applied, err := s.transactions.Complete(ctx, txn.ID, paidAtOf(cb), s.successEvent(req, cb, true))
		if err != nil {
			logger.CtxWithError(ctx, "transaction completion failed", err, "transaction_id", txn.ID)
			s.audit.Log(ctx, s.failureEvent(req, cb, err))
			return failed("transaction update failed")
		}
		if !applied {
			return duplicate()
		}
		logger.CtxInfo(ctx, "closed payment completed",
			"transaction_id", txn.ID,
			"amount", txn.Amount,
			"reference", cb.Reference,
		)
		return processed()

	case models.TripayStatusExpired, models.TripayStatusFailed:
		applied, err := s.transactions.Fail(ctx, txn.ID, s.successEvent(req, cb, true))
		if err != nil {
			logger.CtxWithError(ctx, "transaction failure update failed", err, "transaction_id", txn.ID)
			s.audit.Log(ctx, s.failureEvent(req, cb, err))
			return failed("transaction update failed")
		}
		if !applied {
			return duplicate()
		}
		return processed()

	default: // UNPAID: no-op, and the reference stays available for the
		// eventual terminal callback.
		s.audit.Log(ctx, s.successEvent(req, cb, false))
		return processed()
	}
}

// reconcileOpen materializes a transaction for an open payment intent. The
// callback's total_amount is authoritative here; there is no prior
// internal record to prefer, and the amount is gated behind the signature,
// IP and payload checks that already passed.
func (s *CallbackService) reconcileOpen(ctx context.Context, req CallbackRequest, cb *dto.TripayCallback) Outcome {
	op, err := s.openPayments.FindByMerchantRef(ctx, cb.MerchantRef)
	if err != nil {
		logger.CtxWithError(ctx, "open payment lookup failed", err, "merchant_ref", cb.MerchantRef)
		return failed("open payment lookup failed")
	}
	if op == nil {
		s.audit.Log(ctx, s.mismatchEvent(req, cb, "no open payment for merchant_ref"))
		return rejected(OutcomeMismatchReference, "unknown merchant reference")
	}

	if cb.TripayStatus() != models.TripayStatusPaid {
		// Open payments only materialize on success.
		s.audit.Log(ctx, s.successEvent(req, cb, false))
		return processed()
	}

	now := time.Now()
	paid := paidAtOf(cb)
	txn := &models.Transaction{
		UserID:          op.UserID,
		Amount:          cb.TotalAmount,
		Status:          models.TransactionStatusCompleted,
		PaymentMethod:   cb.PaymentMethod,
		TripayReference: cb.Reference,
		PaidAt:          &paid,
		CompletedAt:     &now,
	}

	applied, err := s.openPayments.Materialize(ctx, op, txn, s.successEvent(req, cb, true))
	if err != nil {
		logger.CtxWithError(ctx, "open payment materialization failed", err, "open_payment_id", op.ID)
		s.audit.Log(ctx, s.failureEvent(req, cb, err))
		return failed("open payment materialization failed")
	}
	if !applied {
		return duplicate()
	}

	logger.CtxInfo(ctx, "open payment materialized",
		"open_payment_id", op.ID,
		"amount", cb.TotalAmount,
		"reference", cb.Reference,
	)
	return processed()
}

// successEvent builds the CALLBACK_RECEIVED record. When mutating is true
// the aggregator reference is placed in the dedup column, and the event is
// committed inside the reconciliation transaction, making it the
// idempotency ledger entry for this reference.
func (s *CallbackService) successEvent(req CallbackRequest, cb *dto.TripayCallback, mutating bool) *models.SecurityEvent {
	event := &models.SecurityEvent{
		EventType: models.EventCallbackReceived,
		Severity:  models.SeverityLow,
		SourceIP:  req.SourceIP,
		Endpoint:  req.Endpoint,
		CreatedAt: time.Now(),
		Details: datatypes.JSONMap{
			"success":      true,
			"reference":    cb.Reference,
			"merchant_ref": cb.MerchantRef,
			"status":       cb.Status,
			"method":       cb.PaymentMethod,
		},
	}
	if mutating {
		ref := cb.Reference
		event.DedupRef = &ref
	}
	return event
}

func (s *CallbackService) mismatchEvent(req CallbackRequest, cb *dto.TripayCallback, reason string) *models.SecurityEvent {
	return &models.SecurityEvent{
		EventType: models.EventCallbackMismatch,
		Severity:  models.SeverityCritical,
		SourceIP:  req.SourceIP,
		Endpoint:  req.Endpoint,
		Details: datatypes.JSONMap{
			"reason":       reason,
			"reference":    cb.Reference,
			"merchant_ref": cb.MerchantRef,
		},
	}
}

func (s *CallbackService) failureEvent(req CallbackRequest, cb *dto.TripayCallback, err error) *models.SecurityEvent {
	return &models.SecurityEvent{
		EventType: models.EventCallbackFailed,
		Severity:  models.SeverityHigh,
		SourceIP:  req.SourceIP,
		Endpoint:  req.Endpoint,
		Details: datatypes.JSONMap{
			"reference": cb.Reference,
			"error":     security.Sanitize(err.Error()),
		},
	}
}

func paidAtOf(cb *dto.TripayCallback) time.Time {
	if cb.PaidAt > 0 {
		return time.Unix(cb.PaidAt, 0)
	}
	return time.Now()
}

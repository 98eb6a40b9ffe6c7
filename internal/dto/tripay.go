package dto

import (
	"canvango_backend/internal/models"
)

// TripayCallback is the typed form of an aggregator callback. It is built
// from the raw body only after the signature over the exact wire bytes has
// verified, and trusted only after Validate passes.
type TripayCallback struct {
	Reference         string  `json:"reference" validate:"required,max=100"`
	MerchantRef       string  `json:"merchant_ref" validate:"required,max=100"`
	PaymentMethod     string  `json:"payment_method" validate:"required,max=40"`
	PaymentMethodCode string  `json:"payment_method_code" validate:"max=40"`
	PaymentName       string  `json:"payment_name" validate:"max=100"`
	Status            string  `json:"status" validate:"required,tripay_status"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	AmountReceived    float64 `json:"amount_received"`
	FeeMerchant       float64 `json:"fee_merchant"`
	FeeCustomer       float64 `json:"fee_customer"`
	TotalFee          float64 `json:"total_fee"`
	TotalAmount       float64 `json:"total_amount"`
	PaidAt            int64   `json:"paid_at"`
	// Tripay sends 1 for closed payments, 0 for open payments.
	IsClosedPayment int `json:"is_closed_payment"`
}

// IsClosed reports whether the callback targets a pre-existing transaction.
func (c *TripayCallback) IsClosed() bool {
	return c.IsClosedPayment == 1
}

// TripayStatus returns the status as the domain enum.
func (c *TripayCallback) TripayStatus() models.TripayStatus {
	return models.TripayStatus(c.Status)
}

// CreateClosedPaymentRequest creates a Tripay transaction against a
// pre-existing internal transaction.
type CreateClosedPaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,max=40"`
	CustomerName  string  `json:"customer_name" validate:"required,max=100"`
	CustomerEmail string  `json:"customer_email" validate:"required,email"`
}

// CreateOpenPaymentRequest registers a reusable open payment intent.
type CreateOpenPaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,max=40"`
}

// LoginRequest authenticates an operator.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SecurityEventQuery filters the audit listing.
type SecurityEventQuery struct {
	Severity  string `form:"severity" validate:"omitempty,oneof=low medium high critical"`
	EventType string `form:"event_type" validate:"omitempty,max=40"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" validate:"omitempty,min=0"`
}

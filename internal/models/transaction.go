package models

import (
	"time"
)

// Transaction is a closed-payment record. It exists before the aggregator
// interaction begins and its Amount is the source of truth for crediting;
// callback-reported amounts never overwrite it.
type Transaction struct {
	BaseModel
	UserID        string            `gorm:"type:uuid;index;not null"`
	Amount        float64           `gorm:"not null"`
	Status        TransactionStatus `gorm:"type:varchar(20);default:'pending';index"`
	PaymentMethod string            `gorm:"type:varchar(40)"`

	// Aggregator-side references. TripayReference is set when the payment
	// is created; the callback echoes our ID back as merchant_ref.
	TripayReference string `gorm:"type:varchar(64);index"`
	CheckoutURL     string

	PaidAt      *time.Time
	CompletedAt *time.Time
}

// OpenPayment is a pre-registered payment intent without a transaction.
// A transaction is materialized only once the aggregator confirms success.
type OpenPayment struct {
	BaseModel
	UserID        string            `gorm:"type:uuid;index;not null"`
	MerchantRef   string            `gorm:"type:varchar(64);uniqueIndex;not null"`
	PaymentMethod string            `gorm:"type:varchar(40)"`
	Status        OpenPaymentStatus `gorm:"type:varchar(20);default:'active'"`
	TripayURL     string
}

// OpenPaymentTransaction links an open payment to the transaction it
// materialized.
type OpenPaymentTransaction struct {
	BaseModel
	OpenPaymentID string `gorm:"type:uuid;index;not null"`
	TransactionID string `gorm:"type:uuid;uniqueIndex;not null"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Security event types recorded by the gateway.
const (
	EventCallbackReceived    = "CALLBACK_RECEIVED"
	EventSignatureInvalid    = "INVALID_SIGNATURE"
	EventIPRejected          = "IP_REJECTED"
	EventIPValidationWarning = "IP_VALIDATION_WARNING"
	EventPayloadInvalid      = "INVALID_PAYLOAD"
	EventRateLimited         = "RATE_LIMIT_EXCEEDED"
	EventRateLimitDegraded   = "RATE_LIMIT_STORE_DEGRADED"
	EventCallbackMismatch    = "CALLBACK_MISMATCH"
	EventCallbackDuplicate   = "CALLBACK_DUPLICATE"
	EventCallbackFailed      = "CALLBACK_PROCESSING_FAILED"
	EventAdminLogin          = "ADMIN_LOGIN"
)

// SecurityEvent is the append-only audit record of every gateway decision.
// It doubles as the idempotency ledger: DedupRef is set exactly once per
// aggregator reference, by the database transaction that mutated state.
type SecurityEvent struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	EventType string            `gorm:"type:varchar(40);index;not null" json:"event_type"`
	Severity  Severity          `gorm:"type:varchar(10);index;not null" json:"severity"`
	SourceIP  string            `gorm:"type:varchar(45)" json:"source_ip"`
	UserID    *string           `gorm:"type:uuid" json:"user_id,omitempty"`
	Endpoint  string            `gorm:"type:varchar(120)" json:"endpoint"`
	Details   datatypes.JSONMap `json:"details"`

	// DedupRef is NULL for advisory events. State-mutating callback
	// processing writes the aggregator reference here; the unique index
	// is what closes the concurrent-duplicate race.
	DedupRef *string `gorm:"type:varchar(100);uniqueIndex" json:"dedup_ref,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// RateLimitCounter is an ephemeral fixed-window counter. Rows are upserted
// atomically and purged after the window expires.
type RateLimitCounter struct {
	// Stored as counter_key: "key" is reserved in mysql.
	Key             string    `gorm:"column:counter_key;type:varchar(160);primaryKey"`
	Count           int       `gorm:"not null;default:0"`
	WindowExpiresAt time.Time `gorm:"index;not null"`
}

package models

type UserRole string
type TransactionStatus string
type OpenPaymentStatus string
type Severity string

// TripayStatus is the aggregator-side status vocabulary. Anything outside
// this closed set is rejected by payload validation.
type TripayStatus string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"

	OpenPaymentStatusActive OpenPaymentStatus = "active"
	OpenPaymentStatusClosed OpenPaymentStatus = "closed"

	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"

	TripayStatusPaid    TripayStatus = "PAID"
	TripayStatusUnpaid  TripayStatus = "UNPAID"
	TripayStatusExpired TripayStatus = "EXPIRED"
	TripayStatusFailed  TripayStatus = "FAILED"
)

// Valid reports whether s belongs to the closed aggregator status set.
func (s TripayStatus) Valid() bool {
	switch s {
	case TripayStatusPaid, TripayStatusUnpaid, TripayStatusExpired, TripayStatusFailed:
		return true
	}
	return false
}

package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"canvango_backend/internal/dto"
	"canvango_backend/internal/models"
)

type SecurityEventRepository struct {
	db *gorm.DB
}

func NewSecurityEventRepository(db *gorm.DB) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

// Create appends one event. Events are immutable; there is no update path.
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// AlreadyProcessed reports whether a state-mutating callback has been
// recorded for the aggregator reference.
func (r *SecurityEventRepository) AlreadyProcessed(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SecurityEvent{}).
		Where("dedup_ref = ?", reference).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns events matching the query, newest first, with the total
// count for pagination.
func (r *SecurityEventRepository) List(ctx context.Context, q dto.SecurityEventQuery) ([]models.SecurityEvent, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.SecurityEvent{})
	if q.Severity != "" {
		base = base.Where("severity = ?", q.Severity)
	}
	if q.EventType != "" {
		base = base.Where("event_type = ?", q.EventType)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = 50
	}

	var events []models.SecurityEvent
	err := base.Order("created_at DESC").Limit(limit).Offset(q.Offset).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// PurgeOldLowSeverity deletes low-severity events older than the cutoff.
// High/critical events and anything carrying a dedup reference are kept:
// the dedup ledger must outlive the aggregator's retry horizon.
func (r *SecurityEventRepository) PurgeOldLowSeverity(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).
		Where("severity = ? AND dedup_ref IS NULL AND created_at < ?", models.SeverityLow, cutoff).
		Delete(&models.SecurityEvent{})
	return res.RowsAffected, res.Error
}

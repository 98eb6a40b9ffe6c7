package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"canvango_backend/internal/models"
)

// RateLimitRepository implements ratelimit.Store on the relational store.
type RateLimitRepository struct {
	db *gorm.DB
}

func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Increment performs the atomic fixed-window read-modify-write under a row
// lock. A fresh window is opened on first use or after expiry; within a
// window the counter saturates at limit+1 so blocked traffic neither
// overflows the counter nor moves the reset time.
func (r *RateLimitRepository) Increment(ctx context.Context, key string, limit int, window time.Duration) (int, time.Time, error) {
	var count int
	var resetAt time.Time

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var counter models.RateLimitCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("counter_key = ?", key).
			First(&counter).Error

		if gormIsNotFound(err) {
			counter = models.RateLimitCounter{
				Key:             key,
				Count:           1,
				WindowExpiresAt: now.Add(window),
			}
			if createErr := tx.Create(&counter).Error; createErr != nil {
				// Lost the creation race to a concurrent request;
				// re-read under lock and fall through to increment.
				if !gormIsDuplicate(createErr) {
					return createErr
				}
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("counter_key = ?", key).
					First(&counter).Error; err != nil {
					return err
				}
			} else {
				count, resetAt = counter.Count, counter.WindowExpiresAt
				return nil
			}
		} else if err != nil {
			return err
		}

		switch {
		case now.After(counter.WindowExpiresAt):
			counter.Count = 1
			counter.WindowExpiresAt = now.Add(window)
		case counter.Count <= limit:
			counter.Count++
		}

		count, resetAt = counter.Count, counter.WindowExpiresAt
		return tx.Model(&models.RateLimitCounter{}).
			Where("counter_key = ?", key).
			Updates(map[string]interface{}{
				"count":             counter.Count,
				"window_expires_at": counter.WindowExpiresAt,
			}).Error
	})

	return count, resetAt, err
}

// PurgeExpired deletes counters whose window has ended.
func (r *RateLimitRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("window_expires_at < ?", time.Now()).
		Delete(&models.RateLimitCounter{})
	return res.RowsAffected, res.Error
}

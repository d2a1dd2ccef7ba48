package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-cms/models"
)

// RateLimitRepo keeps fixed-window counters in the database so every server
// instance shares them.
type RateLimitRepo struct {
	db *gorm.DB
}

func NewRateLimitRepo(db *gorm.DB) *RateLimitRepo {
	return &RateLimitRepo{db}
}

// Increment counts one hit against key in the window containing now and
// returns the count and start of that window. A counter whose window has
// passed restarts at one.
func (r *RateLimitRepo) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	windowStart := now.UTC().Truncate(window)

	var counter models.RateLimitCounter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":        gorm.Expr("CASE WHEN rate_limit_counters.window_start = ? THEN rate_limit_counters.count + 1 ELSE 1 END", windowStart),
				"window_start": windowStart,
			}),
		}).Create(&models.RateLimitCounter{Key: key, WindowStart: windowStart, Count: 1}).Error
		if err != nil {
			return err
		}
		return tx.First(&counter, "key = ?", key).Error
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return counter.Count, counter.WindowStart, nil
}

// PurgeBefore drops counters whose window started before cutoff.
func (r *RateLimitRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("window_start < ?", cutoff.UTC()).Delete(&models.RateLimitCounter{})
	return res.RowsAffected, res.Error
}

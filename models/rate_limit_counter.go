package models

import "time"

// RateLimitCounter is the shared state of one fixed rate limit window.
type RateLimitCounter struct {
	Key         string    `json:"key" db:"key" gorm:"type:text;primaryKey;not null"`
	WindowStart time.Time `json:"windowStart" db:"window_start" gorm:"not null"`
	Count       int       `json:"count" db:"count" gorm:"not null;default:0"`
}

func (RateLimitCounter) TableName() string {
	return "rate_limit_counters"
}

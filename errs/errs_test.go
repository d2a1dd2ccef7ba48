package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorListsEveryViolation(t *testing.T) {
	err := NewValidationError([]Violation{
		{Field: "title", Message: "Title is required"},
		{Field: "heroImageUrl", Message: "Hero image is required to publish"},
	})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, IsValidationError(err))
	assert.True(t, HasViolation(err, "title"))
	assert.True(t, HasViolation(err, "heroImageUrl"))
	assert.False(t, HasViolation(err, "slug"))
	assert.Contains(t, err.Error(), "title: Title is required")
	assert.Contains(t, err.Error(), "heroImageUrl: Hero image is required to publish")
}

func TestHasViolationThroughWrapping(t *testing.T) {
	err := fmt.Errorf("upsert: %w", NewValidationError([]Violation{{Field: "slug", Message: "Slug is required"}}))
	assert.True(t, HasViolation(err, "slug"))
	assert.False(t, HasViolation(errors.New("plain"), "slug"))
}

func TestNewDatabaseErrorClassifies(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
		target error
	}{
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "blog_posts_slug_unique"`), http.StatusConflict, ErrUniqueConstraintViolation},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: blog_posts.slug"), http.StatusConflict, ErrUniqueConstraintViolation},
		{"foreign key", errors.New("FOREIGN KEY constraint failed"), http.StatusBadRequest, ErrForeignKeyConstraint},
		{"check", errors.New("CHECK constraint failed: chk_blog_posts_published_at"), http.StatusBadRequest, ErrCheckConstraintViolation},
		{"not found", errors.New("record not found"), http.StatusNotFound, ErrNotFound},
		{"generic", errors.New("boom"), http.StatusInternalServerError, ErrDatabaseQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("save", "blog_post", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestConstraintCheckers(t *testing.T) {
	assert.True(t, IsForeignKeyConstraintError(NewDatabaseError("save", "blog_post", errors.New("FOREIGN KEY constraint failed"))))
	assert.False(t, IsCheckConstraintViolationError(NewDatabaseError("save", "blog_post", errors.New("boom"))))
}

func TestNewDatabaseErrorKeepsClassifiedErrors(t *testing.T) {
	original := NewNotFoundError("blog post not found")
	assert.Same(t, original, NewDatabaseError("update", "blog_post", original))
}

func TestRateLimitRetryAfterSeconds(t *testing.T) {
	err := NewRateLimitError("admin:127.0.0.1", 1500*time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, err.StatusCode)
	assert.Equal(t, 2, err.RetryAfterSeconds())
	assert.True(t, IsRateLimitError(err))

	assert.Equal(t, 1, NewRateLimitError("k", 0).RetryAfterSeconds())
}

func TestMalformedPayload(t *testing.T) {
	err := NewMalformedPayloadError("post", errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, IsMalformedPayloadError(err))
}

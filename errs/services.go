package errs

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Third-Party & Infrastructure Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrStorageUpload      = errors.New("storage upload failed")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
)

// NewRateLimitError reports that key used up its quota. RetryAfter is the time
// left until the current window closes.
func NewRateLimitError(key string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many requests for %s", key),
		Field:      "rate_limit",
		RetryAfter: retryAfter,
	}
}

// RetryAfterSeconds rounds the retry delay up to whole seconds, never below one.
func (e *ApiErr) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func NewServiceUnavailableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s service is unavailable", service),
		Cause:      cause,
		Field:      "service",
	}
}

func NewStorageUploadError(path string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrStorageUpload,
		Details:    fmt.Sprintf("Failed to store object %s", path),
		Cause:      cause,
		Field:      "file",
	}
}

// Configuration Error Constructors
func NewConfigMissingError(key string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration key %s is missing", key),
		Field:      key,
	}
}

func NewConfigInvalidError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Configuration key %s is invalid", key),
		Cause:      cause,
		Field:      key,
	}
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsStorageUploadError(err error) bool {
	return errors.Is(err, ErrStorageUpload)
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidCredentials is returned when a login attempt fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrQuotaExhausted tags quota rejections for errors.Is matching.
	ErrQuotaExhausted = errors.New("application: quota exhausted")
	// ErrBatchExceedsRemaining tags oversized batch rejections.
	ErrBatchExceedsRemaining = errors.New("application: batch exceeds remaining quota")
	// ErrInvalidCategoryPairing tags same-category vote rejections.
	ErrInvalidCategoryPairing = errors.New("application: invalid category pairing")
	// ErrConfigOutOfRange tags quota configuration values outside policy bounds.
	ErrConfigOutOfRange = errors.New("application: quota config out of range")
)

// QuotaExhaustedError rejects a vote because the voter already used the full
// period allowance. Used and Max are surfaced verbatim to the caller.
type QuotaExhaustedError struct {
	Used int
	Max  int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted (%d/%d)", e.Used, e.Max)
}

// Is marks the error as ErrQuotaExhausted for sentinel matching.
func (e *QuotaExhaustedError) Is(target error) bool {
	return target == ErrQuotaExhausted
}

// BatchExceedsRemainingError rejects a batch larger than the remaining
// allowance. The whole batch is rejected; partial application never happens.
type BatchExceedsRemainingError struct {
	Requested int
	Remaining int
}

func (e *BatchExceedsRemainingError) Error() string {
	return fmt.Sprintf("batch of %d exceeds remaining quota %d", e.Requested, e.Remaining)
}

// Is marks the error as ErrBatchExceedsRemaining for sentinel matching.
func (e *BatchExceedsRemainingError) Is(target error) bool {
	return target == ErrBatchExceedsRemaining
}

// CategoryPairingError rejects a target in the voter's own category.
type CategoryPairingError struct {
	TargetID string
}

func (e *CategoryPairingError) Error() string {
	return fmt.Sprintf("target %s is not in the complementary category", e.TargetID)
}

// Is marks the error as ErrInvalidCategoryPairing for sentinel matching.
func (e *CategoryPairingError) Is(target error) bool {
	return target == ErrInvalidCategoryPairing
}

// TargetNotFoundError rejects a vote naming an unknown target.
type TargetNotFoundError struct {
	TargetID string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("target %s not found", e.TargetID)
}

// Is marks the error as ErrNotFound for sentinel matching.
func (e *TargetNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigOutOfRangeError rejects a quota value outside the policy bounds.
type ConfigOutOfRangeError struct {
	Category   Category
	Max        int
	UpperBound int
}

func (e *ConfigOutOfRangeError) Error() string {
	return fmt.Sprintf("quota %d for category %s outside bounds [1, %d]", e.Max, e.Category, e.UpperBound)
}

// Is marks the error as ErrConfigOutOfRange for sentinel matching.
func (e *ConfigOutOfRangeError) Is(target error) bool {
	return target == ErrConfigOutOfRange
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

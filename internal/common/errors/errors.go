// Package errors provides the standardized error taxonomy shared by the
// domain services and the BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Lookup failures. Never retried.
	ErrCodeBookingNotFound ErrorCode = "BOOKING_NOT_FOUND"
	ErrCodeArtistNotFound  ErrorCode = "ARTIST_NOT_FOUND"

	// Lifecycle violations. Never retried.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Races the caller may retry after re-reading current state. The core
	// itself never retries them so real business conflicts stay visible.
	ErrCodeResponseConflict ErrorCode = "RESPONSE_CONFLICT"
	ErrCodeSlotConflict     ErrorCode = "SLOT_CONFLICT"
	ErrCodeDuplicateRequest ErrorCode = "DUPLICATE_REQUEST"

	// Input problems. Never retried.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Upstream failures. Store failures abort the operation; notification
	// failures are logged and swallowed by the coordinator.
	ErrCodeStoreUnavailable       ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeSearchUnavailable      ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAnalysisFailed         ErrorCode = "ANALYSIS_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// BPMNError represents an error thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// NewBookingNotFoundError creates a non-retryable lookup error.
func NewBookingNotFoundError(bookingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBookingNotFound,
		Message:   "Booking request not found",
		Details:   fmt.Sprintf("bookingId: %s", bookingID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtistNotFoundError creates a non-retryable lookup error.
func NewArtistNotFoundError(artistID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtistNotFound,
		Message:   "Artist profile not found",
		Details:   fmt.Sprintf("artistId: %s", artistID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable lifecycle error.
func NewInvalidTransitionError(from, attempted string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Booking transition not permitted from current status",
		Details:   fmt.Sprintf("status: %s, attempted: %s", from, attempted),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseConflictError creates a caller-retryable optimistic-concurrency error.
func NewResponseConflictError(bookingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseConflict,
		Message:   "Concurrent update lost the race; re-read and retry",
		Details:   fmt.Sprintf("bookingId: %s", bookingID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSlotConflictError creates a caller-retryable scheduling conflict error.
func NewSlotConflictError(artistID, date string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotConflict,
		Message:   "Requested window overlaps a slot booked by another request",
		Details:   fmt.Sprintf("artistId: %s, date: %s", artistID, date),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateRequestError creates a non-retryable duplicate booking error.
func NewDuplicateRequestError(customerID, artistID, date string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateRequest,
		Message:   "An active booking request already exists for this pair and window",
		Details:   fmt.Sprintf("customerId: %s, artistId: %s, date: %s", customerID, artistID, date),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable input error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable backing-store error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Backing store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError creates a retryable search-backend error.
func NewSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Search backend operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFailedError creates a retryable visual-analysis error.
func NewAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Visual analysis collaborator error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard extracts a *StandardError from an error chain, or wraps an
// unknown error as a store failure.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewStoreUnavailableError(err)
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsConflict reports whether err is one of the conflict codes.
func IsConflict(err error) bool {
	return IsCode(err, ErrCodeResponseConflict) || IsCode(err, ErrCodeSlotConflict)
}

// IsNotFound reports whether err is one of the lookup-failure codes.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeBookingNotFound) || IsCode(err, ErrCodeArtistNotFound)
}

// GetRetryCount returns the engine retry count for a code. Conflicts stay at
// zero: they must be resolved by the caller against re-read state, not by
// blind replay.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeSearchUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeAnalysisFailed:
		return 3

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

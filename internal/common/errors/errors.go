// Package errors provides standardized error handling for the notification
// delivery pipeline. Every delivery failure is classified as retryable or
// permanent; the dispatcher bases its retry decision on that flag alone.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodePayloadInvalid        ErrorCode = "PAYLOAD_INVALID"
	ErrCodeWebhookNetworkFailed  ErrorCode = "WEBHOOK_NETWORK_FAILED"
	ErrCodeWebhookRejected       ErrorCode = "WEBHOOK_REJECTED"
	ErrCodeWebhookServerError    ErrorCode = "WEBHOOK_SERVER_ERROR"
	ErrCodeChannelNotRegistered  ErrorCode = "CHANNEL_NOT_REGISTERED"
	ErrCodeChannelNotImplemented ErrorCode = "CHANNEL_NOT_IMPLEMENTED"
	ErrCodeInvalidPreference     ErrorCode = "INVALID_PREFERENCE"
	ErrCodeDeliverySendFailed    ErrorCode = "DELIVERY_SEND_FAILED"
)

// ErrNotFound marks a row that vanished between scheduling and execution.
// Callers log and abort instead of retrying.
var ErrNotFound = errors.New("not found")

// DeliveryError represents a structured, classified delivery failure.
type DeliveryError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *DeliveryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("DeliveryError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("DeliveryError[%s]: %s", e.Code, e.Message)
}

// NewPayloadInvalidError creates a non-retryable schema validation error.
// A payload that fails schema validation will never become valid by retrying.
func NewPayloadInvalidError(details string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodePayloadInvalid,
		Message:   "Outgoing payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable transport-level error (connection
// refused, DNS failure, timeout).
func NewNetworkError(err error) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeWebhookNetworkFailed,
		Message:   "Webhook endpoint unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPStatusError classifies a non-2xx webhook response: 5xx is a server
// transient and retryable, everything else is a client error and permanent.
func NewHTTPStatusError(status int, body string) *DeliveryError {
	retryable := status >= 500 && status < 600
	code := ErrCodeWebhookRejected
	msg := "Webhook endpoint rejected the payload"
	if retryable {
		code = ErrCodeWebhookServerError
		msg = "Webhook endpoint returned a server error"
	}
	return &DeliveryError{
		Code:      code,
		Message:   msg,
		Details:   fmt.Sprintf("%d: %s", status, body),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelNotRegisteredError creates a non-retryable configuration error.
func NewChannelNotRegisteredError(channel string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeChannelNotRegistered,
		Message:   "No strategy registered for channel",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPreferenceError creates a non-retryable invalid-state error for
// an unrecognized notification preference. This is a programming or config
// error and must surface loudly rather than silently misroute.
func NewInvalidPreferenceError(preference string) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeInvalidPreference,
		Message:   "Unrecognized notification preference",
		Details:   fmt.Sprintf("preference: %s", preference),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSendFailedError creates a retryable generic send error for transports
// that cannot classify their own failures more precisely.
func NewSendFailedError(channel string, err error) *DeliveryError {
	return &DeliveryError{
		Code:      ErrCodeDeliverySendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err is a DeliveryError classified as
// retryable. Unclassified errors are treated as permanent.
func IsRetryable(err error) bool {
	var dErr *DeliveryError
	if errors.As(err, &dErr) {
		return dErr.Retryable
	}
	return false
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

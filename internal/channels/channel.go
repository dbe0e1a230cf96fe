// internal/channels/channel.go

// Package channels implements the delivery transports behind a single
// strategy contract. A strategy owns the terminal state of the rows it
// touches: on success it persists SENT with the response evidence, on a
// permanent failure it persists FAILED with the reason, so evidence and
// status always update together from the strategy's point of view.
// Classification (retryable vs permanent) travels on the returned error.
package channels

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"alert-notifier/internal/models"
)

// ErrNotEnabled reports that a strategy's transport is not rolled out.
// The attempt resolved nothing: the notification stays pending, and the
// caller must record neither a delivery nor a failure.
var ErrNotEnabled = errors.New("channel transport not enabled")

// IsNotEnabled reports whether err is the not-rolled-out sentinel.
func IsNotEnabled(err error) bool {
	return errors.Is(err, ErrNotEnabled)
}

// StateStore is the slice of the notification repository a strategy needs
// to record terminal states.
type StateStore interface {
	MarkSent(ctx context.Context, notificationUUID uuid.UUID, responseData string) error
	MarkFailed(ctx context.Context, notificationUUID uuid.UUID, responseData string) error
}

// Strategy attempts to deliver one notification payload through one
// transport. A nil return means delivered and persisted as sent; a
// *errors.DeliveryError return carries the retryable/permanent
// classification; ErrNotEnabled means the transport resolved nothing and
// the row stays pending; any other error is treated as permanent by the
// caller.
type Strategy interface {
	Deliver(ctx context.Context, notification *models.Notification, payload map[string]interface{}) error
}

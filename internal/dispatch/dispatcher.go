// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alert-notifier/internal/channels"
	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/common/metrics"
	"alert-notifier/internal/models"
)

// NotificationStore is the slice of the notification repository the
// dispatcher drives the state machine through.
type NotificationStore interface {
	GetDetail(ctx context.Context, notificationUUID uuid.UUID) (*models.NotificationDetail, error)
	MarkAttempt(ctx context.Context, notificationUUID uuid.UUID) (int, error)
	MarkFailed(ctx context.Context, notificationUUID uuid.UUID, responseData string) error
}

// Dispatcher executes one delivery attempt for one notification and
// interprets the result into a terminal state or a scheduled retry.
type Dispatcher struct {
	notifications NotificationStore
	registry      *channels.Registry
	enqueuer      Enqueuer
	policy        RetryPolicy
	logger        logger.Logger
}

func NewDispatcher(notifications NotificationStore, registry *channels.Registry, enqueuer Enqueuer, policy RetryPolicy, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		registry:      registry,
		enqueuer:      enqueuer,
		policy:        policy,
		logger:        log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch runs a single attempt: resolve, short-circuit if already sent,
// mark the attempt, select the strategy, deliver, classify the outcome.
// Only one delivery attempt is expected in flight per notification; a
// re-driven fan-out racing an in-flight retry resolves last-writer-wins.
func (d *Dispatcher) Dispatch(ctx context.Context, notificationUUID uuid.UUID) error {
	detail, err := d.notifications.GetDetail(ctx, notificationUUID)
	if errors.IsNotFound(err) {
		// Deleted or never created; nothing worth surfacing.
		d.logger.Debug("notification not found, skipping", map[string]interface{}{
			"notificationUuid": notificationUUID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	if detail.Notification.IsSent() {
		// Duplicate or late re-trigger of an already delivered notification.
		return nil
	}

	channel := string(detail.Notification.Channel)

	// Attempt accounting happens before the channel is invoked so a crash
	// between attempt-start and attempt-result still counts the attempt.
	attempts, err := d.notifications.MarkAttempt(ctx, notificationUUID)
	if errors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	metrics.DeliveryAttempts.WithLabelValues(channel).Inc()

	payload := detail.BuildPayload()

	strategy := d.registry.Get(detail.Notification.Channel)
	if strategy == nil {
		dErr := errors.NewChannelNotRegisteredError(channel)
		d.logger.Error("no channel strategy", map[string]interface{}{
			"notificationUuid": notificationUUID,
			"channel":          channel,
		})
		if mErr := d.notifications.MarkFailed(ctx, notificationUUID, dErr.Error()); mErr != nil {
			return mErr
		}
		metrics.DeliveryOutcomes.WithLabelValues(channel, "failed").Inc()
		return nil
	}

	start := time.Now()
	deliverErr := strategy.Deliver(ctx, &detail.Notification, payload)
	metrics.DeliveryDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())

	switch {
	case deliverErr == nil:
		// The strategy already persisted the sent state and evidence.
		metrics.DeliveryOutcomes.WithLabelValues(channel, "delivered").Inc()
		return nil

	case channels.IsNotEnabled(deliverErr):
		// The transport is not rolled out. Nothing was sent and nothing
		// failed: the row stays pending until the channel is enabled.
		d.logger.Info("channel not enabled, delivery skipped", map[string]interface{}{
			"notificationUuid": notificationUUID,
			"channel":          channel,
		})
		metrics.DeliveryOutcomes.WithLabelValues(channel, "skipped").Inc()
		return nil

	case errors.IsRetryable(deliverErr):
		if d.policy.Exhausted(attempts) {
			evidence := fmt.Sprintf("retry budget exhausted after %d attempts: %v", attempts, deliverErr)
			d.logger.Warn("retry budget exhausted", map[string]interface{}{
				"notificationUuid": notificationUUID,
				"attempts":         attempts,
			})
			if mErr := d.notifications.MarkFailed(ctx, notificationUUID, evidence); mErr != nil {
				return mErr
			}
			metrics.DeliveryOutcomes.WithLabelValues(channel, "exhausted").Inc()
			return nil
		}

		delay := d.policy.Backoff(attempts)
		d.logger.Warn("transient delivery failure, scheduling retry", map[string]interface{}{
			"notificationUuid": notificationUUID,
			"attempts":         attempts,
			"retryIn":          delay.String(),
			"reason":           deliverErr.Error(),
		})
		if err := d.enqueuer.EnqueueDelivery(ctx, notificationUUID, delay); err != nil {
			return err
		}
		metrics.DeliveryOutcomes.WithLabelValues(channel, "retried").Inc()
		return nil

	default:
		// Permanent failures and anything unclassified terminate here. A
		// strategy may already have persisted the failed state; writing the
		// same terminal state again is harmless.
		d.logger.Error("permanent delivery failure", map[string]interface{}{
			"notificationUuid": notificationUUID,
			"reason":           deliverErr.Error(),
		})
		if mErr := d.notifications.MarkFailed(ctx, notificationUUID, deliverErr.Error()); mErr != nil {
			return mErr
		}
		metrics.DeliveryOutcomes.WithLabelValues(channel, "failed").Inc()
		return nil
	}
}

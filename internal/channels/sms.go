// internal/channels/sms.go
package channels

import (
	"context"
	"fmt"

	"alert-notifier/internal/common/aws"
	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

// SMS delivers notifications over SNS. Like Email, the transport is not
// rolled out yet: while disabled the strategy logs and leaves the
// notification pending.
type SMS struct {
	sns     *aws.SNSClient
	store   StateStore
	enabled bool
	logger  logger.Logger
}

func NewSMS(sns *aws.SNSClient, store StateStore, enabled bool, log logger.Logger) *SMS {
	return &SMS{
		sns:     sns,
		store:   store,
		enabled: enabled,
		logger:  log.WithFields(map[string]interface{}{"channel": "sms"}),
	}
}

func (s *SMS) Deliver(ctx context.Context, notification *models.Notification, payload map[string]interface{}) error {
	if !s.enabled || s.sns == nil {
		s.logger.Info("sms delivery not enabled, leaving notification pending", map[string]interface{}{
			"notificationUuid": notification.NotificationUUID,
		})
		return ErrNotEnabled
	}

	// Phone resolution for external users is part of the transport rollout;
	// the payload only carries the opaque user id for now.
	message := fmt.Sprintf("%v alert at %v: %v",
		payload["label"], payload["location"], payload["url"])
	phone, _ := payload["target_user_id"].(string)

	messageID, err := s.sns.PublishSMS(ctx, phone, message)
	if err != nil {
		return errors.NewSendFailedError(string(models.ChannelSMS), err)
	}

	if err := s.store.MarkSent(ctx, notification.NotificationUUID, messageID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

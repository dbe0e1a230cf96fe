// internal/channels/email.go
package channels

import (
	"context"
	"fmt"

	"alert-notifier/internal/common/aws"
	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

// Email delivers notifications over SES. The transport is not rolled out
// yet: unless explicitly enabled the strategy logs and leaves the
// notification pending. That "pending, unresolved" outcome is a deliberate
// placeholder, not a delivery guarantee.
type Email struct {
	ses     *aws.SESClient
	store   StateStore
	enabled bool
	logger  logger.Logger
}

func NewEmail(ses *aws.SESClient, store StateStore, enabled bool, log logger.Logger) *Email {
	return &Email{
		ses:     ses,
		store:   store,
		enabled: enabled,
		logger:  log.WithFields(map[string]interface{}{"channel": "email"}),
	}
}

func (e *Email) Deliver(ctx context.Context, notification *models.Notification, payload map[string]interface{}) error {
	if !e.enabled || e.ses == nil {
		e.logger.Info("email delivery not enabled, leaving notification pending", map[string]interface{}{
			"notificationUuid": notification.NotificationUUID,
		})
		return ErrNotEnabled
	}

	to, _ := payload["target_user_id"].(string)
	subject := fmt.Sprintf("Alert at %v", payload["location"])
	body := fmt.Sprintf("A %v alert was detected at %v: %v",
		payload["label"], payload["location"], payload["url"])

	messageID, err := e.ses.SendPlainText(ctx, to, subject, body)
	if err != nil {
		return errors.NewSendFailedError(string(models.ChannelEmail), err)
	}

	if err := e.store.MarkSent(ctx, notification.NotificationUUID, messageID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

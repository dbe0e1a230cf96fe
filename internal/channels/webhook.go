// internal/channels/webhook.go
package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	"alert-notifier/internal/common/errors"
	httpclient "alert-notifier/internal/common/http"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

// outgoingPayloadSchema is the wire contract for the notification webhook.
// Every field is required; UUIDs travel as strings.
var outgoingPayloadSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"url":            map[string]interface{}{"type": "string", "minLength": 1},
		"alert_uuid":     map[string]interface{}{"type": "string", "format": "uuid"},
		"location":       map[string]interface{}{"type": "string", "minLength": 1},
		"label":          map[string]interface{}{"type": "string", "enum": []string{"theft", "suspicious", "normal"}},
		"target_user_id": map[string]interface{}{"type": "string", "format": "uuid"},
	},
	"required":             []string{"url", "alert_uuid", "location", "label", "target_user_id"},
	"additionalProperties": false,
}

// Webhook delivers notifications by POSTing the payload to a configured
// endpoint with a bounded timeout.
type Webhook struct {
	endpoint string
	client   *httpclient.Client
	store    StateStore
	logger   logger.Logger
}

func NewWebhook(endpoint string, client *httpclient.Client, store StateStore, log logger.Logger) *Webhook {
	return &Webhook{
		endpoint: endpoint,
		client:   client,
		store:    store,
		logger:   log.WithFields(map[string]interface{}{"channel": "webhook"}),
	}
}

func (w *Webhook) Deliver(ctx context.Context, notification *models.Notification, payload map[string]interface{}) error {
	w.logger.Info("delivering notification", map[string]interface{}{
		"notificationUuid": notification.NotificationUUID,
		"endpoint":         w.endpoint,
	})

	// Schema check happens before any network traffic: an invalid payload
	// will never become valid by retrying.
	schemaLoader := gojsonschema.NewGoLoader(outgoingPayloadSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		dErr := errors.NewPayloadInvalidError(err.Error())
		if mErr := w.store.MarkFailed(ctx, notification.NotificationUUID, dErr.Error()); mErr != nil {
			w.logger.WithError(mErr).Error("failed to persist failed state", nil)
		}
		return dErr
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		dErr := errors.NewPayloadInvalidError(fmt.Sprintf("%v", errs))
		if mErr := w.store.MarkFailed(ctx, notification.NotificationUUID, dErr.Error()); mErr != nil {
			w.logger.WithError(mErr).Error("failed to persist failed state", nil)
		}
		return dErr
	}

	body, err := marshalPayload(payload)
	if err != nil {
		return errors.NewPayloadInvalidError(err.Error())
	}

	resp, err := w.client.PostJSON(ctx, w.endpoint, body)
	if err != nil {
		// Connection refused, DNS failure, client timeout: all transient.
		return errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		dErr := errors.NewHTTPStatusError(resp.StatusCode, string(respBody))
		if !dErr.Retryable {
			if mErr := w.store.MarkFailed(ctx, notification.NotificationUUID, dErr.Error()); mErr != nil {
				w.logger.WithError(mErr).Error("failed to persist failed state", nil)
			}
		}
		return dErr
	}

	if err := w.store.MarkSent(ctx, notification.NotificationUUID, string(respBody)); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}

	w.logger.Info("notification delivered", map[string]interface{}{
		"notificationUuid": notification.NotificationUUID,
		"status":           resp.StatusCode,
	})
	return nil
}

func marshalPayload(payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return body, nil
}

// internal/dispatch/fanout.go
package dispatch

import (
	"context"

	"github.com/google/uuid"

	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/common/metrics"
	"alert-notifier/internal/models"
)

// AlertStore is the slice of the alert repository fan-out reads from.
type AlertStore interface {
	GetByUUID(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error)
}

// ProfileStore enumerates the subscribers of a store.
type ProfileStore interface {
	ListByStore(ctx context.Context, locationID string) ([]models.UserProfile, error)
}

// NotificationWriter is the slice of the notification repository fan-out
// writes through.
type NotificationWriter interface {
	UpsertPending(ctx context.Context, alertUUID, profileID uuid.UUID, channel models.Channel) (*models.Notification, error)
}

// FanOut expands one alert into independent per-subscriber delivery tasks.
type FanOut struct {
	alerts        AlertStore
	profiles      ProfileStore
	notifications NotificationWriter
	enqueuer      Enqueuer
	logger        logger.Logger
}

func NewFanOut(alerts AlertStore, profiles ProfileStore, notifications NotificationWriter, enqueuer Enqueuer, log logger.Logger) *FanOut {
	return &FanOut{
		alerts:        alerts,
		profiles:      profiles,
		notifications: notifications,
		enqueuer:      enqueuer,
		logger:        log.WithFields(map[string]interface{}{"component": "fanout"}),
	}
}

// Run resolves the alert, filters the store's subscribers by preference,
// idempotently upserts one pending notification per eligible (profile,
// channel) pair and schedules one delivery task per notification. Tasks are
// only enqueued after their row is committed, and carry no ordering
// guarantee relative to each other.
func (f *FanOut) Run(ctx context.Context, alertUUID uuid.UUID) error {
	alert, err := f.alerts.GetByUUID(ctx, alertUUID)
	if errors.IsNotFound(err) {
		// Ingestion is synchronous with this trigger: a missing alert will
		// not appear by waiting, so log and abort instead of retrying.
		f.logger.Error("alert not found, aborting fan-out", map[string]interface{}{
			"alertUuid": alertUUID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	profiles, err := f.profiles.ListByStore(ctx, alert.LocationID)
	if err != nil {
		return err
	}

	f.logger.Info("fanning out notifications", map[string]interface{}{
		"alertUuid": alertUUID,
		"store":     alert.LocationID,
		"profiles":  len(profiles),
	})

	var scheduled []uuid.UUID
	for i := range profiles {
		profile := &profiles[i]

		notify, err := profile.ShouldNotify(alert)
		if err != nil {
			// Invalid preference is a config/programming error; fail the
			// whole task loudly rather than misroute silently.
			return err
		}
		if !notify {
			continue
		}

		notification, err := f.notifications.UpsertPending(ctx, alert.AlertUUID, profile.ID, profile.PreferredChannel)
		if err != nil {
			return err
		}
		metrics.FanOutNotifications.Inc()
		scheduled = append(scheduled, notification.NotificationUUID)
	}

	// Rows are committed by now; scheduling failures leave pending rows
	// behind, so surface them and let the idempotent task re-drive.
	var enqueueErr error
	for _, notificationUUID := range scheduled {
		if err := f.enqueuer.EnqueueDelivery(ctx, notificationUUID, 0); err != nil {
			f.logger.WithError(err).Error("failed to enqueue delivery", map[string]interface{}{
				"notificationUuid": notificationUUID,
			})
			enqueueErr = err
		}
	}
	return enqueueErr
}

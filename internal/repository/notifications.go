// internal/repository/notifications.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/models"
)

// Notifications persists delivery work items and their state machine.
type Notifications struct {
	db *sql.DB
}

func NewNotifications(db *sql.DB) *Notifications {
	return &Notifications{db: db}
}

// UpsertPending creates the notification for an (alert, profile, channel)
// triple, or resets an existing one to a fresh pending state: attempt count
// zeroed, last attempt and response evidence cleared. Re-running fan-out is
// a deliberate re-drive, never a duplicate row.
func (r *Notifications) UpsertPending(ctx context.Context, alertUUID, profileID uuid.UUID, channel models.Channel) (*models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (notification_uuid, alert_uuid, user_profile_id, channel)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alert_uuid, user_profile_id, channel) DO UPDATE SET
			status = 'pending',
			attempt_count = 0,
			last_attempt_at = NULL,
			response_data = NULL,
			modified = now()
		RETURNING notification_uuid, alert_uuid, user_profile_id, channel, status,
			attempt_count, last_attempt_at, response_data, created, modified`,
		uuid.New(), alertUUID, profileID, string(channel),
	).Scan(&n.NotificationUUID, &n.AlertUUID, &n.UserProfileID, &n.Channel,
		&n.Status, &n.AttemptCount, &n.LastAttemptAt, &n.ResponseData,
		&n.Created, &n.Modified)
	if err != nil {
		return nil, fmt.Errorf("upsert notification for alert %s: %w", alertUUID, err)
	}
	return &n, nil
}

// GetDetail resolves a notification joined with its alert, store and
// profile; errors.ErrNotFound when any of them has been deleted.
func (r *Notifications) GetDetail(ctx context.Context, notificationUUID uuid.UUID) (*models.NotificationDetail, error) {
	var d models.NotificationDetail
	err := r.db.QueryRowContext(ctx, `
		SELECT n.notification_uuid, n.alert_uuid, n.user_profile_id, n.channel, n.status,
			n.attempt_count, n.last_attempt_at, n.response_data, n.created, n.modified,
			a.alert_uuid, a.url, a.location_id, a.label, a.time_spotted, a.created, a.modified,
			s.location_id, s.name, s.created, s.modified,
			p.id, p.user_id, p.location_id, p.notification_preference, p.preferred_channel, p.created, p.modified
		FROM notifications n
		JOIN alerts a ON a.alert_uuid = n.alert_uuid
		JOIN stores s ON s.location_id = a.location_id
		JOIN user_profiles p ON p.id = n.user_profile_id
		WHERE n.notification_uuid = $1`,
		notificationUUID,
	).Scan(
		&d.Notification.NotificationUUID, &d.Notification.AlertUUID, &d.Notification.UserProfileID,
		&d.Notification.Channel, &d.Notification.Status, &d.Notification.AttemptCount,
		&d.Notification.LastAttemptAt, &d.Notification.ResponseData,
		&d.Notification.Created, &d.Notification.Modified,
		&d.Alert.AlertUUID, &d.Alert.URL, &d.Alert.LocationID, &d.Alert.Label,
		&d.Alert.TimeSpotted, &d.Alert.Created, &d.Alert.Modified,
		&d.Store.LocationID, &d.Store.Name, &d.Store.Created, &d.Store.Modified,
		&d.Profile.ID, &d.Profile.UserID, &d.Profile.LocationID,
		&d.Profile.NotificationPreference, &d.Profile.PreferredChannel,
		&d.Profile.Created, &d.Profile.Modified,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification %s: %w", notificationUUID, errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", notificationUUID, err)
	}
	return &d, nil
}

// MarkAttempt opens a delivery attempt: a single database-side increment of
// the attempt counter together with the attempt timestamp and a reset to
// pending. The increment happens in SQL so concurrent attempts cannot lose
// updates, and it runs before the channel is invoked so attempt accounting
// survives a crash mid-delivery. Returns the new attempt count.
func (r *Notifications) MarkAttempt(ctx context.Context, notificationUUID uuid.UUID) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx, `
		UPDATE notifications SET
			attempt_count = attempt_count + 1,
			last_attempt_at = now(),
			status = 'pending',
			modified = now()
		WHERE notification_uuid = $1
		RETURNING attempt_count`,
		notificationUUID,
	).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("notification %s: %w", notificationUUID, errors.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("mark attempt on %s: %w", notificationUUID, err)
	}
	return attempts, nil
}

// MarkSent records the success terminal state together with the response
// evidence.
func (r *Notifications) MarkSent(ctx context.Context, notificationUUID uuid.UUID, responseData string) error {
	return r.setTerminal(ctx, notificationUUID, models.StatusSent, responseData)
}

// MarkFailed records the failure terminal state together with the failure
// reason as evidence.
func (r *Notifications) MarkFailed(ctx context.Context, notificationUUID uuid.UUID, responseData string) error {
	return r.setTerminal(ctx, notificationUUID, models.StatusFailed, responseData)
}

func (r *Notifications) setTerminal(ctx context.Context, notificationUUID uuid.UUID, status models.NotificationStatus, responseData string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = $2, response_data = $3, modified = now()
		WHERE notification_uuid = $1`,
		notificationUUID, string(status), responseData,
	)
	if err != nil {
		return fmt.Errorf("mark %s on %s: %w", status, notificationUUID, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("notification %s: %w", notificationUUID, errors.ErrNotFound)
	}
	return nil
}

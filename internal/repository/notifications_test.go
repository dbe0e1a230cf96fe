// internal/repository/notifications_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/models"
)

func TestNotificationsUpsertPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now()
	alertUUID := uuid.New()
	profileID := uuid.New()
	notificationUUID := uuid.New()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{
			"notification_uuid", "alert_uuid", "user_profile_id", "channel", "status",
			"attempt_count", "last_attempt_at", "response_data", "created", "modified",
		}).AddRow(notificationUUID, alertUUID, profileID, "webhook", "pending", 0, nil, nil, now, now))

	repo := NewNotifications(db)
	n, err := repo.UpsertPending(context.Background(), alertUUID, profileID, models.ChannelWebhook)

	assert.NoError(t, err)
	assert.Equal(t, notificationUUID, n.NotificationUUID)
	assert.Equal(t, models.StatusPending, n.Status)
	assert.Equal(t, 0, n.AttemptCount)
	assert.Nil(t, n.LastAttemptAt)
	assert.Nil(t, n.ResponseData)
}

func TestNotificationsMarkAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	notificationUUID := uuid.New()
	mock.ExpectQuery(`UPDATE notifications SET`).
		WithArgs(notificationUUID).
		WillReturnRows(sqlmock.NewRows([]string{"attempt_count"}).AddRow(3))

	repo := NewNotifications(db)
	attempts, err := repo.MarkAttempt(context.Background(), notificationUUID)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestNotificationsMarkSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	notificationUUID := uuid.New()
	mock.ExpectExec(`UPDATE notifications SET status`).
		WithArgs(notificationUUID, "sent", `{"ok":true}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNotifications(db)
	err = repo.MarkSent(context.Background(), notificationUUID, `{"ok":true}`)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationsMarkFailed_RowGone(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	notificationUUID := uuid.New()
	mock.ExpectExec(`UPDATE notifications SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNotifications(db)
	err = repo.MarkFailed(context.Background(), notificationUUID, "endpoint rejected")

	assert.True(t, errors.IsNotFound(err))
}

func TestNotificationsGetDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now()
	notificationUUID := uuid.New()
	alertUUID := uuid.New()
	profileID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT n.notification_uuid`).
		WithArgs(notificationUUID).
		WillReturnRows(sqlmock.NewRows([]string{
			"notification_uuid", "alert_uuid", "user_profile_id", "channel", "status",
			"attempt_count", "last_attempt_at", "response_data", "created", "modified",
			"a_alert_uuid", "url", "a_location_id", "label", "time_spotted", "a_created", "a_modified",
			"s_location_id", "name", "s_created", "s_modified",
			"id", "user_id", "p_location_id", "notification_preference", "preferred_channel", "p_created", "p_modified",
		}).AddRow(
			notificationUUID, alertUUID, profileID, "webhook", "pending",
			1, now, nil, now, now,
			alertUUID, "https://cdn.example.com/clip.mp4", "store-17", "theft", now, now, now,
			"store-17", "store-17", now, now,
			profileID, userID, "store-17", "critical", "webhook", now, now,
		))

	repo := NewNotifications(db)
	detail, err := repo.GetDetail(context.Background(), notificationUUID)

	assert.NoError(t, err)
	assert.Equal(t, notificationUUID, detail.Notification.NotificationUUID)
	assert.Equal(t, models.LabelTheft, detail.Alert.Label)
	assert.Equal(t, "store-17", detail.Store.LocationID)
	assert.Equal(t, userID, detail.Profile.UserID)
}

// internal/dispatch/fanout_test.go
package dispatch

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

type alertStoreMock struct {
	getByUUID func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error)
}

func (m *alertStoreMock) GetByUUID(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
	return m.getByUUID(ctx, alertUUID)
}

type profileStoreMock struct {
	profiles []models.UserProfile
	err      error
}

func (m *profileStoreMock) ListByStore(ctx context.Context, locationID string) ([]models.UserProfile, error) {
	return m.profiles, m.err
}

type notificationWriterMock struct {
	upserts []models.Channel
}

func (m *notificationWriterMock) UpsertPending(ctx context.Context, alertUUID, profileID uuid.UUID, channel models.Channel) (*models.Notification, error) {
	m.upserts = append(m.upserts, channel)
	return &models.Notification{
		NotificationUUID: uuid.New(),
		AlertUUID:        alertUUID,
		UserProfileID:    profileID,
		Channel:          channel,
		Status:           models.StatusPending,
	}, nil
}

func theftAlert() *models.Alert {
	return &models.Alert{
		AlertUUID:  uuid.New(),
		URL:        "https://cdn.example.com/clip.mp4",
		LocationID: "store-17",
		Label:      models.LabelTheft,
	}
}

func profileWith(pref models.NotificationPreference, channel models.Channel) models.UserProfile {
	return models.UserProfile{
		ID:                     uuid.New(),
		UserID:                 uuid.New(),
		LocationID:             "store-17",
		NotificationPreference: pref,
		PreferredChannel:       channel,
	}
}

func TestFanOutRun(t *testing.T) {
	alert := theftAlert()
	alerts := &alertStoreMock{
		getByUUID: func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
			return alert, nil
		},
	}
	profiles := &profileStoreMock{
		profiles: []models.UserProfile{
			profileWith(models.PreferenceAll, models.ChannelWebhook),
			profileWith(models.PreferenceCritical, models.ChannelEmail),
			profileWith(models.PreferenceStandard, models.ChannelWebhook), // skips theft
		},
	}
	writer := &notificationWriterMock{}
	enq := &enqueuerMock{}

	f := NewFanOut(alerts, profiles, writer, enq, logger.NewTestLogger(t))
	err := f.Run(context.Background(), alert.AlertUUID)

	assert.NoError(t, err)
	assert.Equal(t, []models.Channel{models.ChannelWebhook, models.ChannelEmail}, writer.upserts)
	assert.Len(t, enq.deliveries, 2)
	assert.Equal(t, 0, enq.fanOuts)
}

func TestFanOutRun_NoEligibleProfiles(t *testing.T) {
	alert := theftAlert()
	alerts := &alertStoreMock{
		getByUUID: func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
			return alert, nil
		},
	}
	profiles := &profileStoreMock{
		profiles: []models.UserProfile{
			profileWith(models.PreferenceStandard, models.ChannelWebhook),
		},
	}
	writer := &notificationWriterMock{}
	enq := &enqueuerMock{}

	f := NewFanOut(alerts, profiles, writer, enq, logger.NewTestLogger(t))
	err := f.Run(context.Background(), alert.AlertUUID)

	assert.NoError(t, err)
	assert.Empty(t, writer.upserts)
	assert.Empty(t, enq.deliveries)
}

func TestFanOutRun_MissingAlertAborts(t *testing.T) {
	alerts := &alertStoreMock{
		getByUUID: func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
			return nil, fmt.Errorf("alert %s: %w", alertUUID, errors.ErrNotFound)
		},
	}
	writer := &notificationWriterMock{}
	enq := &enqueuerMock{}

	f := NewFanOut(alerts, &profileStoreMock{}, writer, enq, logger.NewTestLogger(t))
	err := f.Run(context.Background(), uuid.New())

	// Missing alert will not appear by retrying: no error, no work.
	assert.NoError(t, err)
	assert.Empty(t, writer.upserts)
}

func TestFanOutRun_InvalidPreferenceFailsLoudly(t *testing.T) {
	alert := theftAlert()
	alerts := &alertStoreMock{
		getByUUID: func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
			return alert, nil
		},
	}
	bad := profileWith("vip", models.ChannelWebhook)
	profiles := &profileStoreMock{profiles: []models.UserProfile{bad}}
	writer := &notificationWriterMock{}

	f := NewFanOut(alerts, profiles, writer, &enqueuerMock{}, logger.NewTestLogger(t))
	err := f.Run(context.Background(), alert.AlertUUID)

	assert.Error(t, err)
	assert.Empty(t, writer.upserts)
}

func TestFanOutRun_EnqueueFailureSurfaces(t *testing.T) {
	alert := theftAlert()
	alerts := &alertStoreMock{
		getByUUID: func(ctx context.Context, alertUUID uuid.UUID) (*models.Alert, error) {
			return alert, nil
		},
	}
	profiles := &profileStoreMock{
		profiles: []models.UserProfile{profileWith(models.PreferenceAll, models.ChannelWebhook)},
	}
	writer := &notificationWriterMock{}
	enq := &enqueuerMock{err: assert.AnError}

	f := NewFanOut(alerts, profiles, writer, enq, logger.NewTestLogger(t))
	err := f.Run(context.Background(), alert.AlertUUID)

	// The row is committed; the error lets the idempotent task re-drive.
	assert.Error(t, err)
	assert.Len(t, writer.upserts, 1)
}

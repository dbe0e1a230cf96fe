// internal/dispatch/dispatcher_test.go
package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"alert-notifier/internal/channels"
	"alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/models"
)

type notificationStoreMock struct {
	getDetail   func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error)
	markAttempt func(ctx context.Context, id uuid.UUID) (int, error)

	failedWith  []string
	attemptCall int
}

func (m *notificationStoreMock) GetDetail(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
	return m.getDetail(ctx, id)
}

func (m *notificationStoreMock) MarkAttempt(ctx context.Context, id uuid.UUID) (int, error) {
	m.attemptCall++
	if m.markAttempt != nil {
		return m.markAttempt(ctx, id)
	}
	return m.attemptCall, nil
}

func (m *notificationStoreMock) MarkFailed(ctx context.Context, id uuid.UUID, responseData string) error {
	m.failedWith = append(m.failedWith, responseData)
	return nil
}

type enqueuerMock struct {
	deliveries []time.Duration
	fanOuts    int
	err        error
}

func (m *enqueuerMock) EnqueueFanOut(ctx context.Context, alertUUID uuid.UUID) error {
	m.fanOuts++
	return m.err
}

func (m *enqueuerMock) EnqueueDelivery(ctx context.Context, notificationUUID uuid.UUID, delay time.Duration) error {
	m.deliveries = append(m.deliveries, delay)
	return m.err
}

type strategyMock struct {
	deliver func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error
	calls   int
}

func (m *strategyMock) Deliver(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
	m.calls++
	if m.deliver != nil {
		return m.deliver(ctx, n, payload)
	}
	return nil
}

func pendingDetail(channel models.Channel) *models.NotificationDetail {
	return &models.NotificationDetail{
		Notification: models.Notification{
			NotificationUUID: uuid.New(),
			Channel:          channel,
			Status:           models.StatusPending,
		},
		Alert: models.Alert{
			AlertUUID:  uuid.New(),
			URL:        "https://cdn.example.com/clip.mp4",
			LocationID: "store-17",
			Label:      models.LabelTheft,
		},
		Store:   models.Store{LocationID: "store-17", Name: "store-17"},
		Profile: models.UserProfile{ID: uuid.New(), UserID: uuid.New()},
	}
}

func newTestDispatcher(store *notificationStoreMock, strategy channels.Strategy, enq *enqueuerMock, policy RetryPolicy, t *testing.T) *Dispatcher {
	registry := channels.NewRegistry(strategy, nil, nil)
	return NewDispatcher(store, registry, enq, policy, logger.NewTestLogger(t))
}

func TestDispatch_Success(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
	}
	strategy := &strategyMock{
		deliver: func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
			assert.Equal(t, detail.Alert.AlertUUID.String(), payload["alert_uuid"])
			return nil
		},
	}
	enq := &enqueuerMock{}

	d := newTestDispatcher(store, strategy, enq, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	assert.NoError(t, err)
	assert.Equal(t, 1, strategy.calls)
	assert.Equal(t, 1, store.attemptCall)
	assert.Empty(t, enq.deliveries)
	assert.Empty(t, store.failedWith)
}

func TestDispatch_DisabledChannelLeavesPending(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
	}
	strategy := &strategyMock{
		deliver: func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
			return channels.ErrNotEnabled
		},
	}
	enq := &enqueuerMock{}

	d := newTestDispatcher(store, strategy, enq, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	// Not a delivery and not a failure: the row stays pending, no retry is
	// scheduled, and no terminal state is written.
	assert.NoError(t, err)
	assert.Equal(t, 1, store.attemptCall)
	assert.Empty(t, enq.deliveries)
	assert.Empty(t, store.failedWith)
}

func TestDispatch_NotFoundIsSilent(t *testing.T) {
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return nil, fmt.Errorf("notification %s: %w", id, errors.ErrNotFound)
		},
	}
	strategy := &strategyMock{}

	d := newTestDispatcher(store, strategy, &enqueuerMock{}, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, 0, strategy.calls)
	assert.Equal(t, 0, store.attemptCall)
}

func TestDispatch_AlreadySentShortCircuits(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	detail.Notification.Status = models.StatusSent
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
	}
	strategy := &strategyMock{}

	d := newTestDispatcher(store, strategy, &enqueuerMock{}, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	assert.NoError(t, err)
	assert.Equal(t, 0, strategy.calls)
	assert.Equal(t, 0, store.attemptCall)
}

func TestDispatch_RetryableErrorSchedulesRetry(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
		markAttempt: func(ctx context.Context, id uuid.UUID) (int, error) {
			return 2, nil
		},
	}
	strategy := &strategyMock{
		deliver: func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
			return errors.NewHTTPStatusError(503, "overloaded")
		},
	}
	enq := &enqueuerMock{}
	policy := RetryPolicy{MaxAttempts: 5, Delay: 300 * time.Second}

	d := newTestDispatcher(store, strategy, enq, policy, t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{300 * time.Second}, enq.deliveries)
	assert.Empty(t, store.failedWith)
}

func TestDispatch_ExhaustedRetriesMarkFailed(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
		markAttempt: func(ctx context.Context, id uuid.UUID) (int, error) {
			return 5, nil
		},
	}
	strategy := &strategyMock{
		deliver: func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
			return errors.NewNetworkError(assert.AnError)
		},
	}
	enq := &enqueuerMock{}
	policy := RetryPolicy{MaxAttempts: 5, Delay: 300 * time.Second}

	d := newTestDispatcher(store, strategy, enq, policy, t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	// The fifth transient failure is terminal: no retry, FAILED with the
	// exhaustion evidence recorded.
	assert.NoError(t, err)
	assert.Empty(t, enq.deliveries)
	assert.Len(t, store.failedWith, 1)
	assert.Contains(t, store.failedWith[0], "retry budget exhausted after 5 attempts")
}

func TestDispatch_PermanentErrorMarksFailed(t *testing.T) {
	detail := pendingDetail(models.ChannelWebhook)
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
	}
	strategy := &strategyMock{
		deliver: func(ctx context.Context, n *models.Notification, payload map[string]interface{}) error {
			return errors.NewHTTPStatusError(400, "bad payload")
		},
	}
	enq := &enqueuerMock{}

	d := newTestDispatcher(store, strategy, enq, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	assert.NoError(t, err)
	assert.Empty(t, enq.deliveries)
	assert.Len(t, store.failedWith, 1)
	assert.Contains(t, store.failedWith[0], "WEBHOOK_REJECTED")
}

func TestDispatch_UnknownChannelMarksFailed(t *testing.T) {
	detail := pendingDetail(models.ChannelEmail) // registry only has webhook
	store := &notificationStoreMock{
		getDetail: func(ctx context.Context, id uuid.UUID) (*models.NotificationDetail, error) {
			return detail, nil
		},
	}

	d := newTestDispatcher(store, &strategyMock{}, &enqueuerMock{}, DefaultRetryPolicy(), t)
	err := d.Dispatch(context.Background(), detail.Notification.NotificationUUID)

	assert.NoError(t, err)
	assert.Len(t, store.failedWith, 1)
	assert.Contains(t, store.failedWith[0], "CHANNEL_NOT_REGISTERED")
}

// internal/channels/email_test.go
package channels

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"

	"alert-notifier/internal/common/aws"
	apperrors "alert-notifier/internal/common/errors"
	"alert-notifier/internal/common/logger"
)

type sesAPIMock struct {
	sendEmail func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *sesAPIMock) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.sendEmail(ctx, params, optFns...)
}

func TestEmailDeliver_DisabledLeavesPending(t *testing.T) {
	store := &stateStoreMock{}
	email := NewEmail(nil, store, false, logger.NewTestLogger(t))

	err := email.Deliver(context.Background(), testNotification(), validPayload())

	// The sentinel and no state transition: the notification stays pending
	// and the caller knows nothing was delivered.
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Equal(t, 0, store.sentCalls)
	assert.Equal(t, 0, store.failedCalls)
}

func TestSMSDeliver_DisabledLeavesPending(t *testing.T) {
	store := &stateStoreMock{}
	sms := NewSMS(nil, store, false, logger.NewTestLogger(t))

	err := sms.Deliver(context.Background(), testNotification(), validPayload())

	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Equal(t, 0, store.sentCalls)
	assert.Equal(t, 0, store.failedCalls)
}

func TestEmailDeliver_Enabled(t *testing.T) {
	api := &sesAPIMock{
		sendEmail: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			assert.Equal(t, "alerts@example.com", awssdk.ToString(params.Source))
			return &ses.SendEmailOutput{MessageId: awssdk.String("msg-123")}, nil
		},
	}
	store := &stateStoreMock{}
	email := NewEmail(aws.NewSESClientWithAPI(api, "alerts@example.com"), store, true, logger.NewTestLogger(t))

	err := email.Deliver(context.Background(), testNotification(), validPayload())

	assert.NoError(t, err)
	assert.Equal(t, 1, store.sentCalls)
}

func TestEmailDeliver_SendFailureIsRetryable(t *testing.T) {
	api := &sesAPIMock{
		sendEmail: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, assert.AnError
		},
	}
	store := &stateStoreMock{}
	email := NewEmail(aws.NewSESClientWithAPI(api, "alerts@example.com"), store, true, logger.NewTestLogger(t))

	err := email.Deliver(context.Background(), testNotification(), validPayload())

	assert.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, 0, store.sentCalls)
}

func TestRegistryGet(t *testing.T) {
	webhook := &Webhook{}
	registry := NewRegistry(webhook, nil, nil)

	assert.Equal(t, webhook, registry.Get("webhook"))
	assert.Nil(t, registry.Get("pager"))
}

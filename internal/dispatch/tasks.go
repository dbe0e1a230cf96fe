// internal/dispatch/tasks.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"alert-notifier/internal/common/config"
)

// RedisClientOpt converts the application redis config into the asynq
// connection options, so both binaries build the queue the same way.
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Task types carried over the queue. One fan-out task per ingested alert,
// one delivery task per notification attempt.
const (
	TaskTypeFanOut  = "alert:fanout"
	TaskTypeDeliver = "notification:deliver"
)

type fanOutPayload struct {
	AlertUUID string `json:"alert_uuid"`
}

type deliverPayload struct {
	NotificationUUID string `json:"notification_uuid"`
}

// NewFanOutTask builds the queue task that expands one alert into
// notifications.
func NewFanOutTask(alertUUID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(fanOutPayload{AlertUUID: alertUUID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal fanout payload: %w", err)
	}
	return asynq.NewTask(TaskTypeFanOut, payload), nil
}

// NewDeliveryTask builds the queue task for one delivery attempt.
func NewDeliveryTask(notificationUUID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(deliverPayload{NotificationUUID: notificationUUID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal delivery payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDeliver, payload), nil
}

// Enqueuer submits pipeline tasks. Submission is fire-and-forget: callers
// only learn whether the task reached the queue, never the delivery outcome.
type Enqueuer interface {
	EnqueueFanOut(ctx context.Context, alertUUID uuid.UUID) error
	EnqueueDelivery(ctx context.Context, notificationUUID uuid.UUID, delay time.Duration) error
}

// QueueClient is the asynq-backed Enqueuer. Delivery tasks are enqueued
// with the queue's native retry disabled: the dispatcher owns the retry
// policy and re-enqueues explicitly, which keeps the policy portable across
// queue implementations.
type QueueClient struct {
	client *asynq.Client
	queue  string
}

func NewQueueClient(redisOpt asynq.RedisClientOpt, queue string) *QueueClient {
	return &QueueClient{
		client: asynq.NewClient(redisOpt),
		queue:  queue,
	}
}

func (c *QueueClient) EnqueueFanOut(ctx context.Context, alertUUID uuid.UUID) error {
	task, err := NewFanOutTask(alertUUID)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue fanout for alert %s: %w", alertUUID, err)
	}
	return nil
}

func (c *QueueClient) EnqueueDelivery(ctx context.Context, notificationUUID uuid.UUID, delay time.Duration) error {
	task, err := NewDeliveryTask(notificationUUID)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(0)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue delivery for notification %s: %w", notificationUUID, err)
	}
	return nil
}

func (c *QueueClient) Close() error {
	return c.client.Close()
}

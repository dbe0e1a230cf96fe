// internal/dispatch/worker.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"alert-notifier/internal/common/logger"
	"alert-notifier/internal/common/observability"
)

// NewServeMux binds the queue task types to their handlers.
func NewServeMux(fanOut *FanOut, dispatcher *Dispatcher, obs *observability.Observability, log logger.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskTypeFanOut, func(ctx context.Context, task *asynq.Task) error {
		return instrument(ctx, obs, TaskTypeFanOut, func() error {
			var p fanOutPayload
			if err := json.Unmarshal(task.Payload(), &p); err != nil {
				return fmt.Errorf("decode fan-out payload: %w", err)
			}
			alertUUID, err := uuid.Parse(p.AlertUUID)
			if err != nil {
				return fmt.Errorf("parse alert uuid %q: %w", p.AlertUUID, err)
			}
			return fanOut.Run(ctx, alertUUID)
		})
	})

	mux.HandleFunc(TaskTypeDeliver, func(ctx context.Context, task *asynq.Task) error {
		return instrument(ctx, obs, TaskTypeDeliver, func() error {
			var p deliverPayload
			if err := json.Unmarshal(task.Payload(), &p); err != nil {
				return fmt.Errorf("decode delivery payload: %w", err)
			}
			notificationUUID, err := uuid.Parse(p.NotificationUUID)
			if err != nil {
				return fmt.Errorf("parse notification uuid %q: %w", p.NotificationUUID, err)
			}
			return dispatcher.Dispatch(ctx, notificationUUID)
		})
	})

	mux.Use(func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			err := next.ProcessTask(ctx, task)
			if err != nil {
				log.Error("task failed", map[string]interface{}{
					"taskType": task.Type(),
					"error":    err.Error(),
				})
			}
			return err
		})
	})

	return mux
}

func instrument(ctx context.Context, obs *observability.Observability, taskType string, fn func() error) error {
	start := time.Now()
	err := fn()
	obs.RecordTaskDuration(ctx, taskType, time.Since(start))
	status := "success"
	if err != nil {
		status = "error"
	}
	obs.RecordTaskProcessed(ctx, taskType, status)
	return err
}

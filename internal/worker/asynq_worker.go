package worker

import (
	"context"
	"errors"

	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/provider"
	"github.com/scentshop/internal/queue"
	"github.com/scentshop/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

// handleNotificationDispatch 返回错误时由 asynq 按 MaxRetry 重试
func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationDispatchPayload(task)
	if err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.EventID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "event_id", payload.EventID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "event_id", payload.EventID)
		return nil
	}

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("event_id", payload.EventID, "order_id", payload.OrderID, "event", payload.Event))
	err = c.NotificationService.Dispatch(ctx, payload.EventID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrOutboxEventNotFound):
		logger.FromContext(ctx).Debugw("worker_notification_dispatch_skip_event_missing")
		return nil
	default:
		logger.FromContext(ctx).Warnw("worker_notification_dispatch_failed", "error", err)
		return err
	}
}

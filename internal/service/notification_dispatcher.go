package service

import (
	"context"
	"time"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/queue"
	"github.com/scentshop/internal/repository"
)

// NotificationDispatcher 出站事件发布：启用队列时入队，否则提交后同步分发
type NotificationDispatcher struct {
	queueClient         *queue.Client
	notificationService *NotificationService
	outboxRepo          repository.OutboxRepository
	relayDelay          time.Duration
	batchSize           int
}

// NewNotificationDispatcher 创建事件发布器
func NewNotificationDispatcher(queueClient *queue.Client, notificationService *NotificationService, outboxRepo repository.OutboxRepository, cfg *config.NotificationConfig) *NotificationDispatcher {
	relayDelay := time.Minute
	batchSize := 100
	if cfg != nil {
		if cfg.RelayDelaySeconds > 0 {
			relayDelay = time.Duration(cfg.RelayDelaySeconds) * time.Second
		}
		if cfg.RelayBatchSize > 0 {
			batchSize = cfg.RelayBatchSize
		}
	}
	return &NotificationDispatcher{
		queueClient:         queueClient,
		notificationService: notificationService,
		outboxRepo:          outboxRepo,
		relayDelay:          relayDelay,
		batchSize:           batchSize,
	}
}

// Publish 发布事件，失败只记录日志，由补偿扫描兜底
func (d *NotificationDispatcher) Publish(ctx context.Context, event *models.OutboxEvent) {
	if event == nil {
		return
	}
	if err := d.publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warnw("notification_publish_failed",
			"event_id", event.ID,
			"event", event.Event,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}

func (d *NotificationDispatcher) publish(ctx context.Context, event *models.OutboxEvent) error {
	if d.queueClient.Enabled() {
		return d.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{
			EventID: event.ID,
			Event:   event.Event,
			OrderID: event.OrderID,
		})
	}
	if d.notificationService == nil {
		return nil
	}
	return d.notificationService.Dispatch(ctx, event.ID)
}

// RelayPending 重新发布超过延迟仍未完成的事件，返回处理条数
func (d *NotificationDispatcher) RelayPending(ctx context.Context) (int, error) {
	events, err := d.outboxRepo.ListPending(time.Now().Add(-d.relayDelay), d.batchSize)
	if err != nil {
		return 0, err
	}
	for i := range events {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		d.Publish(ctx, &events[i])
	}
	if len(events) > 0 {
		logger.FromContext(ctx).Infow("notification_relay_published", "count", len(events))
	}
	return len(events), nil
}

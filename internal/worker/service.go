package worker

import (
	"context"
	"errors"
	"time"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultRelayInterval = 30 * time.Second

// Service 异步任务服务：asynq 消费者加出站事件补偿扫描
// 队列未启用时只运行补偿扫描，事件在扫描中同步分发
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	relayInterval time.Duration
	stopped       chan struct{}
}

// NewService 创建异步任务服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil || consumer.Container == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:          "worker",
		consumer:      consumer,
		relayInterval: relayInterval(&cfg.Notification),
		stopped:       make(chan struct{}),
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	return s, nil
}

func relayInterval(cfg *config.NotificationConfig) time.Duration {
	if cfg == nil || cfg.RelayIntervalSeconds <= 0 {
		return defaultRelayInterval
	}
	return time.Duration(cfg.RelayIntervalSeconds) * time.Second
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务，阻塞至停止
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	go s.runRelayLoop(ctx)
	if s.server == nil {
		logger.Infow("worker_queue_disabled_relay_only", "interval", s.relayInterval.String())
		select {
		case <-ctx.Done():
		case <-s.stopped:
		}
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_ = ctx
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

// runRelayOnce 重新发布滞留事件并清理过期通知
func (s *Service) runRelayOnce(ctx context.Context) {
	if dispatcher := s.consumer.NotificationDispatcher; dispatcher != nil {
		if _, err := dispatcher.RelayPending(ctx); err != nil && ctx.Err() == nil {
			logger.Warnw("worker_notification_relay_failed", "error", err)
		}
	}
	if notifications := s.consumer.NotificationService; notifications != nil {
		if _, err := notifications.PurgeExpired(ctx); err != nil {
			logger.Warnw("worker_notification_purge_failed", "error", err)
		}
	}
}

func (s *Service) runRelayLoop(ctx context.Context) {
	s.runRelayOnce(ctx)

	ticker := time.NewTicker(s.relayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			s.runRelayOnce(ctx)
		}
	}
}

package app

import (
	"context"
	"errors"
	"net"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/provider"
	"github.com/scentshop/internal/router"
	"github.com/scentshop/internal/worker"
)

// BuildRunner 按启动模式组装 API 与 Worker 服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	opts := normalizeOptions(Options{Config: cfg, Mode: mode})
	if _, err := ParseMode(opts.Mode); err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)
	if _, err := container.SettingService.Ensure(context.Background()); err != nil {
		logger.Warnw("app_ensure_admin_setting_failed", "error", err)
	}
	var services []Service

	if opts.runsAPI() {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	// worker 模式下即使队列关闭也会跑 outbox 补偿
	if opts.runsWorker() {
		workerService, err := worker.NewService(cfg, worker.NewConsumer(container))
		if err != nil {
			container.Close()
			return nil, err
		}
		services = append(services, workerService)
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

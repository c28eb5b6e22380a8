package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/scentshop/internal/app"
	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"

	"github.com/gin-gonic/gin"
)

const banner = `
  ____                 _   ____  _
 / ___|  ___ ___ _ __ | |_/ ___|| |__   ___  _ __
 \___ \ / __/ _ \ '_ \| __\___ \| '_ \ / _ \| '_ \
  ___) | (_|  __/ | | | |_ ___) | | | | (_) | |_) |
 |____/ \___\___|_| |_|\__|____/|_| |_|\___/| .__/
                                            |_|
`

func main() {
	var rawMode string
	flag.StringVar(&rawMode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	mode, err := app.ParseMode(rawMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Print(banner)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	release := cfg.Server.Mode == "release"
	if isWeakSecret(cfg.JWT.SecretKey) {
		if release {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, !release); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 生产环境必须显式配置管理员密码
	if release && os.Getenv("ADMIN_PASSWORD") == "" {
		stdLog.Printf("警告: 未设置 ADMIN_PASSWORD，已跳过默认管理员初始化")
	} else if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
	}

	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"strings"

	"github.com/scentshop/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Email        EmailConfig        `mapstructure:"email"`
	WhatsApp     WhatsAppConfig     `mapstructure:"whatsapp"`
	Order        OrderConfig        `mapstructure:"order"`
	Loyalty      LoyaltyConfig      `mapstructure:"loyalty"`
	Notification NotificationConfig `mapstructure:"notification"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 默认管理员
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// EmailConfig SMTP 配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`

	VerifyCode VerifyCodeConfig `mapstructure:"verify_code"`
}

// VerifyCodeConfig 邮箱验证码配置
type VerifyCodeConfig struct {
	ExpireMinutes       int `mapstructure:"expire_minutes"`
	SendIntervalSeconds int `mapstructure:"send_interval_seconds"`
	MaxAttempts         int `mapstructure:"max_attempts"`
	Length              int `mapstructure:"length"`
}

// WhatsAppConfig WhatsApp Cloud API 配置
type WhatsAppConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIBase        string `mapstructure:"api_base"`
	PhoneNumberID  string `mapstructure:"phone_number_id"`
	AccessToken    string `mapstructure:"access_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	DeliveryCharge float64 `mapstructure:"delivery_charge"`
	Currency       string  `mapstructure:"currency"`
}

// LoyaltyConfig 会员等级阈值（累计已签收金额）
type LoyaltyConfig struct {
	Silver   float64 `mapstructure:"silver"`
	Gold     float64 `mapstructure:"gold"`
	Platinum float64 `mapstructure:"platinum"`
	Diamond  float64 `mapstructure:"diamond"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	TTLDays              int `mapstructure:"ttl_days"`
	RelayIntervalSeconds int `mapstructure:"relay_interval_seconds"`
	RelayDelaySeconds    int `mapstructure:"relay_delay_seconds"`
	RelayBatchSize       int `mapstructure:"relay_batch_size"`
	MaxAttempts          int `mapstructure:"max_attempts"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 下单与验证码接口限流配置
type RateLimitConfig struct {
	OrderCreateWindowSeconds int `mapstructure:"order_create_window_seconds"`
	OrderCreateMaxRequests   int `mapstructure:"order_create_max_requests"`
	AuthCodeWindowSeconds    int `mapstructure:"auth_code_window_seconds"`
	AuthCodeMaxRequests      int `mapstructure:"auth_code_max_requests"`
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debugw("dotenv_not_loaded", "error", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("./etc")

	SetDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/scentshop.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "scent")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "Scent Shop")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.verify_code.expire_minutes", 10)
	v.SetDefault("email.verify_code.send_interval_seconds", 60)
	v.SetDefault("email.verify_code.max_attempts", 5)
	v.SetDefault("email.verify_code.length", 6)
	v.SetDefault("whatsapp.enabled", false)
	v.SetDefault("whatsapp.api_base", "https://graph.facebook.com/v19.0")
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.access_token", "")
	v.SetDefault("whatsapp.timeout_seconds", 10)
	v.SetDefault("order.delivery_charge", 0)
	v.SetDefault("order.currency", "BDT")
	v.SetDefault("loyalty.silver", 50000)
	v.SetDefault("loyalty.gold", 100000)
	v.SetDefault("loyalty.platinum", 250000)
	v.SetDefault("loyalty.diamond", 1000000)
	v.SetDefault("notification.ttl_days", 30)
	v.SetDefault("notification.relay_interval_seconds", 30)
	v.SetDefault("notification.relay_delay_seconds", 60)
	v.SetDefault("notification.relay_batch_size", 100)
	v.SetDefault("notification.max_attempts", 5)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.prefix", "scentshop")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("rate_limit.order_create_window_seconds", 60)
	v.SetDefault("rate_limit.order_create_max_requests", 10)
	v.SetDefault("rate_limit.auth_code_window_seconds", 300)
	v.SetDefault("rate_limit.auth_code_max_requests", 10)
}

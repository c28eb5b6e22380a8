package provider

import (
	"github.com/scentshop/internal/authz"
	"github.com/scentshop/internal/cache"
	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/metrics"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/queue"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Collectors

	// Repositories
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	OrderRepo        repository.OrderRepository
	ReviewRepo       repository.ReviewRepository
	OutboxRepo       repository.OutboxRepository
	NotificationRepo repository.NotificationRepository
	SettingRepo      repository.SettingRepository
	VerifyCodeRepo   repository.EmailVerifyCodeRepository
	PostRepo         repository.PostRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService           *authz.Service
	UserAuthService        *service.UserAuthService
	SettingService         *service.AdminSettingService
	EmailService           *service.EmailService
	WhatsAppService        *service.WhatsAppService
	NotificationService    *service.NotificationService
	NotificationDispatcher *service.NotificationDispatcher
	LoyaltyService         *service.LoyaltyService
	ProductService         *service.ProductService
	OrderService           *service.OrderService
	ReviewService          *service.ReviewService
	PostService            *service.PostService
	DashboardService       *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 缓存不可用时降级为直读数据库
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue, cfg.Notification.MaxAttempts)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil, 0)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.Init(&cfg.Metrics),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.OutboxRepo = repository.NewOutboxRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.VerifyCodeRepo = repository.NewEmailVerifyCodeRepository(db)
	c.PostRepo = repository.NewPostRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewAdminSettingService(c.SettingRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.VerifyCodeRepo, c.OrderRepo, c.EmailService)
	c.WhatsAppService = service.NewWhatsAppService(&c.Config.WhatsApp)

	c.NotificationService = service.NewNotificationService(
		c.NotificationRepo,
		c.OutboxRepo,
		c.OrderRepo,
		c.UserRepo,
		c.SettingService,
		c.EmailService,
		c.WhatsAppService,
		&c.Config.Notification,
	)
	c.NotificationDispatcher = service.NewNotificationDispatcher(c.QueueClient, c.NotificationService, c.OutboxRepo, &c.Config.Notification)

	c.LoyaltyService = service.NewLoyaltyService(c.UserRepo, c.OrderRepo, &c.Config.Loyalty)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.UserRepo,
		c.OutboxRepo,
		c.LoyaltyService,
		c.NotificationDispatcher,
		&c.Config.Order,
	)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.OrderRepo, c.ProductRepo, c.UserRepo)
	c.PostService = service.NewPostService(c.PostRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}

// Close 释放队列与缓存连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scentshop/internal/authz"
	"github.com/scentshop/internal/cache"
	"github.com/scentshop/internal/config"
	adminhandlers "github.com/scentshop/internal/http/handlers/admin"
	publichandlers "github.com/scentshop/internal/http/handlers/public"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "scent"
	}
	orderCreateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_create", redisPrefix),
		WindowSeconds: cfg.RateLimit.OrderCreateWindowSeconds,
		MaxRequests:   cfg.RateLimit.OrderCreateMaxRequests,
	}
	authCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:auth_code", redisPrefix),
		WindowSeconds: cfg.RateLimit.AuthCodeWindowSeconds,
		MaxRequests:   cfg.RateLimit.AuthCodeMaxRequests,
	}
	authCodeLimit := RateLimitMiddleware(cache.Client(), authCodeRule, KeyByIP)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))
	if c.Metrics != nil {
		r.Use(c.Metrics.Middleware())
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.GET("/products/:slug/reviews", publicHandler.GetProductReviews)
			public.GET("/top-sold", publicHandler.GetTopSoldProduct)
			public.GET("/reviews/featured", publicHandler.GetFeaturedReviews)
			public.GET("/blogs", publicHandler.GetPublishedPosts)
			public.GET("/blogs/:slug", publicHandler.GetPostBySlug)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", publicHandler.UserLogin)
			auth.POST("/send-verify-code", authCodeLimit, publicHandler.SendVerifyCode)
			auth.POST("/verify-email", authCodeLimit, publicHandler.VerifyEmail)
			auth.POST("/forgot-password", authCodeLimit, publicHandler.ForgotPassword)
			auth.POST("/reset-password", authCodeLimit, publicHandler.ResetPassword)
		}

		// 登录后接口：顾客与管理员共用，按角色走 RBAC
		authed := apiV1.Group("")
		authed.Use(JWTAuthMiddleware(c.UserAuthService), RBACMiddleware(c.AuthzService))
		{
			authed.GET("/me", publicHandler.GetCurrentUser)
			authed.GET("/me/loyalty", publicHandler.GetMyLoyalty)
			authed.PATCH("/me/profile", publicHandler.UpdateProfile)
			authed.PUT("/me/checkout-details", publicHandler.SaveCheckoutDetails)
			authed.POST("/me/password/change", publicHandler.ChangePassword)
			authed.POST("/me/password/set", publicHandler.SetPassword)
			authed.POST("/me/logout-all", publicHandler.LogoutAllDevices)
			authed.POST("/me/delete-account", publicHandler.DeleteMyAccount)

			authed.POST("/orders", RateLimitMiddleware(cache.Client(), orderCreateRule, KeyByUser), publicHandler.CreateOrder)
			authed.GET("/orders", publicHandler.ListOrders)
			authed.GET("/orders/:id", publicHandler.GetOrder)
			authed.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			authed.POST("/orders/:id/received", publicHandler.MarkReceived)
			authed.PATCH("/orders/:id/payment-method", publicHandler.UpdatePaymentMethod)
			authed.POST("/orders/:id/pay", publicHandler.PayOrder)
			authed.POST("/orders/:id/reviews/:product_id/skip", publicHandler.SkipReview)
			authed.POST("/reviews", publicHandler.SubmitReview)

			authed.GET("/notifications", publicHandler.ListNotifications)
			authed.GET("/notifications/unread-count", publicHandler.GetUnreadCount)
			authed.POST("/notifications/read-all", publicHandler.MarkAllNotificationsRead)
			authed.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)

			admin := authed.Group("/admin")
			{
				// 统计
				admin.GET("/stats", adminHandler.AdminGetStats)

				// 订单管理
				admin.GET("/orders", adminHandler.AdminListOrders)
				admin.POST("/orders", adminHandler.AdminCreateManualOrder)
				admin.GET("/orders/:id", adminHandler.AdminGetOrder)
				admin.POST("/orders/:id/confirm", adminHandler.AdminConfirmOrder)
				admin.POST("/orders/:id/ship", adminHandler.AdminShipOrder)
				admin.POST("/orders/:id/deliver", adminHandler.AdminMarkDelivered)
				admin.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
				admin.POST("/orders/:id/return", adminHandler.AdminReturnOrder)

				// 商品管理
				admin.GET("/products", adminHandler.AdminListProducts)
				admin.POST("/products", adminHandler.AdminCreateProduct)
				admin.GET("/products/:id", adminHandler.AdminGetProduct)
				admin.PATCH("/products/:id", adminHandler.AdminUpdateProduct)
				admin.PATCH("/products/:id/stock", adminHandler.AdminUpdateProductStock)
				admin.DELETE("/products/:id", adminHandler.AdminDeleteProduct)

				// 评价管理
				admin.GET("/reviews", adminHandler.AdminListReviews)
				admin.PATCH("/reviews/:id", adminHandler.AdminUpdateReview)
				admin.DELETE("/reviews/:id", adminHandler.AdminDeleteReview)

				// 用户管理
				admin.GET("/users", adminHandler.AdminListUsers)
				admin.POST("/users", adminHandler.AdminCreateUser)
				admin.PATCH("/users/:id/status", adminHandler.AdminUpdateUserStatus)
				admin.PATCH("/users/:id/loyalty", adminHandler.AdminUpdateUserLoyalty)

				// 博客管理
				admin.GET("/blogs", adminHandler.AdminListPosts)
				admin.POST("/blogs", adminHandler.AdminCreatePost)
				admin.PATCH("/blogs/:id", adminHandler.AdminUpdatePost)
				admin.DELETE("/blogs/:id", adminHandler.AdminDeletePost)

				// 通知设置
				admin.GET("/settings", adminHandler.AdminGetSettings)
				admin.PATCH("/settings", adminHandler.AdminUpdateSettings)

				// 权限管理
				admin.GET("/authz/roles", adminHandler.AdminListRoles)
				admin.POST("/authz/roles/:role/policies", adminHandler.AdminGrantRolePolicy)
				admin.DELETE("/authz/roles/:role/policies", adminHandler.AdminRevokeRolePolicy)
				admin.PUT("/authz/users/:id/roles", adminHandler.AdminSetUserRoles)
				admin.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 列出可授权的管理端路由
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

func permissionModule(object string) string {
	segments := strings.Split(strings.Trim(object, "/"), "/")
	if len(segments) >= 2 && segments[0] == "admin" {
		return segments[1]
	}
	return segments[0]
}

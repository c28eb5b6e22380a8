package service

import (
	"context"
	"time"

	"github.com/scentshop/internal/cache"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"
)

const (
	dashboardCacheKey      = "dashboard:admin_stats"
	dashboardCacheTTL      = 45 * time.Second
	dashboardRecentDays    = 30
	dashboardLowStockLimit = 5
	dashboardTopProducts   = 5
)

// DashboardService 后台首页统计
// 说明：聚合用户、订单与库存数据，结果短时缓存。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建统计服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// AdminStats 后台统计响应
type AdminStats struct {
	TotalUsers     int64             `json:"total_users"`
	ActiveUsers    int64             `json:"active_users"`
	SuspendedUsers int64             `json:"suspended_users"`
	PendingUsers   int64             `json:"pending_users"`
	DeletedUsers   int64             `json:"deleted_users"`
	Orders         AdminOrderStats   `json:"orders"`
	Inventory      AdminStockStats   `json:"inventory"`
	TopProducts    []AdminTopProduct `json:"top_products"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// AdminOrderStats 订单统计
type AdminOrderStats struct {
	Total            int64            `json:"total"`
	ByStatus         map[string]int64 `json:"by_status"`
	Website          int64            `json:"website"`
	Manual           int64            `json:"manual"`
	Recent           int64            `json:"recent"`
	RecentDays       int              `json:"recent_days"`
	DeliveredRevenue models.Money     `json:"delivered_revenue"`
}

// AdminStockStats 库存统计
type AdminStockStats struct {
	ActiveProducts    int64 `json:"active_products"`
	OutOfStockSizes   int64 `json:"out_of_stock_sizes"`
	LowStockSizes     int64 `json:"low_stock_sizes"`
	LowStockThreshold int   `json:"low_stock_threshold"`
}

// AdminTopProduct 销量排行项
type AdminTopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	SoldCount int64  `json:"sold_count"`
}

// GetAdminStats 获取后台统计；forceRefresh 跳过缓存
func (s *DashboardService) GetAdminStats(ctx context.Context, actor Actor, forceRefresh bool) (*AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	if !forceRefresh {
		var cached AdminStats
		hit, err := cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			log.Warnw("dashboard_cache_get_failed", "error", err)
		}
		if hit {
			return &cached, nil
		}
	}

	now := time.Now()
	users, err := s.repo.GetUserStats()
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.GetOrderStats(now.AddDate(0, 0, -dashboardRecentDays))
	if err != nil {
		return nil, err
	}
	stock, err := s.repo.GetStockStats(dashboardLowStockLimit)
	if err != nil {
		return nil, err
	}
	ranking, err := s.repo.GetTopProducts(dashboardTopProducts)
	if err != nil {
		return nil, err
	}

	for _, status := range []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
		constants.OrderStatusReturned,
	} {
		if _, ok := orders.ByStatus[status]; !ok {
			orders.ByStatus[status] = 0
		}
	}
	topProducts := make([]AdminTopProduct, 0, len(ranking))
	for _, row := range ranking {
		topProducts = append(topProducts, AdminTopProduct{ProductID: row.ProductID, Name: row.Name, SoldCount: row.SoldCount})
	}

	stats := &AdminStats{
		TotalUsers:     users.Total,
		ActiveUsers:    users.Active,
		SuspendedUsers: users.Suspended,
		PendingUsers:   users.Pending,
		DeletedUsers:   users.Deleted,
		Orders: AdminOrderStats{
			Total:            orders.Total,
			ByStatus:         orders.ByStatus,
			Website:          orders.WebsiteOrders,
			Manual:           orders.ManualOrders,
			Recent:           orders.OrdersSince,
			RecentDays:       dashboardRecentDays,
			DeliveredRevenue: models.NewMoneyFromDecimal(orders.DeliveredRevenue),
		},
		Inventory: AdminStockStats{
			ActiveProducts:    stock.ActiveProducts,
			OutOfStockSizes:   stock.OutOfStockSizes,
			LowStockSizes:     stock.LowStockSizes,
			LowStockThreshold: dashboardLowStockLimit,
		},
		TopProducts: topProducts,
		GeneratedAt: now,
	}
	if err := cache.SetJSON(ctx, dashboardCacheKey, stats, dashboardCacheTTL); err != nil {
		log.Warnw("dashboard_cache_set_failed", "error", err)
	}
	return stats, nil
}

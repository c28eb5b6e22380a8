package repository

import (
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardRepository 后台统计聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetUserStats() (DashboardUserStatsRow, error)
	GetOrderStats(since time.Time) (DashboardOrderStatsRow, error)
	GetStockStats(lowStockThreshold int) (DashboardStockStatsRow, error)
	GetTopProducts(limit int) ([]DashboardProductRankingRow, error)
}

// DashboardUserStatsRow 用户统计
type DashboardUserStatsRow struct {
	Total     int64
	Active    int64
	Suspended int64
	Pending   int64
	Deleted   int64
}

// DashboardOrderStatsRow 订单统计
type DashboardOrderStatsRow struct {
	Total            int64
	ByStatus         map[string]int64
	WebsiteOrders    int64
	ManualOrders     int64
	OrdersSince      int64
	DeliveredRevenue decimal.Decimal
}

// DashboardStockStatsRow 库存统计（按规格计数）
type DashboardStockStatsRow struct {
	ActiveProducts  int64
	OutOfStockSizes int64
	LowStockSizes   int64
}

// DashboardProductRankingRow 商品销量排行
type DashboardProductRankingRow struct {
	ProductID uint
	Name      string
	SoldCount int64
}

// GormDashboardRepository GORM 统计实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建统计仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetUserStats 用户统计；pending 指邮箱尚未验证且未注销的账号
func (r *GormDashboardRepository) GetUserStats() (DashboardUserStatsRow, error) {
	result := DashboardUserStatsRow{}
	userBase := func() *gorm.DB {
		return r.db.Model(&models.User{})
	}

	if err := userBase().Count(&result.Total).Error; err != nil {
		return result, err
	}
	if err := userBase().
		Where("status = ? AND email_verified_at IS NOT NULL", constants.UserStatusActive).
		Count(&result.Active).Error; err != nil {
		return result, err
	}
	if err := userBase().Where("status = ?", constants.UserStatusSuspended).Count(&result.Suspended).Error; err != nil {
		return result, err
	}
	if err := userBase().
		Where("status <> ? AND email_verified_at IS NULL", constants.UserStatusDeleted).
		Count(&result.Pending).Error; err != nil {
		return result, err
	}
	if err := userBase().Where("status = ?", constants.UserStatusDeleted).Count(&result.Deleted).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetOrderStats 订单统计；OrdersSince 为 since 之后创建的订单数
func (r *GormDashboardRepository) GetOrderStats(since time.Time) (DashboardOrderStatsRow, error) {
	result := DashboardOrderStatsRow{ByStatus: map[string]int64{}}
	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{})
	}

	var statusRows []struct {
		Status string
		Total  int64
	}
	if err := orderBase().
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return result, err
	}
	for _, row := range statusRows {
		result.ByStatus[row.Status] = row.Total
		result.Total += row.Total
	}

	if err := orderBase().Where("source = ?", constants.OrderSourceWebsite).Count(&result.WebsiteOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("source = ?", constants.OrderSourceAdmin).Count(&result.ManualOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("created_at >= ?", since).Count(&result.OrdersSince).Error; err != nil {
		return result, err
	}

	var revenue struct {
		Total decimal.NullDecimal
	}
	if err := orderBase().
		Select("SUM(total) AS total").
		Where("status = ?", constants.OrderStatusDelivered).
		Scan(&revenue).Error; err != nil {
		return result, err
	}
	result.DeliveredRevenue = decimal.Zero
	if revenue.Total.Valid {
		result.DeliveredRevenue = revenue.Total.Decimal
	}
	return result, nil
}

// GetStockStats 上架商品数与缺货/低库存规格数
func (r *GormDashboardRepository) GetStockStats(lowStockThreshold int) (DashboardStockStatsRow, error) {
	result := DashboardStockStatsRow{}
	if err := r.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&result.ActiveProducts).Error; err != nil {
		return result, err
	}

	sizeBase := func() *gorm.DB {
		return r.db.Model(&models.ProductBottleSize{}).
			Joins("JOIN products ON products.id = product_bottle_sizes.product_id").
			Where("products.deleted_at IS NULL AND products.is_active = ?", true)
	}
	if err := sizeBase().Where("product_bottle_sizes.stock = 0").Count(&result.OutOfStockSizes).Error; err != nil {
		return result, err
	}
	if lowStockThreshold > 0 {
		if err := sizeBase().
			Where("product_bottle_sizes.stock > 0 AND product_bottle_sizes.stock <= ?", lowStockThreshold).
			Count(&result.LowStockSizes).Error; err != nil {
			return result, err
		}
	}
	return result, nil
}

// GetTopProducts 销量排行
func (r *GormDashboardRepository) GetTopProducts(limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []DashboardProductRankingRow
	err := r.db.Model(&models.Product{}).
		Select("id AS product_id, name, sold_count").
		Where("sold_count > 0").
		Order("sold_count DESC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

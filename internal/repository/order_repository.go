package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	MarkSoldCountApplied(id uint) (int64, error)
	SumDeliveredTotalByUser(userID uint) (decimal.Decimal, error)
	CountByUser(userID uint, source string, statuses []string) (int64, error)
	CreateReviewItems(items []models.OrderReviewItem) error
	GetReviewItem(orderID, productID uint) (*models.OrderReviewItem, error)
	MarkReviewItemReviewed(id uint, rating int, comment string, at time.Time) (int64, error)
	MarkReviewItemSkipped(id uint) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func withOrderDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("ReviewQueue", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// Create 创建订单（订单项与评价队列随关联一并写入）
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := withOrderDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 事务内加锁读取订单
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	if err := withOrderDetail(lockForUpdate(r.db)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func applyOrderFilter(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no = ?", strings.ToUpper(orderNo))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

func (r *GormOrderRepository) list(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := applyOrderFilter(r.db.Model(&models.Order{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := withOrderDetail(query).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return []models.Order{}, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.list(filter)
}

// TransitionStatus 比较并更新订单状态：仅当当前状态属于 from 时生效，返回受影响行数。
func (r *GormOrderRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error) {
	if id == 0 || to == "" {
		return 0, errors.New("invalid order transition params")
	}
	fields := map[string]interface{}{"status": to}
	for k, v := range updates {
		fields[k] = v
	}
	query := r.db.Model(&models.Order{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	result := query.Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// MarkSoldCountApplied 标记销量已累计；已标记时返回 0
func (r *GormOrderRepository) MarkSoldCountApplied(id uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND sold_count_applied = ?", id, false).
		Update("sold_count_applied", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumDeliveredTotalByUser 用户已签收订单总额
func (r *GormOrderRepository) SumDeliveredTotalByUser(userID uint) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.Model(&models.Order{}).
		Select("SUM(total) AS total").
		Where("user_id = ? AND status = ?", userID, constants.OrderStatusDelivered).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}

// CountByUser 统计用户指定来源与状态的订单数
func (r *GormOrderRepository) CountByUser(userID uint, source string, statuses []string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if source != "" {
		query = query.Where("source = ?", source)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateReviewItems 批量写入评价队列
func (r *GormOrderRepository) CreateReviewItems(items []models.OrderReviewItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// GetReviewItem 获取订单某商品的评价队列项
func (r *GormOrderRepository) GetReviewItem(orderID, productID uint) (*models.OrderReviewItem, error) {
	var item models.OrderReviewItem
	if err := r.db.Where("order_id = ? AND product_id = ?", orderID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// MarkReviewItemReviewed 条件标记已评价（未评价时生效）
func (r *GormOrderRepository) MarkReviewItemReviewed(id uint, rating int, comment string, at time.Time) (int64, error) {
	result := r.db.Model(&models.OrderReviewItem{}).
		Where("id = ? AND reviewed = ?", id, false).
		Updates(map[string]interface{}{
			"reviewed":    true,
			"skipped":     false,
			"reviewed_at": at,
			"rating":      rating,
			"comment":     comment,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkReviewItemSkipped 标记跳过评价
func (r *GormOrderRepository) MarkReviewItemSkipped(id uint) (int64, error) {
	result := r.db.Model(&models.OrderReviewItem{}).
		Where("id = ? AND reviewed = ?", id, false).
		Update("skipped", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

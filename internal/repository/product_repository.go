package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	TopSold() (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	UpdateFields(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	DecrementStock(productID uint, sizeMl int, qty int) (int64, error)
	RestoreStock(productID uint, sizeMl int, qty int) (int64, error)
	SetBottleSize(productID uint, sizeMl int, stock int, enabled bool) error
	AdjustInventoryQty(productID uint, delta int) error
	IncrementSoldCount(productID uint, qty int) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

func preloadBottleSizes(query *gorm.DB) *gorm.DB {
	return query.Preload("BottleSizes", func(db *gorm.DB) *gorm.DB {
		return db.Order("size_ml asc")
	})
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product
	query := r.db.Model(&models.Product{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Quality != "" {
		query = query.Where("quality = ?", filter.Quality)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(fmt.Sprintf("name %s ?", likeOperator(r.db)), "%"+search+"%")
	}
	if filter.OnlyAvailable {
		query = query.Where("EXISTS (SELECT 1 FROM product_bottle_sizes b WHERE b.product_id = products.id AND b.enabled = ? AND b.stock > 0)", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := preloadBottleSizes(query).Order("created_at desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID 根据 ID 获取商品（含规格库存）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := preloadBottleSizes(r.db).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	var product models.Product
	query := preloadBottleSizes(r.db).Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := preloadBottleSizes(r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// TopSold 销量最高的上架商品
func (r *GormProductRepository) TopSold() (*models.Product, error) {
	var product models.Product
	err := preloadBottleSizes(r.db).
		Where("is_active = ? AND sold_count > 0", true).
		Order("sold_count desc, id asc").
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品（连同规格）
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 保存商品基础字段（规格库存走专用方法）
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit(clause.Associations).Save(product).Error
}

// UpdateFields 更新指定字段
func (r *GormProductRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// DecrementStock 条件扣减规格库存（stock >= qty），扣至 0 时自动下架该规格，同步扣减总库存。
// 返回受影响行数，0 表示库存不足或规格不存在。
func (r *GormProductRepository) DecrementStock(productID uint, sizeMl int, qty int) (int64, error) {
	if productID == 0 || qty <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.ProductBottleSize{}).
		Where("product_id = ? AND size_ml = ? AND stock >= ?", productID, sizeMl, qty).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock - ?", qty),
			"enabled": gorm.Expr("CASE WHEN stock - ? > 0 THEN enabled ELSE ? END", qty, false),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	if err := r.AdjustInventoryQty(productID, -qty); err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

// RestoreStock 回补规格库存；从 0 回补时重新启用该规格。
func (r *GormProductRepository) RestoreStock(productID uint, sizeMl int, qty int) (int64, error) {
	if productID == 0 || qty <= 0 {
		return 0, errors.New("invalid stock restore params")
	}
	result := r.db.Model(&models.ProductBottleSize{}).
		Where("product_id = ? AND size_ml = ?", productID, sizeMl).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock + ?", qty),
			"enabled": gorm.Expr("CASE WHEN stock = 0 THEN ? ELSE enabled END", true),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	if err := r.AdjustInventoryQty(productID, qty); err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

// SetBottleSize 写入规格库存与可售状态（不存在则创建）
func (r *GormProductRepository) SetBottleSize(productID uint, sizeMl int, stock int, enabled bool) error {
	if stock < 0 {
		return errors.New("stock must not be negative")
	}
	row := models.ProductBottleSize{
		ProductID: productID,
		SizeMl:    sizeMl,
		Stock:     stock,
		Enabled:   enabled && stock > 0,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "size_ml"}},
		DoUpdates: clause.AssignmentColumns([]string{"stock", "enabled", "updated_at"}),
	}).Create(&row).Error
}

// AdjustInventoryQty 调整总库存，结果不低于 0
func (r *GormProductRepository) AdjustInventoryQty(productID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr("inventory_qty + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN inventory_qty >= ? THEN inventory_qty - ? ELSE 0 END", -delta, -delta)
	}
	return r.db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("inventory_qty", expr).Error
}

// IncrementSoldCount 累加销量
func (r *GormProductRepository) IncrementSoldCount(productID uint, qty int) error {
	if productID == 0 || qty <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("sold_count", gorm.Expr("sold_count + ?", qty)).Error
}

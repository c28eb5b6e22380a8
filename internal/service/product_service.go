package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/pricing"
	"github.com/scentshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	qualityNormal   = "normal"
	qualityOriginal = "original"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces       = regexp.MustCompile(`\s+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ProductInput 创建/更新商品输入，指针字段为空表示不修改
type ProductInput struct {
	Name                  *string                `json:"name"`
	Quality               *string                `json:"quality"`
	Description           *string                `json:"description"`
	FragranceVariants     []string               `json:"fragrance_variants"`
	Notes                 map[string]interface{} `json:"notes"`
	Attributes            map[string]interface{} `json:"attributes"`
	Images                []string               `json:"images"`
	BasePrice             *decimal.Decimal       `json:"base_price"`
	Size3Percent          *decimal.Decimal       `json:"size3_percent"`
	Size12Percent         *decimal.Decimal       `json:"size12_percent"`
	DiscountBasePercent   *decimal.NullDecimal   `json:"discount_base_percent"`
	DiscountSize3Percent  *decimal.NullDecimal   `json:"discount_size3_percent"`
	DiscountSize12Percent *decimal.NullDecimal   `json:"discount_size12_percent"`
	IsActive              *bool                  `json:"is_active"`
	InitialStock          int                    `json:"initial_stock"`
}

// StockUpdateInput 单规格库存调整
type StockUpdateInput struct {
	SizeMl  int   `json:"size_ml"`
	Stock   int   `json:"stock"`
	Enabled *bool `json:"enabled"`
}

// ListPublic 公开商品列表，仅包含有可售规格的上架商品
func (s *ProductService) ListPublic(search, quality string, page, pageSize int) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(repository.ProductListFilter{
		Page:          page,
		PageSize:      pageSize,
		Search:        search,
		Quality:       normalizeQualityFilter(quality),
		OnlyActive:    true,
		OnlyAvailable: true,
	})
	if err != nil {
		return nil, 0, err
	}
	fillProductPrices(products)
	return products, total, nil
}

// GetPublicBySlug 公开商品详情（含价格表）
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	product.FillPrices()
	return product, nil
}

// TopSold 销量最高的商品，没有售出记录时返回 nil
func (s *ProductService) TopSold() (*models.Product, error) {
	product, err := s.repo.TopSold()
	if err != nil {
		return nil, err
	}
	product.FillPrices()
	return product, nil
}

// ListAdmin 后台商品列表
func (s *ProductService) ListAdmin(actor Actor, search, quality string, page, pageSize int) ([]models.Product, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	products, total, err := s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
		Quality:  normalizeQualityFilter(quality),
	})
	if err != nil {
		return nil, 0, err
	}
	fillProductPrices(products)
	return products, total, nil
}

// GetAdmin 后台商品详情
func (s *ProductService) GetAdmin(actor Actor, id uint) (*models.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	product.FillPrices()
	return product, nil
}

// Create 创建商品，三个规格均以初始库存写入
func (s *ProductService) Create(ctx context.Context, actor Actor, input ProductInput) (*models.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if input.BasePrice == nil || input.BasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if input.InitialStock < 0 {
		return nil, ErrInvalidStock
	}

	defaults := pricing.DefaultSizePercentages()
	product := &models.Product{
		Name:              name,
		Slug:              "tmp-" + uuid.NewString(),
		Quality:           qualityNormal,
		FragranceVariants: models.StringArray(input.FragranceVariants),
		NotesJSON:         models.JSON(input.Notes),
		AttributesJSON:    models.JSON(input.Attributes),
		Images:            models.StringArray(input.Images),
		BasePrice:         models.NewMoneyFromDecimal(*input.BasePrice),
		Size3Percent:      defaults.Size3,
		Size12Percent:     defaults.Size12,
		InventoryQty:      input.InitialStock * len(pricing.Sizes),
		IsActive:          true,
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	for _, size := range pricing.Sizes {
		product.BottleSizes = append(product.BottleSizes, models.ProductBottleSize{
			SizeMl:  size,
			Stock:   input.InitialStock,
			Enabled: input.InitialStock > 0,
		})
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(product); err != nil {
			return err
		}
		product.Slug = buildProductSlug(product.Name, product.ID)
		return repo.UpdateFields(product.ID, map[string]interface{}{"slug": product.Slug})
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("product_created", "product_id", product.ID, "slug", product.Slug)
	product.FillPrices()
	return product, nil
}

// Update 部分更新商品，改名时重新生成 slug
func (s *ProductService) Update(ctx context.Context, actor Actor, id uint, input ProductInput) (*models.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProductNameRequired
		}
		if name != product.Name {
			product.Name = name
			product.Slug = buildProductSlug(name, product.ID)
		}
	}
	if input.BasePrice != nil {
		if input.BasePrice.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidPrice
		}
		product.BasePrice = models.NewMoneyFromDecimal(*input.BasePrice)
	}
	if input.FragranceVariants != nil {
		product.FragranceVariants = models.StringArray(input.FragranceVariants)
	}
	if input.Notes != nil {
		product.NotesJSON = models.JSON(input.Notes)
	}
	if input.Attributes != nil {
		product.AttributesJSON = models.JSON(input.Attributes)
	}
	if input.Images != nil {
		product.Images = models.StringArray(input.Images)
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	bottleSizes := product.BottleSizes
	product.BottleSizes = nil
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	product.BottleSizes = bottleSizes
	logger.FromContext(ctx).Infow("product_updated", "product_id", product.ID)
	product.FillPrices()
	return product, nil
}

// UpdateStock 调整单个规格库存与可售状态
func (s *ProductService) UpdateStock(ctx context.Context, actor Actor, id uint, input StockUpdateInput) (*models.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !isSellableSize(input.SizeMl) {
		return nil, ErrInvalidSize
	}
	if input.Stock < 0 {
		return nil, ErrInvalidStock
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		previousStock, previousEnabled := 0, false
		if current := product.BottleSize(input.SizeMl); current != nil {
			previousStock, previousEnabled = current.Stock, current.Enabled
		}
		enabled, err := resolveSizeEnabled(previousStock, previousEnabled, input.Stock, input.Enabled)
		if err != nil {
			return err
		}
		if err := repo.SetBottleSize(id, input.SizeMl, input.Stock, enabled); err != nil {
			return err
		}
		return repo.AdjustInventoryQty(id, input.Stock-previousStock)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("product_stock_updated", "product_id", id, "size_ml", input.SizeMl, "stock", input.Stock)

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	product.FillPrices()
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("product_deleted", "product_id", id)
	return nil
}

// resolveSizeEnabled 库存为 0 强制停售；0 -> 正数自动启用；显式启用需有库存
func resolveSizeEnabled(previousStock int, previousEnabled bool, stock int, requested *bool) (bool, error) {
	if stock == 0 {
		if requested != nil && *requested {
			return false, ErrEnableEmptySize
		}
		return false, nil
	}
	if requested != nil {
		return *requested, nil
	}
	if previousStock == 0 {
		return true, nil
	}
	return previousEnabled, nil
}

func applyProductInput(product *models.Product, input ProductInput) error {
	if input.Quality != nil {
		quality := strings.ToLower(strings.TrimSpace(*input.Quality))
		if quality != qualityNormal && quality != qualityOriginal {
			return ErrInvalidSettingValue
		}
		product.Quality = quality
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Size3Percent != nil {
		product.Size3Percent = *input.Size3Percent
	}
	if input.Size12Percent != nil {
		product.Size12Percent = *input.Size12Percent
	}
	for _, discount := range []struct {
		in  *decimal.NullDecimal
		out *decimal.NullDecimal
	}{
		{input.DiscountBasePercent, &product.DiscountBasePercent},
		{input.DiscountSize3Percent, &product.DiscountSize3Percent},
		{input.DiscountSize12Percent, &product.DiscountSize12Percent},
	} {
		if discount.in == nil {
			continue
		}
		if discount.in.Valid && (discount.in.Decimal.IsNegative() || discount.in.Decimal.GreaterThan(decimal.NewFromInt(100))) {
			return ErrInvalidPrice
		}
		*discount.out = *discount.in
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}

// buildProductSlug 名称转小写短横线形式并追加 ID 后缀
func buildProductSlug(name string, id uint) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = slugInvalidChars.ReplaceAllString(base, "")
	base = slugSpaces.ReplaceAllString(base, "-")
	base = slugDashes.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	suffix := strconv.FormatUint(uint64(id), 10)
	if base == "" {
		return "product-" + suffix
	}
	return base + "-" + suffix
}

func isSellableSize(sizeMl int) bool {
	for _, size := range pricing.Sizes {
		if size == sizeMl {
			return true
		}
	}
	return false
}

func normalizeQualityFilter(quality string) string {
	quality = strings.ToLower(strings.TrimSpace(quality))
	if quality == qualityNormal || quality == qualityOriginal {
		return quality
	}
	return ""
}

func fillProductPrices(products []models.Product) {
	for i := range products {
		products[i].FillPrices()
	}
}

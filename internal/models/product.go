package models

import (
	"time"

	"github.com/scentshop/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 香水商品表
type Product struct {
	ID                    uint                `gorm:"primarykey" json:"id"`                                             // 主键
	Name                  string              `gorm:"type:varchar(200);not null" json:"name"`                           // 名称
	Slug                  string              `gorm:"uniqueIndex;not null" json:"slug"`                                 // 唯一标识（名称 + ID 后缀）
	Quality               string              `gorm:"type:varchar(20);not null;default:'normal'" json:"quality"`        // 品质（normal/original）
	Description           string              `gorm:"type:text" json:"description"`                                     // 描述
	FragranceVariants     StringArray         `gorm:"type:json" json:"fragrance_variants"`                              // 香型变体
	NotesJSON             JSON                `gorm:"type:json" json:"notes"`                                           // 前中后调
	AttributesJSON        JSON                `gorm:"type:json" json:"attributes"`                                      // 属性（持久/无酒精等）
	Images                StringArray         `gorm:"type:json" json:"images"`                                          // 图片
	BasePrice             Money               `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`          // 6ml 基准价
	Size3Percent          decimal.Decimal     `gorm:"type:decimal(8,2);not null" json:"size3_percent"`                  // 3ml 相对基准浮动 %
	Size12Percent         decimal.Decimal     `gorm:"type:decimal(8,2);not null" json:"size12_percent"`                 // 12ml 相对基准浮动 %
	DiscountBasePercent   decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"discount_base_percent"`                   // 6ml 折扣 %
	DiscountSize3Percent  decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"discount_size3_percent"`                  // 3ml 折扣 %
	DiscountSize12Percent decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"discount_size12_percent"`                 // 12ml 折扣 %
	InventoryQty          int                 `gorm:"not null;default:0" json:"inventory_qty"`                          // 总库存（随规格库存同步增减）
	SoldCount             int                 `gorm:"not null;default:0;index" json:"sold_count"`                       // 已售数量（签收时累加）
	IsActive              bool                `gorm:"default:true;index" json:"is_active"`                              // 是否上架
	CreatedAt             time.Time           `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt             time.Time           `json:"updated_at"`                                                       // 更新时间
	DeletedAt             gorm.DeletedAt      `gorm:"index" json:"-"`                                                   // 软删除时间
	BottleSizes           []ProductBottleSize `gorm:"foreignKey:ProductID" json:"bottle_sizes,omitempty"`               // 规格库存
	Prices                pricing.Table       `gorm:"-" json:"prices,omitempty"`                                        // 价格表（计算得出）
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// PricingInput 转换为价格计算输入
func (p *Product) PricingInput() pricing.Input {
	return pricing.Input{
		Base6ml: p.BasePrice.Decimal,
		SizePercentages: &pricing.SizePercentages{
			Size3:  p.Size3Percent,
			Size12: p.Size12Percent,
		},
		DiscountPercentages: pricing.DiscountPercentages{
			Base:   p.DiscountBasePercent,
			Size3:  p.DiscountSize3Percent,
			Size12: p.DiscountSize12Percent,
		},
	}
}

// FillPrices 计算并填充价格表
func (p *Product) FillPrices() {
	if p == nil {
		return
	}
	p.Prices = pricing.Calculate(p.PricingInput())
}

// BottleSize 按容量查找规格
func (p *Product) BottleSize(sizeMl int) *ProductBottleSize {
	if p == nil {
		return nil
	}
	for i := range p.BottleSizes {
		if p.BottleSizes[i].SizeMl == sizeMl {
			return &p.BottleSizes[i]
		}
	}
	return nil
}

// ProductBottleSize 商品规格库存表
type ProductBottleSize struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                 // 主键
	ProductID uint      `gorm:"not null;uniqueIndex:idx_bottle_product_size" json:"product_id"`        // 商品ID
	SizeMl    int       `gorm:"not null;uniqueIndex:idx_bottle_product_size" json:"size_ml"`           // 容量（3/6/12）
	Stock     int       `gorm:"not null;default:0" json:"stock"`                                      // 库存
	Enabled   bool      `gorm:"not null;default:false" json:"enabled"`                                // 是否可售（库存为 0 时必为 false）
	UpdatedAt time.Time `json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (ProductBottleSize) TableName() string {
	return "product_bottle_sizes"
}

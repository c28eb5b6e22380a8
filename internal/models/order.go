package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID               uint              `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo          string            `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID           *uint             `gorm:"index" json:"user_id"`                                         // 下单用户（后台手工单为空）
	Source           string            `gorm:"type:varchar(20);not null;default:'website'" json:"source"`    // 来源（website/admin）
	Status           string            `gorm:"type:varchar(20);index;not null" json:"order_status"`          // 订单状态
	PaymentMethod    string            `gorm:"type:varchar(20)" json:"payment_method"`                       // 支付方式（online/cash/manual，空为未选择）
	PaymentStatus    string            `gorm:"type:varchar(20);not null" json:"payment_status"`              // 支付状态
	Subtotal         Money             `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DeliveryCharge   Money             `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_charge"` // 运费
	LoyaltyTier      string            `gorm:"type:varchar(20)" json:"loyalty_tier"`                         // 下单时会员等级
	LoyaltyPercent   decimal.Decimal   `gorm:"type:decimal(8,2);not null;default:0" json:"loyalty_percent"`  // 会员折扣 %
	LoyaltyDiscount  Money             `gorm:"type:decimal(20,2);not null;default:0" json:"loyalty_discount"` // 会员折扣金额
	Total            Money             `gorm:"type:decimal(20,2);not null;default:0;index" json:"total"`     // 应付总额
	Customer         CustomerSnapshot  `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`            // 收货信息快照
	Notes            string            `gorm:"type:text" json:"notes,omitempty"`                             // 备注（后台手工单）
	SoldCountApplied bool              `gorm:"not null;default:false" json:"-"`                              // 销量是否已累计
	ConfirmedAt      *time.Time        `json:"confirmed_at"`                                                 // 确认时间
	ShippedAt        *time.Time        `json:"shipped_at"`                                                   // 发货时间
	DeliveredAt      *time.Time        `gorm:"index" json:"delivered_at"`                                    // 签收时间
	CancelledAt      *time.Time        `json:"cancelled_at"`                                                 // 取消时间
	ReturnedAt       *time.Time        `json:"returned_at"`                                                  // 退货时间
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt        time.Time         `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`                                               // 软删除时间
	Items            []OrderItem       `gorm:"foreignKey:OrderID" json:"items,omitempty"`                    // 订单项快照
	ReviewQueue      []OrderReviewItem `gorm:"foreignKey:OrderID" json:"review_queue,omitempty"`             // 待评价队列
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OwnedBy 判断订单是否属于指定用户
func (o *Order) OwnedBy(userID uint) bool {
	return o != nil && o.UserID != nil && *o.UserID == userID
}

// Code 订单展示编号：#ORD- + 订单号后 6 位
func (o *Order) Code() string {
	if o == nil {
		return ""
	}
	no := strings.ToUpper(o.OrderNo)
	if len(no) > 6 {
		no = no[len(no)-6:]
	}
	return "#ORD-" + no
}

// CustomerSnapshot 收货信息快照（与用户资料解耦）
type CustomerSnapshot struct {
	Name    string `gorm:"type:varchar(100)" json:"name"`
	Phone   string `gorm:"type:varchar(40)" json:"phone"`
	Email   string `gorm:"type:varchar(200)" json:"email"`
	Address string `gorm:"type:varchar(500)" json:"address"`
	City    string `gorm:"type:varchar(100)" json:"city"`
	Note    string `gorm:"type:varchar(500)" json:"note"`
}

// OrderItem 订单项快照（下单时冻结，不随商品变化）
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`                            // 订单ID
	ProductID uint      `gorm:"index" json:"product_id"`                                   // 商品ID（手工单自定义商品为 0）
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`                    // 商品名快照
	Size      string    `gorm:"type:varchar(20);not null" json:"size"`                     // 规格文本（6ml/manual）
	SizeMl    int       `gorm:"not null;default:0" json:"size_ml"`                         // 规格容量（手工规格为 0）
	Qty       int       `gorm:"not null" json:"qty"`                                       // 数量
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价快照
	LineTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`   // 行小计
	Variant   string    `gorm:"type:varchar(100)" json:"variant"`                          // 香型变体
	Image     string    `gorm:"type:varchar(500)" json:"image"`                            // 图片快照
	CreatedAt time.Time `json:"created_at"`                                                // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// TracksStock 是否参与规格库存
func (i OrderItem) TracksStock() bool {
	return i.ProductID != 0 && i.SizeMl > 0
}

// OrderReviewItem 订单待评价队列项（每个商品一条）
type OrderReviewItem struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID    uint       `gorm:"not null;uniqueIndex:idx_review_queue_order_product" json:"order_id"`   // 订单ID
	ProductID  uint       `gorm:"not null;uniqueIndex:idx_review_queue_order_product" json:"product_id"` // 商品ID
	Reviewed   bool       `gorm:"not null;default:false" json:"reviewed"`                        // 是否已评价
	Skipped    bool       `gorm:"not null;default:false" json:"skipped"`                         // 是否跳过
	ReviewedAt *time.Time `json:"reviewed_at"`                                                   // 评价时间
	Rating     int        `gorm:"not null;default:0" json:"rating"`                              // 评分
	Comment    string     `gorm:"type:text" json:"comment"`                                      // 评价内容
}

// TableName 指定表名
func (OrderReviewItem) TableName() string {
	return "order_review_items"
}

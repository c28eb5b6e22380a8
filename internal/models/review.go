package models

import "time"

// Review 商品评价表
type Review struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                           // 主键
	ProductID  uint      `gorm:"not null;index;uniqueIndex:idx_review_user_order_product" json:"product_id"` // 商品ID
	UserID     uint      `gorm:"not null;uniqueIndex:idx_review_user_order_product" json:"user_id"`          // 评价用户
	OrderID    uint      `gorm:"not null;uniqueIndex:idx_review_user_order_product" json:"order_id"`         // 来源订单
	UserName   string    `gorm:"type:varchar(100)" json:"user_name"`                             // 评价人名称快照
	Rating     int       `gorm:"not null" json:"rating"`                                         // 评分 1-5
	Comment    string    `gorm:"type:text" json:"comment"`                                       // 评价内容
	AdminReply *string   `gorm:"type:text" json:"admin_reply"`                                   // 管理员回复
	Featured   bool      `gorm:"not null;default:false;index" json:"featured"`                   // 是否精选
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}

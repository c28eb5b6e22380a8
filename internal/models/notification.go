package models

import "time"

// Notification 站内通知表
type Notification struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	RecipientType string    `gorm:"type:varchar(20);not null;index" json:"recipient_type"`       // 接收方类型（admin/user）
	RecipientID   *uint     `gorm:"index" json:"recipient_id"`                                   // 接收方ID（为空表示全部管理员）
	Event         string    `gorm:"type:varchar(40);not null" json:"event"`                      // 事件类型
	Title         string    `gorm:"type:varchar(200);not null" json:"title"`                     // 标题
	Message       string    `gorm:"type:text" json:"message"`                                    // 内容
	OrderID       *uint     `gorm:"index" json:"order_id"`                                       // 关联订单
	IsRead        bool      `gorm:"not null;default:false;index" json:"is_read"`                 // 是否已读
	ExpiresAt     time.Time `gorm:"index;not null" json:"expires_at"`                            // 过期时间
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

package models

import "time"

// OutboxEvent 订单事件出站表（与状态变更同事务写入）
type OutboxEvent struct {
	ID           uint        `gorm:"primarykey" json:"id"`                                     // 主键
	Event        string      `gorm:"type:varchar(40);not null" json:"event"`                   // 事件类型
	OrderID      uint        `gorm:"not null;index" json:"order_id"`                           // 订单ID
	Actor        string      `gorm:"type:varchar(20);not null" json:"actor"`                   // 操作方（user/admin）
	Status       string      `gorm:"type:varchar(20);not null;index" json:"status"`            // 状态（pending/done/failed）
	Attempts     int         `gorm:"not null;default:0" json:"attempts"`                       // 已尝试次数
	InAppDone    bool        `gorm:"not null;default:false" json:"in_app_done"`                // 站内通知是否已生成
	SentChannels StringArray `gorm:"type:json" json:"sent_channels"`                           // 已发送的外部渠道
	LastError    string      `gorm:"type:text" json:"last_error,omitempty"`                    // 最近一次错误
	DispatchedAt *time.Time  `json:"dispatched_at"`                                            // 完成时间
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time   `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

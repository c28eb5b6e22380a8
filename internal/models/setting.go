package models

import "time"

// AdminSetting 后台通知设置（单例，ID 固定为 1）
type AdminSetting struct {
	ID                uint      `gorm:"primarykey;autoIncrement:false" json:"-"`              // 固定主键
	NotificationEmail string    `gorm:"type:varchar(200)" json:"notification_email"`          // 管理员通知邮箱
	WhatsAppNumber    string    `gorm:"type:varchar(40)" json:"whatsapp_number"`              // 管理员 WhatsApp 号码
	EmailEnabled      bool      `gorm:"not null;default:true" json:"email_enabled"`           // 邮件渠道开关
	WhatsAppEnabled   bool      `gorm:"not null;default:true" json:"whatsapp_enabled"`        // WhatsApp 渠道开关
	UpdatedAt         time.Time `json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (AdminSetting) TableName() string {
	return "admin_settings"
}

// DefaultAdminSetting 默认设置
func DefaultAdminSetting() AdminSetting {
	return AdminSetting{
		NotificationEmail: "admin@example.com",
		EmailEnabled:      true,
		WhatsAppEnabled:   true,
	}
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// EmailVerifyCode 邮箱验证码（邮箱验证与找回密码共用）
type EmailVerifyCode struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                   // 主键
	Email        string         `gorm:"index:idx_verify_code_lookup;not null" json:"email"`     // 邮箱
	UserID       uint           `gorm:"index;not null" json:"user_id"`                          // 关联用户
	Purpose      string         `gorm:"index:idx_verify_code_lookup;not null" json:"purpose"`   // 用途（verify/reset）
	Code         string         `gorm:"type:varchar(16);not null" json:"-"`                     // 验证码
	ExpiresAt    time.Time      `json:"expires_at"`                                             // 过期时间
	VerifiedAt   *time.Time     `json:"verified_at"`                                            // 使用时间
	AttemptCount int            `gorm:"not null;default:0" json:"attempt_count"`                // 错误尝试次数
	SentAt       time.Time      `gorm:"index" json:"sent_at"`                                   // 发送时间
	CreatedAt    time.Time      `json:"created_at"`                                             // 创建时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (EmailVerifyCode) TableName() string {
	return "email_verify_codes"
}

// Usable 未使用且未过期
func (c *EmailVerifyCode) Usable(now time.Time) bool {
	return c != nil && c.VerifiedAt == nil && now.Before(c.ExpiresAt)
}

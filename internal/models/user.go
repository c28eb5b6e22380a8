package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（管理员与顾客共用，按 Role 区分）
type User struct {
	ID              uint            `gorm:"primarykey" json:"id"`                                           // 主键
	Name            string          `gorm:"type:varchar(100)" json:"name"`                                  // 姓名
	Email           string          `gorm:"uniqueIndex;not null" json:"email"`                              // 邮箱
	Phone           string          `gorm:"type:varchar(40)" json:"phone"`                                  // 电话
	Address         string          `gorm:"type:varchar(500)" json:"address"`                               // 地址
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`                               // 后台备注
	Profile         ProfileDetails  `gorm:"embedded;embeddedPrefix:profile_" json:"profile_details"`        // 资料补充
	SavedCheckout   CheckoutDetails `gorm:"embedded;embeddedPrefix:checkout_" json:"saved_checkout"`        // 常用收货信息
	PasswordHash    string          `json:"-"`                                                              // 密码哈希（为空表示尚未设置）
	Role            string          `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`     // 角色（user/admin）
	Status          string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`       // 账号状态
	LoyaltyTier     string          `gorm:"type:varchar(20);not null;default:'bronze'" json:"loyalty_tier"` // 会员等级
	LoyaltyMode     string          `gorm:"type:varchar(20);not null;default:'auto'" json:"loyalty_mode"`   // 等级模式（auto/manual）
	TokenVersion    uint64          `gorm:"not null;default:0" json:"-"`                                    // Token 版本（改密、登出全部设备、停用时递增）
	EmailVerifiedAt *time.Time      `gorm:"index" json:"email_verified_at"`                                 // 邮箱验证时间
	LastLoginAt     *time.Time      `json:"last_login_at"`                                                  // 最后登录时间
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time       `json:"updated_at"`                                                     // 更新时间
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`                                                 // 软删除时间
}

// ProfileDetails 用户资料中的地区信息
type ProfileDetails struct {
	Province   string `gorm:"type:varchar(100)" json:"province"`
	District   string `gorm:"type:varchar(100)" json:"district"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// CheckoutDetails 保存的结账信息，与账号姓名互相独立
type CheckoutDetails struct {
	Name       string `gorm:"type:varchar(100)" json:"name"`
	Phone      string `gorm:"type:varchar(40)" json:"phone"`
	Address    string `gorm:"type:varchar(500)" json:"address"`
	Province   string `gorm:"type:varchar(100)" json:"province"`
	District   string `gorm:"type:varchar(100)" json:"district"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasPassword 是否已设置登录密码
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// EmailVerified 邮箱是否已验证
func (u *User) EmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

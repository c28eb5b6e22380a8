package models

import (
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

const defaultAdminPassword = "admin123"

// InitDefaultAdmin 初始化默认管理员账号（已存在管理员时跳过）
func InitDefaultAdmin(email, password string) error {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	verifiedAt := time.Now()
	admin := User{
		Name:            "Administrator",
		Email:           email,
		PasswordHash:    string(hash),
		Role:            constants.RoleAdmin,
		Status:          constants.UserStatusActive,
		LoyaltyTier:     constants.TierBronze,
		LoyaltyMode:     constants.LoyaltyModeManual,
		EmailVerifiedAt: &verifiedAt,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}

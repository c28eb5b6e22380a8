package cache

import (
	"context"
	"time"

	"github.com/scentshop/internal/models"
)

const (
	adminSettingKey      = "settings:admin"
	adminSettingCacheTTL = 30 * time.Minute
)

// GetAdminSetting 读取后台通知设置缓存
func GetAdminSetting(ctx context.Context) (*models.AdminSetting, bool, error) {
	var setting models.AdminSetting
	hit, err := GetJSON(ctx, adminSettingKey, &setting)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &setting, true, nil
}

// SetAdminSetting 写入后台通知设置缓存
func SetAdminSetting(ctx context.Context, setting *models.AdminSetting) error {
	if setting == nil {
		return nil
	}
	return SetJSON(ctx, adminSettingKey, setting, adminSettingCacheTTL)
}

// DelAdminSetting 失效后台通知设置缓存
func DelAdminSetting(ctx context.Context) error {
	return Del(ctx, adminSettingKey)
}

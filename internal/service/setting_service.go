package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/scentshop/internal/cache"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"
)

// AdminSettingService 后台通知设置服务
type AdminSettingService struct {
	repo repository.SettingRepository
}

// NewAdminSettingService 创建后台通知设置服务
func NewAdminSettingService(repo repository.SettingRepository) *AdminSettingService {
	return &AdminSettingService{repo: repo}
}

// Ensure 启动时以 upsert 保证单例存在
func (s *AdminSettingService) Ensure(ctx context.Context) (*models.AdminSetting, error) {
	setting, err := s.repo.EnsureAdminSetting(models.DefaultAdminSetting())
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, setting)
	return setting, nil
}

// Get 读取设置，优先走缓存
func (s *AdminSettingService) Get(ctx context.Context) (*models.AdminSetting, error) {
	if cached, hit, err := cache.GetAdminSetting(ctx); err != nil {
		logger.FromContext(ctx).Warnw("admin_setting_cache_get_failed", "error", err)
	} else if hit {
		return cached, nil
	}
	setting, err := s.repo.GetAdminSetting()
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return s.Ensure(ctx)
	}
	s.writeCache(ctx, setting)
	return setting, nil
}

// GetOrDefault 读取失败时回退默认设置
func (s *AdminSettingService) GetOrDefault(ctx context.Context) models.AdminSetting {
	setting, err := s.Get(ctx)
	if err != nil || setting == nil {
		if err != nil {
			logger.FromContext(ctx).Warnw("admin_setting_fallback_default", "error", err)
		}
		return models.DefaultAdminSetting()
	}
	return *setting
}

// AdminChannelsPatch 渠道开关补丁
type AdminChannelsPatch struct {
	Email    *bool `json:"email"`
	WhatsApp *bool `json:"whatsapp"`
}

// AdminSettingPatch 后台通知设置补丁，nil 字段保持不变
type AdminSettingPatch struct {
	NotificationEmail *string             `json:"notification_email"`
	WhatsAppNumber    *string             `json:"whatsapp_number"`
	Channels          *AdminChannelsPatch `json:"channels"`
}

// updates 转换为待写入字段
func (p AdminSettingPatch) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if p.NotificationEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*p.NotificationEmail))
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, ErrInvalidEmail
			}
		}
		updates["notification_email"] = email
	}
	if p.WhatsAppNumber != nil {
		number := normalizePhoneNumber(*p.WhatsAppNumber)
		if strings.TrimSpace(*p.WhatsAppNumber) != "" && number == "" {
			return nil, ErrInvalidSettingValue
		}
		updates["whatsapp_number"] = number
	}
	if p.Channels != nil {
		if p.Channels.Email != nil {
			updates["email_enabled"] = *p.Channels.Email
		}
		if p.Channels.WhatsApp != nil {
			updates["whatsapp_enabled"] = *p.Channels.WhatsApp
		}
	}
	return updates, nil
}

// Update 更新设置并失效缓存
func (s *AdminSettingService) Update(ctx context.Context, actor Actor, patch AdminSettingPatch) (*models.AdminSetting, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	updates, err := patch.updates()
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.EnsureAdminSetting(models.DefaultAdminSetting()); err != nil {
		return nil, err
	}
	setting, err := s.repo.UpdateAdminSetting(updates)
	if err != nil {
		return nil, err
	}
	if err := cache.DelAdminSetting(ctx); err != nil {
		logger.FromContext(ctx).Warnw("admin_setting_cache_invalidate_failed", "error", err)
	}
	logger.FromContext(ctx).Infow("admin_setting_updated", "admin_id", actor.UserID, "fields", len(updates))
	return setting, nil
}

func (s *AdminSettingService) writeCache(ctx context.Context, setting *models.AdminSetting) {
	if err := cache.SetAdminSetting(ctx, setting); err != nil {
		logger.FromContext(ctx).Warnw("admin_setting_cache_set_failed", "error", err)
	}
}

// normalizePhoneNumber 仅保留数字，允许前导 +
func normalizePhoneNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return ""
		}
	}
	return b.String()
}

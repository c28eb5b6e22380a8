package repository

import (
	"errors"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository 后台通知设置数据访问接口
type SettingRepository interface {
	EnsureAdminSetting(defaults models.AdminSetting) (*models.AdminSetting, error)
	GetAdminSetting() (*models.AdminSetting, error)
	UpdateAdminSetting(updates map[string]interface{}) (*models.AdminSetting, error)
}

// GormSettingRepository GORM 实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓库
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// EnsureAdminSetting 以 upsert 方式保证单例存在，已存在时保持原值
func (r *GormSettingRepository) EnsureAdminSetting(defaults models.AdminSetting) (*models.AdminSetting, error) {
	defaults.ID = constants.SettingKeyAdmin
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&defaults).Error
	if err != nil {
		return nil, err
	}
	return r.GetAdminSetting()
}

// GetAdminSetting 获取单例设置，不存在返回 nil
func (r *GormSettingRepository) GetAdminSetting() (*models.AdminSetting, error) {
	var setting models.AdminSetting
	if err := r.db.First(&setting, constants.SettingKeyAdmin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// UpdateAdminSetting 更新设置字段
func (r *GormSettingRepository) UpdateAdminSetting(updates map[string]interface{}) (*models.AdminSetting, error) {
	if len(updates) > 0 {
		if err := r.db.Model(&models.AdminSetting{}).
			Where("id = ?", constants.SettingKeyAdmin).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.GetAdminSetting()
}

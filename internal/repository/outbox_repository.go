package repository

import (
	"errors"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository 出站事件数据访问接口
type OutboxRepository interface {
	Create(event *models.OutboxEvent) error
	GetByID(id uint) (*models.OutboxEvent, error)
	ListPending(createdBefore time.Time, limit int) ([]models.OutboxEvent, error)
	MarkInAppDone(id uint) (int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) OutboxRepository
}

// GormOutboxRepository GORM 实现
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建出站事件仓库
func NewOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) OutboxRepository {
	if tx == nil {
		return r
	}
	return &GormOutboxRepository{db: tx}
}

// Create 写入事件
func (r *GormOutboxRepository) Create(event *models.OutboxEvent) error {
	if event.Status == "" {
		event.Status = constants.OutboxStatusPending
	}
	return r.db.Create(event).Error
}

// GetByID 获取事件
func (r *GormOutboxRepository) GetByID(id uint) (*models.OutboxEvent, error) {
	var event models.OutboxEvent
	if err := r.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListPending 早于指定时间仍未完成的事件
func (r *GormOutboxRepository) ListPending(createdBefore time.Time, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.OutboxEvent
	err := r.db.Where("status = ? AND created_at <= ?", constants.OutboxStatusPending, createdBefore).
		Order("id asc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkInAppDone 条件标记站内通知已生成，已标记返回 0
func (r *GormOutboxRepository) MarkInAppDone(id uint) (int64, error) {
	result := r.db.Model(&models.OutboxEvent{}).
		Where("id = ? AND in_app_done = ?", id, false).
		Update("in_app_done", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateFields 更新事件字段
func (r *GormOutboxRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
}

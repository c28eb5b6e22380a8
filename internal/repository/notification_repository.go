package repository

import (
	"errors"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	CreateBatch(rows []models.Notification) error
	ListForRecipient(filter NotificationFilter) ([]models.Notification, error)
	CountUnread(filter NotificationFilter) (int64, error)
	GetByID(id uint) (*models.Notification, error)
	MarkRead(id uint) error
	MarkAllRead(filter NotificationFilter) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
	WithTx(tx *gorm.DB) NotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// recipientScope 管理员可见全部 admin 通知，用户仅可见自己的 user 通知
func recipientScope(query *gorm.DB, filter NotificationFilter) *gorm.DB {
	if filter.RecipientType == constants.RecipientAdmin {
		return query.Where("recipient_type = ?", constants.RecipientAdmin)
	}
	return query.Where("recipient_type = ? AND recipient_id = ?", constants.RecipientUser, filter.RecipientID)
}

func notExpired(query *gorm.DB, now time.Time) *gorm.DB {
	if now.IsZero() {
		now = time.Now()
	}
	return query.Where("expires_at > ?", now)
}

// CreateBatch 批量写入通知
func (r *GormNotificationRepository) CreateBatch(rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}

// ListForRecipient 最近未过期通知
func (r *GormNotificationRepository) ListForRecipient(filter NotificationFilter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	var rows []models.Notification
	query := notExpired(recipientScope(r.db.Model(&models.Notification{}), filter), filter.Now)
	if err := query.Order("created_at desc, id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUnread 未读数量
func (r *GormNotificationRepository) CountUnread(filter NotificationFilter) (int64, error) {
	var count int64
	query := notExpired(recipientScope(r.db.Model(&models.Notification{}), filter), filter.Now)
	if err := query.Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetByID 获取通知
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var row models.Notification
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// MarkRead 标记已读
func (r *GormNotificationRepository) MarkRead(id uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

// MarkAllRead 全部标记已读
func (r *GormNotificationRepository) MarkAllRead(filter NotificationFilter) (int64, error) {
	query := notExpired(recipientScope(r.db.Model(&models.Notification{}), filter), filter.Now)
	result := query.Where("is_read = ?", false).Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteExpired 清理过期通知
func (r *GormNotificationRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

package repository

import (
	"errors"
	"time"

	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
)

// EmailVerifyCodeRepository 邮箱验证码数据访问接口
type EmailVerifyCodeRepository interface {
	Create(code *models.EmailVerifyCode) error
	GetLatest(email, purpose string) (*models.EmailVerifyCode, error)
	MarkUsed(id uint, usedAt time.Time) (int64, error)
	IncrementAttempt(id uint) error
	WithTx(tx *gorm.DB) EmailVerifyCodeRepository
}

// GormEmailVerifyCodeRepository GORM 实现
type GormEmailVerifyCodeRepository struct {
	db *gorm.DB
}

// NewEmailVerifyCodeRepository 创建邮箱验证码仓库
func NewEmailVerifyCodeRepository(db *gorm.DB) *GormEmailVerifyCodeRepository {
	return &GormEmailVerifyCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEmailVerifyCodeRepository) WithTx(tx *gorm.DB) EmailVerifyCodeRepository {
	if tx == nil {
		return r
	}
	return &GormEmailVerifyCodeRepository{db: tx}
}

// Create 写入验证码
func (r *GormEmailVerifyCodeRepository) Create(code *models.EmailVerifyCode) error {
	return r.db.Create(code).Error
}

// GetLatest 某邮箱某用途最近发送的一条
func (r *GormEmailVerifyCodeRepository) GetLatest(email, purpose string) (*models.EmailVerifyCode, error) {
	var record models.EmailVerifyCode
	err := r.db.Where("email = ? AND purpose = ?", email, purpose).
		Order("sent_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MarkUsed 仅在未使用时标记，返回受影响行数，保证同一验证码只能兑换一次
func (r *GormEmailVerifyCodeRepository) MarkUsed(id uint, usedAt time.Time) (int64, error) {
	result := r.db.Model(&models.EmailVerifyCode{}).
		Where("id = ? AND verified_at IS NULL", id).
		Update("verified_at", usedAt)
	return result.RowsAffected, result.Error
}

// IncrementAttempt 错误尝试次数 +1
func (r *GormEmailVerifyCodeRepository) IncrementAttempt(id uint) error {
	return r.db.Model(&models.EmailVerifyCode{}).
		Where("id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1")).Error
}

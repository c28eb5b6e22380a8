package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	List(filter UserListFilter) ([]models.User, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	UpdateStatus(id uint, status string) error
	RevokeTokens(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) UserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		op := likeOperator(r.db)
		query = query.Where(fmt.Sprintf("email %s ? OR name %s ? OR phone %s ?", op, op, op), like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateFields 更新用户字段
func (r *GormUserRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatus 更新账号状态；非 active 时递增 token 版本使旧 token 失效
func (r *GormUserRepository) UpdateStatus(id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status != constants.UserStatusActive {
		updates["token_version"] = gorm.Expr("token_version + 1")
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// RevokeTokens 写入字段并递增 token 版本，已签发的 token 全部失效
func (r *GormUserRepository) RevokeTokens(id uint, updates map[string]interface{}) error {
	fields := map[string]interface{}{"token_version": gorm.Expr("token_version + 1")}
	for k, v := range updates {
		fields[k] = v
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"gorm.io/gorm"
)

// PostRepository 博客文章数据访问接口
type PostRepository interface {
	List(filter PostListFilter) ([]models.Post, int64, error)
	GetBySlug(slug string, onlyPublished bool) (*models.Post, error)
	GetByID(id uint) (*models.Post, error)
	Create(post *models.Post) error
	Update(post *models.Post) error
	Delete(id uint) error
	CountBySlug(slug string, excludeID uint) (int64, error)
}

// GormPostRepository GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建文章仓库
func NewPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// List 文章列表，最新创建的在前
func (r *GormPostRepository) List(filter PostListFilter) ([]models.Post, int64, error) {
	query := r.db.Model(&models.Post{})

	if filter.OnlyPublished {
		query = query.Where("status = ?", constants.PostStatusPublished)
	} else if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyFeatured {
		query = query.Where("featured = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		op := likeOperator(r.db)
		query = query.Where(fmt.Sprintf("title %s ? OR slug %s ?", op, op), like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var posts []models.Post
	if err := query.Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetBySlug 根据 slug 获取文章
func (r *GormPostRepository) GetBySlug(slug string, onlyPublished bool) (*models.Post, error) {
	query := r.db.Where("slug = ?", slug)
	if onlyPublished {
		query = query.Where("status = ?", constants.PostStatusPublished)
	}
	var post models.Post
	if err := query.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetByID 根据 ID 获取文章
func (r *GormPostRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create 创建文章
func (r *GormPostRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// Update 保存文章
func (r *GormPostRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

// Delete 删除文章
func (r *GormPostRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// CountBySlug 统计 slug 占用数（含已删除文章，唯一索引仍生效），excludeID 为 0 时不排除
func (r *GormPostRepository) CountBySlug(slug string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Unscoped().Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

package service

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"
)

const (
	wordsPerMinute       = 200
	defaultPostsPageSize = 6
)

var (
	postSlugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	htmlTag         = regexp.MustCompile(`<[^>]*>`)
)

// PostService 博客文章服务
type PostService struct {
	repo repository.PostRepository
}

// NewPostService 创建文章服务
func NewPostService(repo repository.PostRepository) *PostService {
	return &PostService{repo: repo}
}

// PostInput 创建/修改文章输入；修改时 nil 字段保持不变
type PostInput struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	MainImage *string  `json:"main_image"`
	Tags      []string `json:"tags"`
	Featured  *bool    `json:"featured"`
	Status    *string  `json:"status"`
}

// ListPublished 已发布文章分页，默认每页 6 篇
func (s *PostService) ListPublished(page, pageSize int) ([]models.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPostsPageSize
	}
	return s.repo.List(repository.PostListFilter{
		Page:          page,
		PageSize:      pageSize,
		OnlyPublished: true,
	})
}

// GetPublishedBySlug 已发布文章详情
func (s *PostService) GetPublishedBySlug(slug string) (*models.Post, error) {
	post, err := s.repo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ListAdmin 后台文章列表（含草稿）
func (s *PostService) ListAdmin(actor Actor, filter repository.PostListFilter) ([]models.Post, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	filter.OnlyPublished = false
	return s.repo.List(filter)
}

// Create 创建文章，slug 由标题生成
func (s *PostService) Create(ctx context.Context, actor Actor, input PostInput) (*models.Post, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title := trimmedValue(input.Title)
	content := trimmedValue(input.Content)
	if title == "" || content == "" {
		return nil, ErrPostTitleRequired
	}
	status := constants.PostStatusDraft
	if input.Status != nil {
		var err error
		if status, err = normalizePostStatus(*input.Status); err != nil {
			return nil, err
		}
	}
	slug := buildPostSlug(title)
	if err := s.ensureSlugFree(slug, 0); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       title,
		Slug:        slug,
		Content:     content,
		MainImage:   trimmedValue(input.MainImage),
		Tags:        normalizeTags(input.Tags),
		Featured:    input.Featured != nil && *input.Featured,
		Status:      status,
		ReadingTime: readingMinutes(content),
	}
	markPublished(post)
	if err := s.repo.Create(post); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("post_created", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	return post, nil
}

// Update 修改文章；标题变化时重新生成 slug，正文变化时重算阅读时长
func (s *PostService) Update(ctx context.Context, actor Actor, id uint, input PostInput) (*models.Post, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	post, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if title := trimmedValue(input.Title); title != "" {
		slug := buildPostSlug(title)
		if err := s.ensureSlugFree(slug, post.ID); err != nil {
			return nil, err
		}
		post.Title = title
		post.Slug = slug
	}
	if content := trimmedValue(input.Content); content != "" {
		post.Content = content
		post.ReadingTime = readingMinutes(content)
	}
	if input.MainImage != nil {
		post.MainImage = strings.TrimSpace(*input.MainImage)
	}
	if input.Tags != nil {
		post.Tags = normalizeTags(input.Tags)
	}
	if input.Featured != nil {
		post.Featured = *input.Featured
	}
	if input.Status != nil {
		status, err := normalizePostStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		post.Status = status
	}
	markPublished(post)

	if err := s.repo.Update(post); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("post_updated", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	return post, nil
}

// Delete 删除文章
func (s *PostService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	post, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("post_deleted", "post_id", id)
	return nil
}

func (s *PostService) ensureSlugFree(slug string, excludeID uint) error {
	count, err := s.repo.CountBySlug(slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// markPublished 首次发布时记录发布时间
func markPublished(post *models.Post) {
	if post.Status == constants.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
}

func normalizePostStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", constants.PostStatusDraft:
		return constants.PostStatusDraft, nil
	case constants.PostStatusPublished:
		return constants.PostStatusPublished, nil
	default:
		return "", ErrInvalidPostStatus
	}
}

// buildPostSlug 小写后把非字母数字串替换为单个连字符
func buildPostSlug(title string) string {
	slug := postSlugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// readingMinutes 去除 HTML 标签后按每分钟 200 词估算，非空正文至少 1 分钟
func readingMinutes(html string) int {
	text := htmlTag.ReplaceAllString(html, " ")
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Max(1, math.Ceil(float64(words)/wordsPerMinute)))
}

func normalizeTags(tags []string) models.StringArray {
	result := make(models.StringArray, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || result.Contains(tag) {
			continue
		}
		result = append(result, tag)
	}
	return result
}

func trimmedValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

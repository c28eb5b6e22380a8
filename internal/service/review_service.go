package service

import (
	"context"
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"gorm.io/gorm"
)

// ReviewService 商品评价服务
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewReviewService 创建评价服务
func NewReviewService(reviewRepo repository.ReviewRepository, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// SubmitReviewInput 提交评价输入
type SubmitReviewInput struct {
	OrderID   uint   `json:"order_id"`
	ProductID uint   `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// ReviewPatch 后台评价修改
type ReviewPatch struct {
	AdminReply *string `json:"admin_reply"`
	Featured   *bool   `json:"featured"`
}

// loadReviewItem 校验订单归属、已签收与待评价队列
func (s *ReviewService) loadReviewItem(actor Actor, orderID, productID uint) (*models.OrderReviewItem, error) {
	if actor.UserID == 0 {
		return nil, ErrLoginRequired
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !order.OwnedBy(actor.UserID) {
		return nil, ErrReviewNotAllowed
	}
	if order.Status != constants.OrderStatusDelivered {
		return nil, ErrReviewNotAllowed
	}
	item, err := s.orderRepo.GetReviewItem(orderID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrReviewNotAllowed
	}
	if item.Reviewed {
		return nil, ErrAlreadyReviewed
	}
	return item, nil
}

// Submit 提交评价并标记待评价队列
func (s *ReviewService) Submit(ctx context.Context, actor Actor, input SubmitReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	item, err := s.loadReviewItem(actor, input.OrderID, input.ProductID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	userName := "Customer"
	if user, err := s.userRepo.GetByID(actor.UserID); err == nil && user != nil && strings.TrimSpace(user.Name) != "" {
		userName = user.Name
	}

	comment := strings.TrimSpace(input.Comment)
	review := &models.Review{
		ProductID: input.ProductID,
		UserID:    actor.UserID,
		OrderID:   input.OrderID,
		UserName:  userName,
		Rating:    input.Rating,
		Comment:   comment,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).MarkReviewItemReviewed(item.ID, input.Rating, comment, time.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyReviewed
		}
		return s.reviewRepo.WithTx(tx).Create(review)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("review_submitted", "review_id", review.ID, "order_id", input.OrderID, "product_id", input.ProductID)
	return review, nil
}

// Skip 跳过某商品的评价
func (s *ReviewService) Skip(ctx context.Context, actor Actor, orderID, productID uint) error {
	item, err := s.loadReviewItem(actor, orderID, productID)
	if err != nil {
		return err
	}
	if item.Skipped {
		return nil
	}
	if _, err := s.orderRepo.MarkReviewItemSkipped(item.ID); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("review_skipped", "order_id", orderID, "product_id", productID)
	return nil
}

// ListByProduct 商品评价列表
func (s *ReviewService) ListByProduct(productID uint, page, pageSize int) ([]models.Review, int64, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, 0, err
	}
	if product == nil {
		return nil, 0, ErrProductNotFound
	}
	return s.reviewRepo.List(repository.ReviewListFilter{ProductID: productID, Page: page, PageSize: pageSize})
}

// ListFeatured 首页精选评价
func (s *ReviewService) ListFeatured(limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	reviews, _, err := s.reviewRepo.List(repository.ReviewListFilter{OnlyFeatured: true, Page: 1, PageSize: limit})
	return reviews, err
}

// ListAdmin 后台评价列表
func (s *ReviewService) ListAdmin(actor Actor, filter repository.ReviewListFilter) ([]models.Review, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.List(filter)
}

// Update 后台回复或设置精选
func (s *ReviewService) Update(ctx context.Context, actor Actor, id uint, patch ReviewPatch) (*models.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	updates := map[string]interface{}{}
	if patch.AdminReply != nil {
		reply := strings.TrimSpace(*patch.AdminReply)
		if reply == "" {
			updates["admin_reply"] = nil
		} else {
			updates["admin_reply"] = reply
		}
	}
	if patch.Featured != nil {
		updates["featured"] = *patch.Featured
	}
	if err := s.reviewRepo.UpdateFields(id, updates); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("review_updated", "review_id", id, "admin_id", actor.UserID)
	return s.reviewRepo.GetByID(id)
}

// Delete 后台删除评价
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if err := s.reviewRepo.Delete(id); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("review_deleted", "review_id", id, "admin_id", actor.UserID)
	return nil
}

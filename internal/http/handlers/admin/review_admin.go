package admin

import (
	"strconv"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListReviews 管理端评价列表
func (h *Handler) AdminListReviews(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	productID, _ := strconv.ParseUint(c.Query("product_id"), 10, 64)
	reviews, total, err := h.ReviewService.ListAdmin(actor, repository.ReviewListFilter{
		Page:         page,
		PageSize:     pageSize,
		ProductID:    uint(productID),
		OnlyFeatured: c.Query("featured") == "true",
	})
	if err != nil {
		respondWithMappedError(c, err, adminReviewErrorRules, "review fetch failed")
		return
	}
	response.SuccessWithPage(c, reviews, handlershared.BuildPagination(page, pageSize, total))
}

// AdminUpdateReview 回复评价或切换精选
func (h *Handler) AdminUpdateReview(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ReviewPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondWithMappedError(c, err, adminReviewErrorRules, "review update failed")
		return
	}
	response.Success(c, review)
}

// AdminDeleteReview 删除评价
func (h *Handler) AdminDeleteReview(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ReviewService.Delete(c.Request.Context(), actor, id); err != nil {
		respondWithMappedError(c, err, adminReviewErrorRules, "review delete failed")
		return
	}
	response.Success(c, gin.H{"id": id, "deleted": true})
}

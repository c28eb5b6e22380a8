package public

import (
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitReviewRequest 提交评价请求
type SubmitReviewRequest struct {
	OrderID   uint   `json:"order_id" binding:"required"`
	ProductID uint   `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

// SubmitReview 提交评价
func (h *Handler) SubmitReview(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.Submit(c.Request.Context(), actor, service.SubmitReviewInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondWithMappedError(c, err, reviewErrorRules, "review submit failed")
		return
	}
	response.Success(c, review)
}

// SkipReview 跳过订单中某商品的评价
func (h *Handler) SkipReview(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	productID, ok := parseID(c, "product_id")
	if !ok {
		return
	}
	if err := h.ReviewService.Skip(c.Request.Context(), actor, orderID, productID); err != nil {
		respondWithMappedError(c, err, reviewErrorRules, "review skip failed")
		return
	}
	response.Success(c, gin.H{"skipped": true})
}

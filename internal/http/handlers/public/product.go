package public

import (
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

var productErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound},
}

// GetProducts 公开商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))
	quality := strings.TrimSpace(c.Query("quality"))

	products, total, err := h.ProductService.ListPublic(search, quality, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetProductBySlug 商品详情（含价格表）
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(strings.TrimSpace(c.Param("slug")))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "product fetch failed")
		return
	}
	response.Success(c, product)
}

// GetTopSoldProduct 销量最高的商品，无销量时返回 null
func (h *Handler) GetTopSoldProduct(c *gin.Context) {
	product, err := h.ProductService.TopSold()
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// GetProductReviews 商品评价列表
func (h *Handler) GetProductReviews(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(strings.TrimSpace(c.Param("slug")))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "review fetch failed")
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	reviews, total, err := h.ReviewService.ListByProduct(product.ID, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "review fetch failed")
		return
	}
	response.SuccessWithPage(c, reviews, handlershared.BuildPagination(page, pageSize, total))
}

// GetFeaturedReviews 精选评价
func (h *Handler) GetFeaturedReviews(c *gin.Context) {
	reviews, err := h.ReviewService.ListFeatured(20)
	if err != nil {
		respondError(c, response.CodeInternal, "review fetch failed", err)
		return
	}
	response.Success(c, reviews)
}

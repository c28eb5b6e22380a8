package admin

import (
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListProducts 管理端商品列表（含下架商品）
func (h *Handler) AdminListProducts(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	products, total, err := h.ProductService.ListAdmin(actor, strings.TrimSpace(c.Query("search")), strings.TrimSpace(c.Query("quality")), page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "product fetch failed")
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdmin(actor, id)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "product fetch failed")
		return
	}
	response.Success(c, product)
}

// AdminCreateProduct 创建商品，初始库存写入全部规格
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "product create failed")
		return
	}
	response.Success(c, product)
}

// AdminUpdateProduct 部分更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "product update failed")
		return
	}
	response.Success(c, product)
}

// AdminUpdateProductStock 调整单个规格库存
func (h *Handler) AdminUpdateProductStock(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.StockUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.UpdateStock(c.Request.Context(), actor, id, req)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "stock update failed")
		return
	}
	response.Success(c, product)
}

// AdminDeleteProduct 删除商品
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), actor, id); err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, "product delete failed")
		return
	}
	response.Success(c, gin.H{"id": id, "deleted": true})
}

package public

import (
	"strconv"
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetPublishedPosts 已发布博客列表，默认每页 6 篇
func (h *Handler) GetPublishedPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "6"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	posts, total, err := h.PostService.ListPublished(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "post fetch failed", err)
		return
	}
	response.SuccessWithPage(c, posts, handlershared.BuildPagination(page, pageSize, total))
}

// GetPostBySlug 已发布博客详情
func (h *Handler) GetPostBySlug(c *gin.Context) {
	post, err := h.PostService.GetPublishedBySlug(strings.TrimSpace(c.Param("slug")))
	if err != nil {
		respondWithMappedError(c, err, postErrorRules, "post fetch failed")
		return
	}
	response.Success(c, post)
}

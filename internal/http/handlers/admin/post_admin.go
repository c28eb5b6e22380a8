package admin

import (
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListPosts 博客列表（含草稿）
func (h *Handler) AdminListPosts(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	posts, total, err := h.PostService.ListAdmin(actor, repository.PostListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, "post fetch failed")
		return
	}
	response.SuccessWithPage(c, posts, handlershared.BuildPagination(page, pageSize, total))
}

// AdminCreatePost 创建博客
func (h *Handler) AdminCreatePost(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	post, err := h.PostService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, "post create failed")
		return
	}
	response.Success(c, post)
}

// AdminUpdatePost 修改博客
func (h *Handler) AdminUpdatePost(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	post, err := h.PostService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, "post update failed")
		return
	}
	response.Success(c, post)
}

// AdminDeletePost 删除博客
func (h *Handler) AdminDeletePost(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.PostService.Delete(c.Request.Context(), actor, id); err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, "post delete failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

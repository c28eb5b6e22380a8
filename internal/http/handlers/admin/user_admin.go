package admin

import (
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// UserStatusRequest 修改账号状态请求
type UserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListUsers 用户列表
func (h *Handler) AdminListUsers(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	users, total, err := h.UserAuthService.ListUsers(actor, repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, "user fetch failed")
		return
	}
	response.SuccessWithPage(c, users, handlershared.BuildPagination(page, pageSize, total))
}

// AdminCreateUser 后台创建账号
func (h *Handler) AdminCreateUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.AdminCreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserAuthService.CreateUserByAdmin(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, "user create failed")
		return
	}
	response.Success(c, user)
}

// AdminUpdateUserStatus 启用或停用账号
func (h *Handler) AdminUpdateUserStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserAuthService.SetUserStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, "user update failed")
		return
	}
	response.Success(c, user)
}

// AdminUpdateUserLoyalty 修改会员等级模式或手动等级
func (h *Handler) AdminUpdateUserLoyalty(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.LoyaltyPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.LoyaltyService.UpdateUserLoyalty(c.Request.Context(), actor, id, req)
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, "loyalty update failed")
		return
	}
	response.Success(c, user)
}

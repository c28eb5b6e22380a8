package public

import (
	"time"

	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// SetPasswordRequest 设置首个密码请求
type SetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// DeleteAccountRequest 注销账号请求
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// UpdateProfile 修改个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserAuthService.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, "profile update failed")
		return
	}
	response.Success(c, user)
}

// SaveCheckoutDetails 保存结账信息
func (h *Handler) SaveCheckoutDetails(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req models.CheckoutDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	saved, err := h.UserAuthService.SaveCheckoutDetails(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, "checkout details save failed")
		return
	}
	response.Success(c, saved)
}

// ChangePassword 修改密码，成功后需重新登录
func (h *Handler) ChangePassword(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserAuthService.ChangePassword(c.Request.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithMappedError(c, err, accountErrorRules, "password change failed")
		return
	}
	response.Success(c, gin.H{"changed": true})
}

// SetPassword 为无密码账号设置密码
func (h *Handler) SetPassword(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.UserAuthService.SetPassword(c.Request.Context(), actor, req.NewPassword)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, "password set failed")
		return
	}
	response.Success(c, user)
}

// LogoutAllDevices 登出全部设备，返回当前设备的新 token
func (h *Handler) LogoutAllDevices(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	token, expiresAt, err := h.UserAuthService.LogoutAllDevices(c.Request.Context(), actor)
	if err != nil {
		respondWithMappedError(c, err, accountErrorRules, "logout failed")
		return
	}
	response.Success(c, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{Token: token, ExpiresAt: expiresAt})
}

// DeleteMyAccount 注销当前账号
func (h *Handler) DeleteMyAccount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req DeleteAccountRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
	}
	if err := h.UserAuthService.DeleteMyAccount(c.Request.Context(), actor, req.Password); err != nil {
		respondWithMappedError(c, err, accountErrorRules, "account delete failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

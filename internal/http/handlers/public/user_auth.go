package public

import (
	"time"

	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult 登录/注册返回
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "register failed")
		return
	}
	response.Success(c, AuthResult{User: user, Token: token, ExpiresAt: expiresAt})
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "login failed")
		return
	}
	response.Success(c, AuthResult{User: user, Token: token, ExpiresAt: expiresAt})
}

// GetCurrentUser 当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(actor.UserID)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "user fetch failed")
		return
	}
	response.Success(c, user)
}

// GetMyLoyalty 当前用户会员等级与累计消费
func (h *Handler) GetMyLoyalty(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	summary, err := h.LoyaltyService.Summary(actor.UserID)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "loyalty fetch failed")
		return
	}
	response.Success(c, summary)
}

// EmailRequest 仅含邮箱的请求
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// SendVerifyCode 重新发送邮箱验证码
func (h *Handler) SendVerifyCode(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserAuthService.SendVerifyCode(c.Request.Context(), req.Email); err != nil {
		respondWithMappedError(c, err, verifyCodeErrorRules, "verify code send failed")
		return
	}
	response.Success(c, gin.H{"sent": true})
}

// VerifyEmail 提交邮箱验证码，成功后返回登录 token
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.UserAuthService.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondWithMappedError(c, err, verifyCodeErrorRules, "email verify failed")
		return
	}
	response.Success(c, result)
}

// ForgotPassword 申请重置密码验证码
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserAuthService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondWithMappedError(c, err, verifyCodeErrorRules, "password reset request failed")
		return
	}
	response.Success(c, gin.H{"message": "if that email exists, a reset code has been sent"})
}

// ResetPassword 凭验证码设置新密码
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserAuthService.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondWithMappedError(c, err, verifyCodeErrorRules, "password reset failed")
		return
	}
	response.Success(c, gin.H{"reset": true})
}

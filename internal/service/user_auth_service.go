package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/scentshop/internal/cache"
	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserAuthService 用户注册、登录、邮箱验证与账号管理
type UserAuthService struct {
	cfg       *config.Config
	userRepo  repository.UserRepository
	codeRepo  repository.EmailVerifyCodeRepository
	orderRepo repository.OrderRepository
	email     EmailSender
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, codeRepo repository.EmailVerifyCodeRepository, orderRepo repository.OrderRepository, email EmailSender) *UserAuthService {
	return &UserAuthService{
		cfg:       cfg,
		userRepo:  userRepo,
		codeRepo:  codeRepo,
		orderRepo: orderRepo,
		email:     email,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	hours := 24
	if s.cfg != nil && s.cfg.JWT.ExpireHours > 0 {
		hours = s.cfg.JWT.ExpireHours
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret()))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret()), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *UserAuthService) secret() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.JWT.SecretKey
}

// Register 注册普通用户
func (s *UserAuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, time.Time, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if len([]rune(input.Password)) < minPasswordLength {
		return nil, "", time.Time{}, ErrPasswordTooShort
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if existing != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: string(hash),
		Role:         constants.RoleUser,
		Status:       constants.UserStatusActive,
		LoyaltyTier:  constants.TierBronze,
		LoyaltyMode:  constants.LoyaltyModeAuto,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, err
	}
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	logger.FromContext(ctx).Infow("user_registered", "user_id", user.ID)
	if err := s.sendVerifyCode(user, constants.VerifyPurposeEmail); err != nil {
		logger.FromContext(ctx).Warnw("user_verify_code_send_failed", "user_id", user.ID, "error", err)
	}
	return user, token, expiresAt, nil
}

// Login 邮箱密码登录
func (s *UserAuthService) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.FromContext(ctx).Warnw("user_last_login_update_failed", "user_id", user.ID, "error", err)
	}
	if err := cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user)); err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_cache_set_failed", "user_id", user.ID, "error", err)
	}
	return user, token, expiresAt, nil
}

// ResolveAuthState 鉴权快照：先读缓存，未命中查库回填
func (s *UserAuthService) ResolveAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_cache_get_failed", "user_id", userID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	state = cache.BuildUserAuthState(user)
	if err := cache.SetUserAuthState(ctx, state); err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_cache_set_failed", "user_id", userID, "error", err)
	}
	return state, nil
}

// Authenticate 校验 token 与账号状态，返回操作主体
func (s *UserAuthService) Authenticate(ctx context.Context, tokenString string) (Actor, error) {
	claims, err := s.ParseUserJWT(tokenString)
	if err != nil {
		return Actor{}, err
	}
	state, err := s.ResolveAuthState(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Actor{}, ErrInvalidToken
		}
		return Actor{}, err
	}
	if state.Status != constants.UserStatusActive {
		return Actor{}, ErrUserDisabled
	}
	if state.TokenVersion != claims.TokenVersion {
		return Actor{}, ErrInvalidToken
	}
	return Actor{UserID: state.UserID, Role: state.Role}, nil
}

// GetUserByID 获取用户
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers 后台用户列表
func (s *UserAuthService) ListUsers(actor Actor, filter repository.UserListFilter) ([]models.User, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(filter)
}

// SetUserStatus 后台修改账号状态，并失效鉴权缓存
func (s *UserAuthService) SetUserStatus(ctx context.Context, actor Actor, userID uint, status string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusSuspended {
		return nil, ErrInvalidUserStatus
	}
	if userID == actor.UserID {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.userRepo.UpdateStatus(userID, status); err != nil {
		return nil, err
	}
	if err := cache.DelUserAuthState(ctx, userID); err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_cache_del_failed", "user_id", userID, "error", err)
	}
	logger.FromContext(ctx).Infow("user_status_updated", "user_id", userID, "status", status, "admin_id", actor.UserID)
	return s.userRepo.GetByID(userID)
}

// SendVerifyCode 重新发送邮箱验证码；邮箱未注册或已验证时静默成功
func (s *UserAuthService) SendVerifyCode(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerified() || user.Status == constants.UserStatusDeleted {
		return nil
	}
	if err := s.sendVerifyCode(user, constants.VerifyPurposeEmail); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("user_verify_code_sent", "user_id", user.ID)
	return nil
}

// VerifyEmailResult 邮箱验证结果；已验证过的账号不再签发 token
type VerifyEmailResult struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token,omitempty"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	AlreadyVerified bool         `json:"already_verified"`
}

// VerifyEmail 校验验证码并标记邮箱已验证，成功后签发 token
func (s *UserAuthService) VerifyEmail(ctx context.Context, email, code string) (*VerifyEmailResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.EmailVerified() {
		return &VerifyEmailResult{User: user, AlreadyVerified: true}, nil
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if _, err := s.verifyCode(normalized, constants.VerifyPurposeEmail, code); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"email_verified_at": now}); err != nil {
		return nil, err
	}
	user.EmailVerifiedAt = &now
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("user_email_verified", "user_id", user.ID)
	return &VerifyEmailResult{User: user, Token: token, ExpiresAt: &expiresAt}, nil
}

// ForgotPassword 发送重置密码验证码；邮箱不存在时同样返回成功
func (s *UserAuthService) ForgotPassword(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil || user.Status == constants.UserStatusDeleted {
		logger.FromContext(ctx).Debugw("user_password_reset_unknown_email")
		return nil
	}
	if err := s.sendVerifyCode(user, constants.VerifyPurposeReset); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("user_password_reset_code_sent", "user_id", user.ID)
	return nil
}

// ResetPassword 凭验证码重置密码，并使已签发的 token 失效
func (s *UserAuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len([]rune(newPassword)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil || user.Status == constants.UserStatusDeleted {
		return ErrVerifyCodeInvalid
	}
	if _, err := s.verifyCode(normalized, constants.VerifyPurposeReset, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"password_hash": string(hash)}
	// 重置成功同时视为邮箱已验证
	if !user.EmailVerified() {
		updates["email_verified_at"] = time.Now()
	}
	if err := s.revokeSessions(ctx, user.ID, updates); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("user_password_reset", "user_id", user.ID)
	return nil
}

// revokeSessions 写入字段、递增 token 版本并清理鉴权缓存
func (s *UserAuthService) revokeSessions(ctx context.Context, userID uint, updates map[string]interface{}) error {
	if err := s.userRepo.RevokeTokens(userID, updates); err != nil {
		return err
	}
	if err := cache.DelUserAuthState(ctx, userID); err != nil {
		logger.FromContext(ctx).Warnw("user_auth_state_cache_del_failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *UserAuthService) verifyCode(email, purpose, code string) (*models.EmailVerifyCode, error) {
	record, err := s.codeRepo.GetLatest(email, purpose)
	if err != nil {
		return nil, err
	}
	if record == nil || record.VerifiedAt != nil {
		return nil, ErrVerifyCodeInvalid
	}
	now := time.Now()
	if !record.Usable(now) {
		return nil, ErrVerifyCodeExpired
	}
	if maxAttempts := s.verifyCodeConfig().MaxAttempts; record.AttemptCount >= maxAttempts {
		return nil, ErrVerifyCodeAttemptsExceeded
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(record.Code) != strings.TrimSpace(code) {
		if err := s.codeRepo.IncrementAttempt(record.ID); err != nil {
			return nil, err
		}
		return nil, ErrVerifyCodeInvalid
	}
	affected, err := s.codeRepo.MarkUsed(record.ID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrVerifyCodeInvalid
	}
	return record, nil
}

func (s *UserAuthService) sendVerifyCode(user *models.User, purpose string) error {
	if s.email == nil {
		return ErrEmailServiceDisabled
	}
	cfg := s.verifyCodeConfig()
	latest, err := s.codeRepo.GetLatest(user.Email, purpose)
	if err != nil {
		return err
	}
	now := time.Now()
	if latest != nil && now.Sub(latest.SentAt) < time.Duration(cfg.SendIntervalSeconds)*time.Second {
		return ErrVerifyCodeTooFrequent
	}

	code, err := randomNumericCode(cfg.Length)
	if err != nil {
		return err
	}
	subject, body := verifyCodeMessage(purpose, code, cfg.ExpireMinutes)
	if err := s.email.SendEmail(user.Email, subject, body); err != nil {
		return err
	}
	return s.codeRepo.Create(&models.EmailVerifyCode{
		Email:     user.Email,
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(time.Duration(cfg.ExpireMinutes) * time.Minute),
		SentAt:    now,
	})
}

// verifyCodeConfig 读取验证码配置，非法值回退默认
func (s *UserAuthService) verifyCodeConfig() config.VerifyCodeConfig {
	var cfg config.VerifyCodeConfig
	if s.cfg != nil {
		cfg = s.cfg.Email.VerifyCode
	}
	if cfg.ExpireMinutes <= 0 {
		cfg.ExpireMinutes = 10
	}
	if cfg.SendIntervalSeconds < 0 {
		cfg.SendIntervalSeconds = 60
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Length < 4 || cfg.Length > 10 {
		cfg.Length = 6
	}
	return cfg
}

func verifyCodeMessage(purpose, code string, expireMinutes int) (string, string) {
	if purpose == constants.VerifyPurposeReset {
		return "Reset your password",
			fmt.Sprintf("Your password reset code is %s. It expires in %d minutes. If you did not request a reset, ignore this email.", code, expireMinutes)
	}
	return "Verify your email",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, expireMinutes)
}

func randomNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

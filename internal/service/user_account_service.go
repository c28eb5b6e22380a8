package service

import (
	"context"
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// activeOrderStatuses 存在这些状态的网站订单时不允许注销账号
var activeOrderStatuses = []string{
	constants.OrderStatusPending,
	constants.OrderStatusConfirmed,
	constants.OrderStatusShipped,
}

// ProfileInput 资料修改，nil 字段保持不变
type ProfileInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	Province   *string `json:"province"`
	District   *string `json:"district"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
}

// UpdateProfile 修改个人资料
func (s *UserAuthService) UpdateProfile(ctx context.Context, actor Actor, input ProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	setTrimmed := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setTrimmed("name", input.Name)
	setTrimmed("phone", input.Phone)
	setTrimmed("address", input.Address)
	setTrimmed("profile_province", input.Province)
	setTrimmed("profile_district", input.District)
	setTrimmed("profile_city", input.City)
	setTrimmed("profile_postal_code", input.PostalCode)
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.userRepo.UpdateFields(user.ID, updates); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("user_profile_updated", "user_id", user.ID)
	return s.GetUserByID(user.ID)
}

// SaveCheckoutDetails 整体覆盖保存的结账信息
func (s *UserAuthService) SaveCheckoutDetails(ctx context.Context, actor Actor, details models.CheckoutDetails) (*models.CheckoutDetails, error) {
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return nil, err
	}
	saved := models.CheckoutDetails{
		Name:       strings.TrimSpace(details.Name),
		Phone:      strings.TrimSpace(details.Phone),
		Address:    strings.TrimSpace(details.Address),
		Province:   strings.TrimSpace(details.Province),
		District:   strings.TrimSpace(details.District),
		City:       strings.TrimSpace(details.City),
		PostalCode: strings.TrimSpace(details.PostalCode),
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"checkout_name":        saved.Name,
		"checkout_phone":       saved.Phone,
		"checkout_address":     saved.Address,
		"checkout_province":    saved.Province,
		"checkout_district":    saved.District,
		"checkout_city":        saved.City,
		"checkout_postal_code": saved.PostalCode,
	}); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("user_checkout_details_saved", "user_id", user.ID)
	return &saved, nil
}

// ChangePassword 登录态修改密码，所有设备需重新登录
func (s *UserAuthService) ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error {
	if len([]rune(newPassword)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.revokeSessions(ctx, user.ID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("user_password_changed", "user_id", user.ID)
	return nil
}

// SetPassword 为尚无密码的账号设置首个密码
func (s *UserAuthService) SetPassword(ctx context.Context, actor Actor, newPassword string) (*models.User, error) {
	if len([]rune(newPassword)) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return nil, err
	}
	if user.HasPassword() {
		return nil, ErrPasswordAlreadySet
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("user_password_set", "user_id", user.ID)
	return s.GetUserByID(user.ID)
}

// LogoutAllDevices 使此前签发的所有 token 失效，并为当前设备签发新 token
func (s *UserAuthService) LogoutAllDevices(ctx context.Context, actor Actor) (string, time.Time, error) {
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.revokeSessions(ctx, user.ID, nil); err != nil {
		return "", time.Time{}, err
	}
	user.TokenVersion++
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return "", time.Time{}, err
	}
	logger.FromContext(ctx).Infow("user_logout_all_devices", "user_id", user.ID)
	return token, expiresAt, nil
}

// DeleteMyAccount 注销账号（软删除：状态置为 deleted 并吊销 token）
// 存在进行中的网站订单时拒绝；已设置密码的账号须校验密码。
func (s *UserAuthService) DeleteMyAccount(ctx context.Context, actor Actor, password string) error {
	user, err := s.GetUserByID(actor.UserID)
	if err != nil {
		return err
	}
	active, err := s.orderRepo.CountByUser(user.ID, constants.OrderSourceWebsite, activeOrderStatuses)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrActiveOrdersExist
	}
	if user.HasPassword() {
		if password == "" {
			return ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return ErrInvalidPassword
		}
	}
	if err := s.revokeSessions(ctx, user.ID, map[string]interface{}{"status": constants.UserStatusDeleted}); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("user_account_deleted", "user_id", user.ID)
	return nil
}

// AdminCreateUserInput 后台创建用户输入
type AdminCreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

// CreateUserByAdmin 后台直接创建账号
// 带密码的账号视为已验证；不带密码时发送邮箱验证码，验证后由用户自行设置密码。
func (s *UserAuthService) CreateUserByAdmin(ctx context.Context, actor Actor, input AdminCreateUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = constants.RoleUser
	}
	if role != constants.RoleUser && role != constants.RoleAdmin {
		return nil, ErrInvalidRole
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = constants.UserStatusActive
	}
	if status != constants.UserStatusActive && status != constants.UserStatusSuspended {
		return nil, ErrInvalidUserStatus
	}
	if input.Password != "" && len([]rune(input.Password)) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user := &models.User{
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		Address:     strings.TrimSpace(input.Address),
		Notes:       strings.TrimSpace(input.Notes),
		Role:        role,
		Status:      status,
		LoyaltyTier: constants.TierBronze,
		LoyaltyMode: constants.LoyaltyModeAuto,
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		user.PasswordHash = string(hash)
		user.EmailVerifiedAt = &now
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Infow("user_created_by_admin", "user_id", user.ID, "role", role, "admin_id", actor.UserID)
	if !user.HasPassword() {
		if err := s.sendVerifyCode(user, constants.VerifyPurposeEmail); err != nil {
			log.Warnw("user_verify_code_send_failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

package service

import (
	"errors"
	"fmt"
)

// 通用
var (
	ErrForbidden     = errors.New("forbidden")
	ErrAdminRequired = errors.New("admin role required")
	ErrLoginRequired = errors.New("login required")
	ErrNotFound      = errors.New("not found")
)

// 订单
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderItemsEmpty         = errors.New("order items required")
	ErrInvalidOrderItem        = errors.New("invalid order item")
	ErrInvalidSize             = errors.New("invalid bottle size")
	ErrCustomerInfoRequired    = errors.New("customer name, phone and address required")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrOrderStatusInvalid      = errors.New("order status does not allow this action")
	ErrOnlinePaymentPending    = errors.New("online payment not received")
	ErrPaymentMethodLocked     = errors.New("payment method can no longer be changed")
	ErrOrderNotPayable         = errors.New("order can not be paid")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrProductUnavailable      = errors.New("product unavailable")
	ErrOrderCreateFailed       = errors.New("order create failed")
	ErrOrderTransitionConflict = errors.New("order changed concurrently")
)

// 商品与评价
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameRequired = errors.New("product name required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidStock        = errors.New("invalid stock")
	ErrEnableEmptySize     = errors.New("can not enable a size with zero stock")
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewNotAllowed    = errors.New("product not in review queue")
	ErrAlreadyReviewed     = errors.New("already reviewed")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
)

// 用户与会员
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUserStatus  = errors.New("invalid user status")
	ErrInvalidTier        = errors.New("invalid loyalty tier")
	ErrInvalidLoyaltyMode = errors.New("invalid loyalty mode")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidPassword    = errors.New("password is incorrect")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordNotSet     = errors.New("password not set for this account")
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrActiveOrdersExist  = errors.New("account has active orders")
	ErrInvalidRole        = errors.New("invalid role")
)

// 邮箱验证码
var (
	ErrVerifyCodeInvalid          = errors.New("invalid verify code")
	ErrVerifyCodeExpired          = errors.New("verify code expired")
	ErrVerifyCodeAttemptsExceeded = errors.New("verify code attempts exceeded")
	ErrVerifyCodeTooFrequent      = errors.New("verify code requested too frequently")
)

// 博客
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrPostTitleRequired = errors.New("title and content required")
	ErrInvalidPostStatus = errors.New("invalid post status")
	ErrSlugExists        = errors.New("slug already exists")
)

// 通知
var (
	ErrNotificationNotFound      = errors.New("notification not found")
	ErrOutboxEventNotFound       = errors.New("outbox event not found")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrWhatsAppDisabled          = errors.New("whatsapp service disabled")
	ErrWhatsAppNotConfigured     = errors.New("whatsapp service not configured")
	ErrInvalidSettingValue       = errors.New("invalid setting value")
)

// StockShortageError 库存不足，携带商品与规格
type StockShortageError struct {
	ProductName string
	Size        string
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s)", e.ProductName, e.Size)
}

// Unwrap 便于 errors.Is(err, ErrInsufficientStock)
func (e *StockShortageError) Unwrap() error {
	return ErrInsufficientStock
}

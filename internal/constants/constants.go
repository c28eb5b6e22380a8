package constants

// 订单状态
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

// 支付方式
const (
	PaymentMethodOnline = "online"
	PaymentMethodCash   = "cash"
	PaymentMethodManual = "manual"
)

// 支付状态
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// 订单来源
const (
	OrderSourceWebsite = "website"
	OrderSourceAdmin   = "admin"
)

// ManualItemSize 后台手工订单默认规格（不参与库存）
const ManualItemSize = "manual"

// 用户角色与状态
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusDeleted   = "deleted"
)

// 邮箱验证码用途
const (
	VerifyPurposeEmail = "verify"
	VerifyPurposeReset = "reset"
)

// 博客文章状态
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// 会员等级
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierDiamond  = "diamond"

	LoyaltyModeAuto   = "auto"
	LoyaltyModeManual = "manual"
)

// 订单事件
const (
	EventOrderPlaced    = "ORDER_PLACED"
	EventOrderConfirmed = "ORDER_CONFIRMED"
	EventOrderShipped   = "ORDER_SHIPPED"
	EventOrderDelivered = "ORDER_DELIVERED"
	EventOrderCancelled = "ORDER_CANCELLED"
	EventOrderReturned  = "ORDER_RETURNED"
)

// 事件操作方
const (
	ActorUser  = "user"
	ActorAdmin = "admin"
)

// 通知接收方类型
const (
	RecipientAdmin = "admin"
	RecipientUser  = "user"
)

// 外部通知渠道
const (
	ChannelAdminEmail    = "admin_email"
	ChannelAdminWhatsApp = "admin_whatsapp"
	ChannelUserEmail     = "user_email"
)

// 出站事件状态
const (
	OutboxStatusPending = "pending"
	OutboxStatusDone    = "done"
	OutboxStatusFailed  = "failed"
)

// 异步任务类型
const (
	TaskNotificationDispatch = "notification:dispatch"
)

// SettingKeyAdmin 后台通知设置单例主键
const SettingKeyAdmin uint = 1

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"
)

// externalMessage 外部渠道消息
type externalMessage struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// notificationPlan 单个事件的通知扇出结果
type notificationPlan struct {
	InApp    []models.Notification
	External []externalMessage
}

type planBuilder struct {
	plan      notificationPlan
	event     *models.OutboxEvent
	order     *models.Order
	userEmail string
	setting   models.AdminSetting
	expiresAt time.Time
}

// buildNotificationPlan 按事件与操作方生成站内通知与外部消息
func buildNotificationPlan(event *models.OutboxEvent, order *models.Order, user *models.User, setting models.AdminSetting, expiresAt time.Time) notificationPlan {
	b := &planBuilder{event: event, order: order, setting: setting, expiresAt: expiresAt}
	if user != nil {
		b.userEmail = strings.TrimSpace(user.Email)
	}
	code := order.Code()

	switch event.Event {
	case constants.EventOrderPlaced:
		adminMsg := fmt.Sprintf("Order: %s\nCustomer: %s\nPayment: %s (%s)",
			code, order.Customer.Name, paymentLabel(order.PaymentMethod), displayPaymentStatus(order.PaymentMethod, order.PaymentStatus))
		b.userNotice("Order Placed", fmt.Sprintf("You placed a new order %s.", code))
		b.adminNotice("New Order Placed", adminMsg)
		b.adminExternal("New Order Placed", adminMsg)
		b.userEmailMessage("Order Confirmation", fmt.Sprintf("Your order %s has been placed.", code))

	case constants.EventOrderConfirmed, constants.EventOrderShipped:
		status := "confirmed"
		if event.Event == constants.EventOrderShipped {
			status = "shipped"
		}
		b.userNotice("Order Update", fmt.Sprintf("Your order %s has been %s.", code, status))
		b.userEmailMessage("Order "+status, fmt.Sprintf("Your order %s has been %s.", code, status))

	case constants.EventOrderDelivered:
		b.userNotice("Order Delivered", fmt.Sprintf("Your order %s has been delivered.", code))
		if event.Actor == constants.ActorUser {
			msg := fmt.Sprintf("Order Received by Customer\nOrder: %s\nCustomer: %s", code, order.Customer.Name)
			b.adminNotice("Order Received", msg)
			b.adminExternal("Order Received", msg)
		} else {
			b.userEmailMessage("Order Delivered", fmt.Sprintf("Your order %s has been delivered.", code))
		}

	case constants.EventOrderCancelled:
		if event.Actor == constants.ActorUser {
			b.userNotice("Order Cancelled", fmt.Sprintf("You cancelled order %s.", code))
			msg := fmt.Sprintf("Order Cancelled by User\nOrder: %s\nCustomer: %s", code, order.Customer.Name)
			b.adminNotice("Order Cancelled", msg)
			b.adminExternal("Order Cancelled", msg)
		} else {
			b.userNotice("Order Cancelled", fmt.Sprintf("Your order %s has been cancelled by admin.", code))
			b.userEmailMessage("Order Cancelled", fmt.Sprintf("Your order %s has been cancelled.", code))
		}

	case constants.EventOrderReturned:
		b.userNotice("Order Returned", fmt.Sprintf("Your order %s has been returned.", code))
		b.userEmailMessage("Order Returned", fmt.Sprintf(
			"Your order %s has been returned. If payment was made online, it has been refunded or is being processed.", code))
	}
	return b.plan
}

func (b *planBuilder) notice(recipientType string, recipientID *uint, title, message string) {
	orderID := b.order.ID
	b.plan.InApp = append(b.plan.InApp, models.Notification{
		RecipientType: recipientType,
		RecipientID:   recipientID,
		Event:         b.event.Event,
		Title:         title,
		Message:       message,
		OrderID:       &orderID,
		ExpiresAt:     b.expiresAt,
	})
}

// userNotice 下单用户站内通知；后台手工单无用户时跳过
func (b *planBuilder) userNotice(title, message string) {
	if b.order.UserID == nil {
		return
	}
	userID := *b.order.UserID
	b.notice(constants.RecipientUser, &userID, title, message)
}

func (b *planBuilder) adminNotice(title, message string) {
	b.notice(constants.RecipientAdmin, nil, title, message)
}

// adminExternal 按渠道开关发送管理员邮件与 WhatsApp
func (b *planBuilder) adminExternal(subject, body string) {
	if b.setting.EmailEnabled && strings.TrimSpace(b.setting.NotificationEmail) != "" {
		b.plan.External = append(b.plan.External, externalMessage{
			Channel: constants.ChannelAdminEmail,
			To:      strings.TrimSpace(b.setting.NotificationEmail),
			Subject: subject,
			Body:    body,
		})
	}
	if b.setting.WhatsAppEnabled && strings.TrimSpace(b.setting.WhatsAppNumber) != "" {
		b.plan.External = append(b.plan.External, externalMessage{
			Channel: constants.ChannelAdminWhatsApp,
			To:      strings.TrimSpace(b.setting.WhatsAppNumber),
			Body:    body,
		})
	}
}

func (b *planBuilder) userEmailMessage(subject, body string) {
	if b.order.UserID == nil || b.userEmail == "" {
		return
	}
	b.plan.External = append(b.plan.External, externalMessage{
		Channel: constants.ChannelUserEmail,
		To:      b.userEmail,
		Subject: subject,
		Body:    body,
	})
}

func paymentLabel(method string) string {
	if method == "" {
		return "not selected"
	}
	return method
}

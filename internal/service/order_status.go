package service

import (
	"github.com/scentshop/internal/constants"
)

// orderTransitions 订单状态流转表
var orderTransitions = map[string][]string{
	constants.OrderStatusPending:   {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:   {constants.OrderStatusDelivered, constants.OrderStatusReturned},
}

// canTransition 判断状态是否可流转
func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// stockDeducted 该状态下订单库存是否已扣减
func stockDeducted(status string) bool {
	return status == constants.OrderStatusConfirmed || status == constants.OrderStatusShipped
}

// paymentMethodLocked 支付方式是否已不可修改
func paymentMethodLocked(status string) bool {
	switch status {
	case constants.OrderStatusCancelled, constants.OrderStatusShipped, constants.OrderStatusDelivered, constants.OrderStatusReturned:
		return true
	}
	return false
}

// displayPaymentStatus 后台展示的支付状态：在线支付未退款即视为已付
func displayPaymentStatus(method, status string) string {
	if method == constants.PaymentMethodOnline && status != constants.PaymentStatusRefunded {
		return constants.PaymentStatusPaid
	}
	return status
}

func normalizePaymentMethod(method string) string {
	switch method {
	case constants.PaymentMethodOnline, constants.PaymentMethodCash:
		return method
	}
	return ""
}

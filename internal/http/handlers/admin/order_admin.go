package admin

import (
	"context"
	"strings"

	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/repository"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表，status 支持逗号分隔多个状态
func (h *Handler) AdminListOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Statuses: splitQueryList(c.Query("status")),
		Source:   strings.TrimSpace(c.Query("source")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	views, total, err := h.OrderService.ListAdminOrders(actor, filter)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, "order fetch failed")
		return
	}
	response.SuccessWithPage(c, views, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.OrderService.GetAdminOrder(actor, orderID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, "order fetch failed")
		return
	}
	response.Success(c, view)
}

// AdminCreateManualOrder 后台手工建单
func (h *Handler) AdminCreateManualOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req service.ManualOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	view, err := h.OrderService.CreateManualOrder(c.Request.Context(), actor, req)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, "order create failed")
		return
	}
	response.Success(c, view)
}

// AdminConfirmOrder 确认订单并扣减库存
func (h *Handler) AdminConfirmOrder(c *gin.Context) {
	h.runOrderTransition(c, h.OrderService.ConfirmOrder, "order confirm failed")
}

// AdminShipOrder 发货
func (h *Handler) AdminShipOrder(c *gin.Context) {
	h.runOrderTransition(c, h.OrderService.ShipOrder, "order ship failed")
}

// AdminReturnOrder 退货并恢复库存
func (h *Handler) AdminReturnOrder(c *gin.Context) {
	h.runOrderTransition(c, h.OrderService.ReturnOrder, "order return failed")
}

// AdminMarkDelivered 管理员代为确认签收
func (h *Handler) AdminMarkDelivered(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.OrderService.MarkReceived(c.Request.Context(), actor, orderID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, "order deliver failed")
		return
	}
	response.SuccessWithMsg(c, result.Message, result)
}

// AdminCancelOrder 管理员取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.OrderService.CancelOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, "order cancel failed")
		return
	}
	response.SuccessWithMsg(c, result.Message, result)
}

type orderTransitionFunc func(ctx context.Context, actor service.Actor, orderID uint) (*service.OrderView, error)

func (h *Handler) runOrderTransition(c *gin.Context, fn orderTransitionFunc, fallbackMsg string) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := fn(c.Request.Context(), actor, orderID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, fallbackMsg)
		return
	}
	response.Success(c, view)
}

func splitQueryList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.ToLower(strings.TrimSpace(part)); value != "" {
			result = append(result, value)
		}
	}
	return result
}

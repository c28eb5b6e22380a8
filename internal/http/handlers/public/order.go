package public

import (
	handlershared "github.com/scentshop/internal/http/handlers/shared"
	"github.com/scentshop/internal/http/response"
	"github.com/scentshop/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Qty       int    `json:"qty" binding:"required"`
	Variant   string `json:"variant"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items         []OrderItemRequest    `json:"items" binding:"required"`
	Customer      service.CustomerInput `json:"customer"`
	PaymentMethod string                `json:"payment_method"`
}

// PaymentMethodRequest 修改支付方式请求
type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Qty:       item.Qty,
			Variant:   item.Variant,
		})
	}
	view, err := h.OrderService.CreateOrder(c.Request.Context(), actor, service.CreateOrderInput{
		Items:         items,
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, view)
}

// ListOrders 我的订单
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	views, total, err := h.OrderService.ListMyOrders(actor, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, "order fetch failed")
		return
	}
	response.SuccessWithPage(c, views, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情（仅本人）
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.OrderService.GetMyOrder(actor, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, "order fetch failed")
		return
	}
	response.Success(c, view)
}

// CancelOrder 取消订单，重复取消视为成功
func (h *Handler) CancelOrder(c *gin.Context) {
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
		respondOrderActionError(c, err)
		return
	}
	response.SuccessWithMsg(c, result.Message, result)
}

// MarkReceived 确认收货；未发货时 delivered=false
func (h *Handler) MarkReceived(c *gin.Context) {
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
		respondOrderActionError(c, err)
		return
	}
	response.SuccessWithMsg(c, result.Message, result)
}

// UpdatePaymentMethod 修改支付方式
func (h *Handler) UpdatePaymentMethod(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	view, err := h.OrderService.UpdatePaymentMethod(c.Request.Context(), actor, orderID, req.PaymentMethod)
	if err != nil {
		respondOrderActionError(c, err)
		return
	}
	response.Success(c, view)
}

// PayOrder 标记在线支付完成，重复支付视为成功
func (h *Handler) PayOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.OrderService.PayOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondOrderActionError(c, err)
		return
	}
	response.SuccessWithMsg(c, result.Message, result)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/logger"
	"github.com/scentshop/internal/loyalty"
	"github.com/scentshop/internal/metrics"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/pricing"
	"github.com/scentshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventPublisher 出站事件发布器（事务提交后调用）
type EventPublisher interface {
	Publish(ctx context.Context, event *models.OutboxEvent)
}

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	outboxRepo     repository.OutboxRepository
	loyaltyService *LoyaltyService
	publisher      EventPublisher
	deliveryCharge decimal.Decimal
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository, outboxRepo repository.OutboxRepository, loyaltyService *LoyaltyService, publisher EventPublisher, cfg *config.OrderConfig) *OrderService {
	charge := decimal.Zero
	if cfg != nil && cfg.DeliveryCharge > 0 {
		charge = decimal.NewFromFloat(cfg.DeliveryCharge).Round(2)
	}
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		userRepo:       userRepo,
		outboxRepo:     outboxRepo,
		loyaltyService: loyaltyService,
		publisher:      publisher,
		deliveryCharge: charge,
	}
}

// CustomerInput 收货信息
type CustomerInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Note    string `json:"note"`
}

func (c CustomerInput) snapshot() (models.CustomerSnapshot, error) {
	snap := models.CustomerSnapshot{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Note:    strings.TrimSpace(c.Note),
	}
	if snap.Name == "" || snap.Phone == "" || snap.Address == "" {
		return snap, ErrCustomerInfoRequired
	}
	return snap, nil
}

// CreateOrderItem 下单商品
type CreateOrderItem struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Qty       int    `json:"qty"`
	Variant   string `json:"variant"`
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	Items         []CreateOrderItem `json:"items"`
	Customer      CustomerInput     `json:"customer"`
	PaymentMethod string            `json:"payment_method"`
}

// ManualOrderItem 后台手工订单商品
type ManualOrderItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ManualOrderInput 后台手工订单输入
type ManualOrderInput struct {
	Items    []ManualOrderItem `json:"items"`
	Customer CustomerInput     `json:"customer"`
	Notes    string            `json:"notes"`
}

// OrderView 订单视图
type OrderView struct {
	*models.Order
	Code                 string `json:"code"`
	DisplayPaymentStatus string `json:"display_payment_status"`
}

// DeliveryResult 确认收货结果
type DeliveryResult struct {
	Delivered bool       `json:"delivered"`
	Message   string     `json:"message"`
	Order     *OrderView `json:"order,omitempty"`
}

// CancelResult 取消结果
type CancelResult struct {
	AlreadyCancelled bool       `json:"already_cancelled"`
	Message          string     `json:"message"`
	Order            *OrderView `json:"order,omitempty"`
}

// PayResult 支付结果
type PayResult struct {
	AlreadyPaid bool       `json:"already_paid"`
	Paid        bool       `json:"paid"`
	Message     string     `json:"message"`
	Order       *OrderView `json:"order,omitempty"`
}

// CreateOrder 用户下单：价格以商品价格表为准，不预占库存
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderView, error) {
	if actor.UserID == 0 {
		return nil, ErrLoginRequired
	}
	if len(input.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}
	customer, err := input.Customer.snapshot()
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if customer.Email == "" {
		customer.Email = user.Email
	}

	items, subtotal, err := s.buildOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	snapshot := loyalty.Apply(user.LoyaltyTier, subtotal)
	total := subtotal.Add(s.deliveryCharge).Sub(snapshot.Discount)

	userID := user.ID
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          &userID,
		Source:          constants.OrderSourceWebsite,
		Status:          constants.OrderStatusPending,
		PaymentMethod:   normalizePaymentMethod(strings.ToLower(strings.TrimSpace(input.PaymentMethod))),
		PaymentStatus:   constants.PaymentStatusUnpaid,
		Subtotal:        models.NewMoneyFromDecimal(subtotal),
		DeliveryCharge:  models.NewMoneyFromDecimal(s.deliveryCharge),
		LoyaltyTier:     snapshot.Tier,
		LoyaltyPercent:  snapshot.Percent,
		LoyaltyDiscount: models.NewMoneyFromDecimal(snapshot.Discount),
		Total:           models.NewMoneyFromDecimal(total),
		Customer:        customer,
		Items:           items,
		ReviewQueue:     buildReviewQueue(items),
	}

	var event *models.OutboxEvent
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		event, err = s.recordEvent(tx, constants.EventOrderPlaced, order.ID, constants.ActorUser)
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Errorw("order_create_failed", "user_id", userID, "error", err)
		return nil, ErrOrderCreateFailed
	}
	logger.FromContext(ctx).Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", userID,
		"total", order.Total.String(),
	)
	s.publish(ctx, event)
	return buildOrderView(order, false), nil
}

// buildOrderItems 按商品当前价格表生成订单项快照
func (s *OrderService) buildOrderItems(inputs []CreateOrderItem) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(inputs))
	for _, item := range inputs {
		if item.ProductID == 0 || item.Qty <= 0 {
			return nil, decimal.Zero, ErrInvalidOrderItem
		}
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	productMap := make(map[uint]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		product := productMap[input.ProductID]
		if product == nil || !product.IsActive {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d", ErrProductUnavailable, input.ProductID)
		}
		sizeMl, ok := pricing.ParseSize(input.Size)
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidSize, input.Size)
		}
		price, ok := pricing.Calculate(product.PricingInput()).Lookup(sizeMl)
		if !ok {
			return nil, decimal.Zero, ErrInvalidPrice
		}
		variant := strings.TrimSpace(input.Variant)
		if variant != "" && len(product.FragranceVariants) > 0 && !product.FragranceVariants.Contains(variant) {
			return nil, decimal.Zero, ErrInvalidOrderItem
		}
		unit := price.Effective()
		lineTotal := unit.Mul(decimal.NewFromInt(int64(input.Qty)))
		subtotal = subtotal.Add(lineTotal)

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      pricing.SizeLabel(sizeMl),
			SizeMl:    sizeMl,
			Qty:       input.Qty,
			UnitPrice: models.NewMoneyFromDecimal(unit),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
			Variant:   variant,
			Image:     image,
		})
	}
	return items, subtotal, nil
}

// CreateManualOrder 后台手工建单：无下单用户，视为已付款，不触发下单通知
func (s *OrderService) CreateManualOrder(ctx context.Context, actor Actor, input ManualOrderInput) (*OrderView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}
	customer, err := input.Customer.snapshot()
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		name := strings.TrimSpace(in.Name)
		if in.Qty <= 0 || in.UnitPrice.IsNegative() {
			return nil, ErrInvalidOrderItem
		}
		item := models.OrderItem{
			ProductID: in.ProductID,
			Size:      strings.TrimSpace(in.Size),
			Qty:       in.Qty,
		}
		if item.Size == "" {
			item.Size = constants.ManualItemSize
		}
		if in.ProductID != 0 {
			product, err := s.productRepo.GetByID(in.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, ErrProductNotFound
			}
			if name == "" {
				name = product.Name
			}
			if sizeMl, ok := pricing.ParseSize(item.Size); ok {
				item.SizeMl = sizeMl
				item.Size = pricing.SizeLabel(sizeMl)
			}
		}
		if name == "" {
			return nil, ErrInvalidOrderItem
		}
		item.Name = name
		unit := in.UnitPrice.Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(in.Qty)))
		item.UnitPrice = models.NewMoneyFromDecimal(unit)
		item.LineTotal = models.NewMoneyFromDecimal(lineTotal)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, item)
	}

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		Source:         constants.OrderSourceAdmin,
		Status:         constants.OrderStatusPending,
		PaymentMethod:  constants.PaymentMethodManual,
		PaymentStatus:  constants.PaymentStatusPaid,
		Subtotal:       models.NewMoneyFromDecimal(subtotal),
		DeliveryCharge: models.NewMoneyFromDecimal(decimal.Zero),
		LoyaltyTier:    constants.TierBronze,
		Total:          models.NewMoneyFromDecimal(subtotal),
		Customer:       customer,
		Notes:          strings.TrimSpace(input.Notes),
		Items:          items,
	}
	if err := s.orderRepo.Create(order); err != nil {
		logger.FromContext(ctx).Errorw("manual_order_create_failed", "admin_id", actor.UserID, "error", err)
		return nil, ErrOrderCreateFailed
	}
	logger.FromContext(ctx).Infow("manual_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"admin_id", actor.UserID,
	)
	return buildOrderView(order, true), nil
}

// ConfirmOrder 确认订单：事务内条件扣减全部规格库存，任一不足整体回滚
func (s *OrderService) ConfirmOrder(ctx context.Context, actor Actor, orderID uint) (*OrderView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var order *models.Order
	var event *models.OutboxEvent
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status != constants.OrderStatusPending {
			return ErrOrderStatusInvalid
		}
		if current.PaymentMethod == constants.PaymentMethodOnline && current.PaymentStatus != constants.PaymentStatusPaid {
			return ErrOnlinePaymentPending
		}
		if err := s.deductStock(ctx, s.productRepo.WithTx(tx), current); err != nil {
			return err
		}
		now := time.Now()
		if err := transition(orderRepo, current, constants.OrderStatusConfirmed, map[string]interface{}{
			"confirmed_at": now,
		}); err != nil {
			return err
		}
		current.ConfirmedAt = &now
		event, err = s.recordEvent(tx, constants.EventOrderConfirmed, current.ID, constants.ActorAdmin)
		order = current
		return err
	})
	if err != nil {
		logTransitionError(ctx, "order_confirm_failed", orderID, err)
		return nil, err
	}
	s.publish(ctx, event)
	return buildOrderView(order, true), nil
}

// ShipOrder 发货
func (s *OrderService) ShipOrder(ctx context.Context, actor Actor, orderID uint) (*OrderView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var order *models.Order
	var event *models.OutboxEvent
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status != constants.OrderStatusConfirmed {
			return ErrOrderStatusInvalid
		}
		now := time.Now()
		if err := transition(orderRepo, current, constants.OrderStatusShipped, map[string]interface{}{
			"shipped_at": now,
		}); err != nil {
			return err
		}
		current.ShippedAt = &now
		event, err = s.recordEvent(tx, constants.EventOrderShipped, current.ID, constants.ActorAdmin)
		order = current
		return err
	})
	if err != nil {
		logTransitionError(ctx, "order_ship_failed", orderID, err)
		return nil, err
	}
	s.publish(ctx, event)
	return buildOrderView(order, true), nil
}

// MarkReceived 确认收货（订单所有者或管理员）；未发货时返回未生效结果而非错误
func (s *OrderService) MarkReceived(ctx context.Context, actor Actor, orderID uint) (*DeliveryResult, error) {
	var order *models.Order
	var event *models.OutboxEvent
	notShipped := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if !actor.IsAdmin() && !current.OwnedBy(actor.UserID) {
			return ErrForbidden
		}
		order = current
		if current.Status != constants.OrderStatusShipped {
			notShipped = true
			return nil
		}

		applied, err := orderRepo.MarkSoldCountApplied(current.ID)
		if err != nil {
			return err
		}
		if applied > 0 {
			productRepo := s.productRepo.WithTx(tx)
			for _, item := range current.Items {
				if err := productRepo.IncrementSoldCount(item.ProductID, item.Qty); err != nil {
					return err
				}
			}
			current.SoldCountApplied = true
		}
		if len(current.ReviewQueue) == 0 && current.UserID != nil {
			queue := buildReviewQueue(current.Items)
			for i := range queue {
				queue[i].OrderID = current.ID
			}
			if err := orderRepo.CreateReviewItems(queue); err != nil {
				return err
			}
			current.ReviewQueue = queue
		}

		now := time.Now()
		updates := map[string]interface{}{"delivered_at": now}
		if current.PaymentMethod == constants.PaymentMethodCash {
			updates["payment_status"] = constants.PaymentStatusPaid
		}
		if err := transition(orderRepo, current, constants.OrderStatusDelivered, updates); err != nil {
			return err
		}
		current.DeliveredAt = &now
		if current.PaymentMethod == constants.PaymentMethodCash {
			current.PaymentStatus = constants.PaymentStatusPaid
		}
		event, err = s.recordEvent(tx, constants.EventOrderDelivered, current.ID, actor.EventActor())
		return err
	})
	if err != nil {
		logTransitionError(ctx, "order_deliver_failed", orderID, err)
		return nil, err
	}
	if notShipped {
		return &DeliveryResult{Delivered: false, Message: "order not shipped yet", Order: buildOrderView(order, actor.IsAdmin())}, nil
	}
	s.publish(ctx, event)
	s.refreshLoyalty(ctx, order)
	return &DeliveryResult{Delivered: true, Message: "order delivered", Order: buildOrderView(order, actor.IsAdmin())}, nil
}

// refreshLoyalty 签收后重算会员等级，失败不影响签收
func (s *OrderService) refreshLoyalty(ctx context.Context, order *models.Order) {
	if s.loyaltyService == nil || order == nil || order.UserID == nil {
		return
	}
	if _, err := s.loyaltyService.Recalculate(ctx, *order.UserID); err != nil {
		logger.FromContext(ctx).Warnw("loyalty_recalculate_failed",
			"order_id", order.ID,
			"user_id", *order.UserID,
			"error", err,
		)
	}
}

// CancelOrder 取消订单：已确认订单回补库存，已付款标记退款；重复取消幂等成功
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint) (*CancelResult, error) {
	var order *models.Order
	var event *models.OutboxEvent
	alreadyCancelled := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if !actor.IsAdmin() && !current.OwnedBy(actor.UserID) {
			return ErrForbidden
		}
		order = current
		if current.Status == constants.OrderStatusCancelled {
			alreadyCancelled = true
			return nil
		}
		if !canTransition(current.Status, constants.OrderStatusCancelled) {
			return ErrOrderStatusInvalid
		}
		if stockDeducted(current.Status) {
			if err := s.restoreStock(ctx, s.productRepo.WithTx(tx), current); err != nil {
				return err
			}
		}
		now := time.Now()
		updates := map[string]interface{}{"cancelled_at": now}
		if current.PaymentStatus == constants.PaymentStatusPaid {
			updates["payment_status"] = constants.PaymentStatusRefunded
		}
		if err := transition(orderRepo, current, constants.OrderStatusCancelled, updates); err != nil {
			return err
		}
		current.CancelledAt = &now
		if current.PaymentStatus == constants.PaymentStatusPaid {
			current.PaymentStatus = constants.PaymentStatusRefunded
		}
		event, err = s.recordEvent(tx, constants.EventOrderCancelled, current.ID, actor.EventActor())
		return err
	})
	if err != nil {
		logTransitionError(ctx, "order_cancel_failed", orderID, err)
		return nil, err
	}
	if alreadyCancelled {
		return &CancelResult{AlreadyCancelled: true, Message: "order already cancelled", Order: buildOrderView(order, actor.IsAdmin())}, nil
	}
	s.publish(ctx, event)
	return &CancelResult{Message: "order cancelled", Order: buildOrderView(order, actor.IsAdmin())}, nil
}

// ReturnOrder 退货：回补库存，在线已付款标记退款
func (s *OrderService) ReturnOrder(ctx context.Context, actor Actor, orderID uint) (*OrderView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var order *models.Order
	var event *models.OutboxEvent
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status != constants.OrderStatusShipped {
			return ErrOrderStatusInvalid
		}
		if err := s.restoreStock(ctx, s.productRepo.WithTx(tx), current); err != nil {
			return err
		}
		now := time.Now()
		refund := current.PaymentMethod == constants.PaymentMethodOnline && current.PaymentStatus == constants.PaymentStatusPaid
		updates := map[string]interface{}{"returned_at": now}
		if refund {
			updates["payment_status"] = constants.PaymentStatusRefunded
		}
		if err := transition(orderRepo, current, constants.OrderStatusReturned, updates); err != nil {
			return err
		}
		current.ReturnedAt = &now
		if refund {
			current.PaymentStatus = constants.PaymentStatusRefunded
		}
		event, err = s.recordEvent(tx, constants.EventOrderReturned, current.ID, constants.ActorAdmin)
		order = current
		return err
	})
	if err != nil {
		logTransitionError(ctx, "order_return_failed", orderID, err)
		return nil, err
	}
	s.publish(ctx, event)
	return buildOrderView(order, true), nil
}

// UpdatePaymentMethod 用户修改支付方式（仅 cash/online），修改后重置为未支付
func (s *OrderService) UpdatePaymentMethod(ctx context.Context, actor Actor, orderID uint, method string) (*OrderView, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method != constants.PaymentMethodCash && method != constants.PaymentMethodOnline {
		return nil, ErrInvalidPaymentMethod
	}
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if !current.OwnedBy(actor.UserID) {
			return ErrForbidden
		}
		order = current
		if paymentMethodLocked(current.Status) {
			return ErrPaymentMethodLocked
		}
		if current.PaymentMethod == method {
			return nil
		}
		if err := orderRepo.UpdateFields(current.ID, map[string]interface{}{
			"payment_method": method,
			"payment_status": constants.PaymentStatusUnpaid,
		}); err != nil {
			return err
		}
		current.PaymentMethod = method
		current.PaymentStatus = constants.PaymentStatusUnpaid
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("order_payment_method_updated", "order_id", orderID, "method", method)
	return buildOrderView(order, false), nil
}

// PayOrder 用户支付：在线支付直接标记已付；货到付款保持未付直到签收
func (s *OrderService) PayOrder(ctx context.Context, actor Actor, orderID uint) (*PayResult, error) {
	var result PayResult
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		current, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if !current.OwnedBy(actor.UserID) {
			return ErrForbidden
		}
		order = current
		if current.PaymentStatus == constants.PaymentStatusPaid {
			result.AlreadyPaid = true
			result.Paid = true
			result.Message = "order already paid"
			return nil
		}
		if current.Status == constants.OrderStatusCancelled || current.Status == constants.OrderStatusReturned {
			return ErrOrderNotPayable
		}
		switch current.PaymentMethod {
		case constants.PaymentMethodOnline:
			if err := orderRepo.UpdateFields(current.ID, map[string]interface{}{
				"payment_status": constants.PaymentStatusPaid,
			}); err != nil {
				return err
			}
			current.PaymentStatus = constants.PaymentStatusPaid
			result.Paid = true
			result.Message = "payment recorded"
		case constants.PaymentMethodCash:
			result.Message = "cash on delivery"
		default:
			return ErrInvalidPaymentMethod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Paid && !result.AlreadyPaid {
		logger.FromContext(ctx).Infow("order_paid", "order_id", orderID, "user_id", actor.UserID)
	}
	result.Order = buildOrderView(order, false)
	return &result, nil
}

// ListMyOrders 用户订单列表
func (s *OrderService) ListMyOrders(actor Actor, page, pageSize int) ([]OrderView, int64, error) {
	if actor.UserID == 0 {
		return nil, 0, ErrLoginRequired
	}
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   actor.UserID,
	})
	if err != nil {
		return nil, 0, err
	}
	return buildOrderViews(orders, false), total, nil
}

// GetMyOrder 用户订单详情
func (s *OrderService) GetMyOrder(actor Actor, orderID uint) (*OrderView, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.OwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	return buildOrderView(order, false), nil
}

// ListAdminOrders 后台订单列表
func (s *OrderService) ListAdminOrders(actor Actor, filter repository.OrderListFilter) ([]OrderView, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, err
	}
	return buildOrderViews(orders, true), total, nil
}

// GetAdminOrder 后台订单详情
func (s *OrderService) GetAdminOrder(actor Actor, orderID uint) (*OrderView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return buildOrderView(order, true), nil
}

// deductStock 逐项条件扣减；商品已删除的行跳过
func (s *OrderService) deductStock(ctx context.Context, productRepo repository.ProductRepository, order *models.Order) error {
	for _, item := range order.Items {
		if !item.TracksStock() {
			continue
		}
		product, err := productRepo.GetByID(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			logger.FromContext(ctx).Warnw("order_confirm_product_missing",
				"order_id", order.ID,
				"product_id", item.ProductID,
			)
			continue
		}
		affected, err := productRepo.DecrementStock(item.ProductID, item.SizeMl, item.Qty)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &StockShortageError{ProductName: product.Name, Size: item.Size}
		}
	}
	return nil
}

// restoreStock 回补确认时扣减的库存
func (s *OrderService) restoreStock(ctx context.Context, productRepo repository.ProductRepository, order *models.Order) error {
	for _, item := range order.Items {
		if !item.TracksStock() {
			continue
		}
		affected, err := productRepo.RestoreStock(item.ProductID, item.SizeMl, item.Qty)
		if err != nil {
			return err
		}
		if affected == 0 {
			logger.FromContext(ctx).Warnw("order_restore_size_missing",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"size", item.Size,
			)
		}
	}
	return nil
}

// transition 按流转表校验后条件更新状态
func transition(orderRepo repository.OrderRepository, order *models.Order, to string, updates map[string]interface{}) error {
	if !canTransition(order.Status, to) {
		return ErrOrderStatusInvalid
	}
	affected, err := orderRepo.TransitionStatus(order.ID, []string{order.Status}, to, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderTransitionConflict
	}
	order.Status = to
	return nil
}

func (s *OrderService) recordEvent(tx *gorm.DB, name string, orderID uint, actor string) (*models.OutboxEvent, error) {
	event := &models.OutboxEvent{
		Event:   name,
		OrderID: orderID,
		Actor:   actor,
		Status:  constants.OutboxStatusPending,
	}
	if err := s.outboxRepo.WithTx(tx).Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *OrderService) publish(ctx context.Context, event *models.OutboxEvent) {
	if event == nil {
		return
	}
	metrics.RecordOrderTransition(event.Event, event.Actor)
	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

func logTransitionError(ctx context.Context, message string, orderID uint, err error) {
	log := logger.FromContext(ctx)
	var shortage *StockShortageError
	switch {
	case errors.As(err, &shortage):
		log.Infow(message, "order_id", orderID, "product", shortage.ProductName, "size", shortage.Size, "error", err)
	case isDomainError(err):
		log.Infow(message, "order_id", orderID, "error", err)
	default:
		log.Errorw(message, "order_id", orderID, "error", err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrOrderNotFound,
		ErrForbidden,
		ErrAdminRequired,
		ErrOrderStatusInvalid,
		ErrOnlinePaymentPending,
		ErrOrderTransitionConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// buildReviewQueue 每个商品一条待评价记录
func buildReviewQueue(items []models.OrderItem) []models.OrderReviewItem {
	seen := make(map[uint]struct{}, len(items))
	queue := make([]models.OrderReviewItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		queue = append(queue, models.OrderReviewItem{ProductID: item.ProductID})
	}
	return queue
}

func buildOrderView(order *models.Order, admin bool) *OrderView {
	if order == nil {
		return nil
	}
	view := &OrderView{
		Order:                order,
		Code:                 order.Code(),
		DisplayPaymentStatus: order.PaymentStatus,
	}
	if admin {
		view.DisplayPaymentStatus = displayPaymentStatus(order.PaymentMethod, order.PaymentStatus)
	}
	return view
}

func buildOrderViews(orders []models.Order, admin bool) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, *buildOrderView(&orders[i], admin))
	}
	return views
}

// generateOrderNo 生成 12 位大写十六进制订单号
func generateOrderNo() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:12])
}

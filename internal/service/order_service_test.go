package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"github.com/shopspring/decimal"
)

func TestOrderLifecycleWithGoldDiscount(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "gold@shop.test", constants.RoleUser, constants.TierGold)
	product := f.createProduct(t, "Oud Royale", 10)

	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2})
	if !view.Subtotal.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected subtotal 1000, got %s", view.Subtotal)
	}
	if !view.LoyaltyDiscount.Decimal.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected gold discount 35, got %s", view.LoyaltyDiscount)
	}
	if !view.Total.Decimal.Equal(decimal.NewFromInt(1065)) {
		t.Fatalf("expected total 1065, got %s", view.Total)
	}
	if view.Status != constants.OrderStatusPending || view.PaymentStatus != constants.PaymentStatusUnpaid {
		t.Fatalf("unexpected initial state: %s/%s", view.Status, view.PaymentStatus)
	}
	if f.stockOf(t, product.ID, 6) != 10 {
		t.Fatalf("stock must not be reserved at creation")
	}

	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if got := f.stockOf(t, product.ID, 6); got != 8 {
		t.Fatalf("expected stock 8 after confirm, got %d", got)
	}

	result, err := f.orderService.CancelOrder(ctx, actorOf(user), view.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.AlreadyCancelled || result.Order.Status != constants.OrderStatusCancelled {
		t.Fatalf("unexpected cancel result: %+v", result)
	}
	if got := f.stockOf(t, product.ID, 6); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	again, err := f.orderService.CancelOrder(ctx, actorOf(user), view.ID)
	if err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}
	if !again.AlreadyCancelled {
		t.Fatalf("expected idempotent cancel")
	}
	if got := f.stockOf(t, product.ID, 6); got != 10 {
		t.Fatalf("second cancel must not restore again, got %d", got)
	}

	want := []string{constants.EventOrderPlaced, constants.EventOrderConfirmed, constants.EventOrderCancelled}
	got := f.publisher.names()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestConfirmTwiceIsRejected(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "twice@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Amber Night", 5)
	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "3ml", Qty: 1})

	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	_, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID)
	if !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
	if got := f.stockOf(t, product.ID, 3); got != 4 {
		t.Fatalf("expected one decrement only, got stock %d", got)
	}
}

func TestConfirmShortageRollsBackEveryLine(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "short@shop.test", constants.RoleUser, constants.TierBronze)
	plenty := f.createProduct(t, "Plenty", 10)
	scarce := f.createProduct(t, "Scarce", 1)

	view := f.placeOrder(t, user, "cash",
		CreateOrderItem{ProductID: plenty.ID, Size: "6ml", Qty: 3},
		CreateOrderItem{ProductID: scarce.ID, Size: "12ml", Qty: 2},
	)
	_, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var shortage *StockShortageError
	if !errors.As(err, &shortage) || shortage.ProductName != "Scarce" || shortage.Size != "12ml" {
		t.Fatalf("expected shortage detail for Scarce 12ml, got %v", err)
	}
	if got := f.stockOf(t, plenty.ID, 6); got != 10 {
		t.Fatalf("expected first line rolled back, got stock %d", got)
	}
	order, _ := f.orderRepo.GetByID(view.ID)
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected order to stay pending, got %s", order.Status)
	}
}

func TestCancelPendingLeavesStockUntouched(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "pending@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Velvet Rose", 4)

	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2})
	if got := f.stockOf(t, product.ID, 6); got != 4 {
		t.Fatalf("placing an order must not reserve stock, got %d", got)
	}
	result, err := f.orderService.CancelOrder(ctx, actorOf(user), view.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.AlreadyCancelled || result.Order.Status != constants.OrderStatusCancelled {
		t.Fatalf("unexpected cancel result: %+v", result)
	}
	if got := f.stockOf(t, product.ID, 6); got != 4 {
		t.Fatalf("cancelling a pending order must leave stock at 4, got %d", got)
	}
}

func TestConcurrentConfirmsNeverOversell(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	first := f.createUser(t, "first@shop.test", constants.RoleUser, constants.TierBronze)
	second := f.createUser(t, "second@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Saffron Oud", 3)
	orders := []*OrderView{
		f.placeOrder(t, first, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2}),
		f.placeOrder(t, second, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2}),
	}

	// 单连接：两个确认事务依次拿到连接
	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	errs := make([]error, len(orders))
	var wg sync.WaitGroup
	for i, order := range orders {
		wg.Add(1)
		go func(i int, orderID uint) {
			defer wg.Done()
			_, errs[i] = f.orderService.ConfirmOrder(ctx, f.admin, orderID)
		}(i, order.ID)
	}
	wg.Wait()

	confirmed, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrInsufficientStock):
			short++
			if err.Error() != "insufficient stock for Saffron Oud (6ml)" {
				t.Fatalf("unexpected shortage message: %v", err)
			}
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	if confirmed != 1 || short != 1 {
		t.Fatalf("expected exactly one confirm and one shortage, got confirmed=%d short=%d", confirmed, short)
	}
	if got := f.stockOf(t, product.ID, 6); got != 1 {
		t.Fatalf("expected stock 1 after one confirm, got %d", got)
	}
}

func TestConfirmRequiresOnlinePayment(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "online@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Citrus", 5)
	view := f.placeOrder(t, user, "online", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 1})

	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); !errors.Is(err, ErrOnlinePaymentPending) {
		t.Fatalf("expected ErrOnlinePaymentPending, got %v", err)
	}
	paid, err := f.orderService.PayOrder(ctx, actorOf(user), view.ID)
	if err != nil || !paid.Paid {
		t.Fatalf("pay failed: %+v err=%v", paid, err)
	}
	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm after payment failed: %v", err)
	}
}

func TestDeliveryAppliesSoldCountAndLoyalty(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "deliver@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Vetiver", 200)

	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "12ml", Qty: 100})
	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	early, err := f.orderService.MarkReceived(ctx, actorOf(user), view.ID)
	if err != nil {
		t.Fatalf("mark received before shipping errored: %v", err)
	}
	if early.Delivered || early.Message != "order not shipped yet" {
		t.Fatalf("expected not shipped result, got %+v", early)
	}

	if _, err := f.orderService.ShipOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	result, err := f.orderService.MarkReceived(ctx, actorOf(user), view.ID)
	if err != nil || !result.Delivered {
		t.Fatalf("deliver failed: %+v err=%v", result, err)
	}
	if result.Order.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("cash order should be paid on delivery, got %s", result.Order.PaymentStatus)
	}

	again, err := f.orderService.MarkReceived(ctx, actorOf(user), view.ID)
	if err != nil || again.Delivered {
		t.Fatalf("second delivery should be a no-op: %+v err=%v", again, err)
	}

	stored, _ := f.productRepo.GetByID(product.ID)
	if stored.SoldCount != 100 {
		t.Fatalf("expected sold count 100, got %d", stored.SoldCount)
	}
	refreshed, _ := f.userRepo.GetByID(user.ID)
	if refreshed.LoyaltyTier != constants.TierSilver {
		t.Fatalf("expected silver tier after delivery, got %s", refreshed.LoyaltyTier)
	}
}

func TestShipRequiresConfirmedOrder(t *testing.T) {
	f := newShopFixture(t)
	user := f.createUser(t, "ship@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Musk", 3)
	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 1})

	if _, err := f.orderService.ShipOrder(context.Background(), f.admin, view.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestReturnRestoresStockAndRefundsOnline(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "return@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Iris", 4)
	view := f.placeOrder(t, user, "online", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2})

	if _, err := f.orderService.PayOrder(ctx, actorOf(user), view.ID); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := f.orderService.ShipOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	returned, err := f.orderService.ReturnOrder(ctx, f.admin, view.ID)
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if returned.Status != constants.OrderStatusReturned || returned.PaymentStatus != constants.PaymentStatusRefunded {
		t.Fatalf("unexpected return state: %s/%s", returned.Status, returned.PaymentStatus)
	}
	if got := f.stockOf(t, product.ID, 6); got != 4 {
		t.Fatalf("expected stock restored to 4, got %d", got)
	}
	if _, err := f.orderService.CancelOrder(ctx, f.admin, view.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("returned order must not be cancellable, got %v", err)
	}
}

func TestShippedOrderCannotBeCancelled(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "shipped@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Musk Tahara", 5)

	view := f.placeOrder(t, user, "cash", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 2})
	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := f.orderService.ShipOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := f.orderService.CancelOrder(ctx, f.admin, view.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("admin cancel of shipped order want ErrOrderStatusInvalid, got %v", err)
	}
	if _, err := f.orderService.CancelOrder(ctx, actorOf(user), view.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("owner cancel of shipped order want ErrOrderStatusInvalid, got %v", err)
	}
	order, _ := f.orderRepo.GetByID(view.ID)
	if order.Status != constants.OrderStatusShipped {
		t.Fatalf("order should stay shipped, got %s", order.Status)
	}
	if got := f.stockOf(t, product.ID, 6); got != 3 {
		t.Fatalf("stock should stay deducted at 3, got %d", got)
	}
}

func TestOrderOwnershipAndPaymentMethodLock(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	owner := f.createUser(t, "owner@shop.test", constants.RoleUser, constants.TierBronze)
	other := f.createUser(t, "other@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Rose", 5)
	view := f.placeOrder(t, owner, "", CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 1})

	if view.PaymentMethod != "" {
		t.Fatalf("unknown payment method should be stored empty, got %q", view.PaymentMethod)
	}
	if _, err := f.orderService.GetMyOrder(actorOf(other), view.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign order, got %v", err)
	}
	if _, err := f.orderService.CancelOrder(ctx, actorOf(other), view.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden cancelling foreign order, got %v", err)
	}
	if _, err := f.orderService.PayOrder(ctx, actorOf(owner), view.ID); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod without method, got %v", err)
	}
	updated, err := f.orderService.UpdatePaymentMethod(ctx, actorOf(owner), view.ID, "cash")
	if err != nil || updated.PaymentMethod != constants.PaymentMethodCash {
		t.Fatalf("update payment method failed: %v", err)
	}
	pay, err := f.orderService.PayOrder(ctx, actorOf(owner), view.ID)
	if err != nil || pay.Paid || pay.Message != "cash on delivery" {
		t.Fatalf("unexpected cash pay result: %+v err=%v", pay, err)
	}

	if _, err := f.orderService.CancelOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if _, err := f.orderService.UpdatePaymentMethod(ctx, actorOf(owner), view.ID, "online"); !errors.Is(err, ErrPaymentMethodLocked) {
		t.Fatalf("expected ErrPaymentMethodLocked, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "valid@shop.test", constants.RoleUser, constants.TierBronze)
	product := f.createProduct(t, "Cedar", 5)
	customer := CustomerInput{Name: "A", Phone: "1", Address: "B"}

	cases := []struct {
		name  string
		input CreateOrderInput
		want  error
	}{
		{"empty", CreateOrderInput{Customer: customer}, ErrOrderItemsEmpty},
		{"bad size", CreateOrderInput{Customer: customer, Items: []CreateOrderItem{{ProductID: product.ID, Size: "7ml", Qty: 1}}}, ErrInvalidSize},
		{"zero qty", CreateOrderInput{Customer: customer, Items: []CreateOrderItem{{ProductID: product.ID, Size: "6ml"}}}, ErrInvalidOrderItem},
		{"missing product", CreateOrderInput{Customer: customer, Items: []CreateOrderItem{{ProductID: 9999, Size: "6ml", Qty: 1}}}, ErrProductUnavailable},
		{"no customer", CreateOrderInput{Items: []CreateOrderItem{{ProductID: product.ID, Size: "6ml", Qty: 1}}}, ErrCustomerInfoRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.orderService.CreateOrder(ctx, actorOf(user), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestManualOrderSkipsStockForFreeFormLines(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	product := f.createProduct(t, "Linked", 5)

	view, err := f.orderService.CreateManualOrder(ctx, f.admin, ManualOrderInput{
		Items: []ManualOrderItem{
			{ProductID: product.ID, Size: "6ml", Qty: 2, UnitPrice: decimal.NewFromInt(450)},
			{Name: "Gift wrap", Qty: 1, UnitPrice: decimal.NewFromInt(50)},
		},
		Customer: CustomerInput{Name: "Walk-in", Phone: "123", Address: "Store"},
		Notes:    "phone order",
	})
	if err != nil {
		t.Fatalf("manual order failed: %v", err)
	}
	if view.UserID != nil || view.Source != constants.OrderSourceAdmin || view.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("unexpected manual order: %+v", view.Order)
	}
	if !view.Total.Decimal.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("expected total 950, got %s", view.Total)
	}
	if view.Items[1].Size != constants.ManualItemSize {
		t.Fatalf("expected default manual size, got %s", view.Items[1].Size)
	}
	if len(f.publisher.names()) != 0 {
		t.Fatalf("manual order must not emit ORDER_PLACED")
	}

	if _, err := f.orderService.ConfirmOrder(ctx, f.admin, view.ID); err != nil {
		t.Fatalf("confirm manual order failed: %v", err)
	}
	if got := f.stockOf(t, product.ID, 6); got != 3 {
		t.Fatalf("expected linked line to deduct stock, got %d", got)
	}
}

func TestAdminViewReportsOnlineAsPaid(t *testing.T) {
	order := &models.Order{OrderNo: "ABCDEF123456", PaymentMethod: constants.PaymentMethodOnline, PaymentStatus: constants.PaymentStatusUnpaid}
	if view := buildOrderView(order, true); view.DisplayPaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected admin view to show paid, got %s", view.DisplayPaymentStatus)
	}
	if view := buildOrderView(order, false); view.DisplayPaymentStatus != constants.PaymentStatusUnpaid {
		t.Fatalf("expected user view to show actual status, got %s", view.DisplayPaymentStatus)
	}
	if code := order.Code(); code != "#ORD-123456" {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestGenerateOrderNoFormat(t *testing.T) {
	no := generateOrderNo()
	if len(no) != 12 {
		t.Fatalf("expected 12 chars, got %q", no)
	}
	for _, r := range no {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			t.Fatalf("unexpected character in %q", no)
		}
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OutboxEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.OutboxEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Event)
	}
	return names
}

type shopFixture struct {
	db             *gorm.DB
	productRepo    *repository.GormProductRepository
	orderRepo      *repository.GormOrderRepository
	userRepo       *repository.GormUserRepository
	outboxRepo     *repository.GormOutboxRepository
	reviewRepo     *repository.GormReviewRepository
	publisher      *recordingPublisher
	loyaltyService *LoyaltyService
	orderService   *OrderService
	productService *ProductService
	reviewService  *ReviewService
	admin          Actor
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()
	db := openServiceTestDB(t)
	f := &shopFixture{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		userRepo:    repository.NewUserRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
		reviewRepo:  repository.NewReviewRepository(db),
		publisher:   &recordingPublisher{},
	}
	f.loyaltyService = NewLoyaltyService(f.userRepo, f.orderRepo, nil)
	f.orderService = NewOrderService(f.orderRepo, f.productRepo, f.userRepo, f.outboxRepo, f.loyaltyService, f.publisher, &config.OrderConfig{DeliveryCharge: 100})
	f.productService = NewProductService(f.productRepo)
	f.reviewService = NewReviewService(f.reviewRepo, f.orderRepo, f.productRepo, f.userRepo)
	admin := f.createUser(t, "admin@shop.test", constants.RoleAdmin, constants.TierBronze)
	f.admin = Actor{UserID: admin.ID, Role: constants.RoleAdmin}
	return f
}

func (f *shopFixture) createUser(t *testing.T, email, role, tier string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Status:       constants.UserStatusActive,
		LoyaltyTier:  tier,
		LoyaltyMode:  constants.LoyaltyModeAuto,
	}
	if err := f.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *shopFixture) createProduct(t *testing.T, name string, stock int) *models.Product {
	t.Helper()
	productName := name
	basePrice := decimal.NewFromInt(500)
	product, err := f.productService.Create(context.Background(), f.admin, ProductInput{
		Name:         &productName,
		BasePrice:    &basePrice,
		InitialStock: stock,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *shopFixture) stockOf(t *testing.T, productID uint, sizeMl int) int {
	t.Helper()
	product, err := f.productRepo.GetByID(productID)
	if err != nil || product == nil {
		t.Fatalf("load product failed: %v", err)
	}
	size := product.BottleSize(sizeMl)
	if size == nil {
		t.Fatalf("size %dml missing", sizeMl)
	}
	return size.Stock
}

func (f *shopFixture) placeOrder(t *testing.T, user *models.User, method string, items ...CreateOrderItem) *OrderView {
	t.Helper()
	view, err := f.orderService.CreateOrder(context.Background(), Actor{UserID: user.ID, Role: user.Role}, CreateOrderInput{
		Items: items,
		Customer: CustomerInput{
			Name:    "Lina",
			Phone:   "+8801700000000",
			Address: "House 1, Road 2",
			City:    "Dhaka",
		},
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return view
}

func actorOf(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

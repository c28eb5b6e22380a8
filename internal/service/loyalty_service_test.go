package service

import (
	"context"
	"errors"
	"testing"

	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"

	"github.com/shopspring/decimal"
)

func seedDeliveredOrder(t *testing.T, f *shopFixture, user *models.User, no string, total int64) {
	t.Helper()
	userID := user.ID
	order := &models.Order{
		OrderNo:       no,
		UserID:        &userID,
		Source:        constants.OrderSourceWebsite,
		Status:        constants.OrderStatusDelivered,
		PaymentStatus: constants.PaymentStatusPaid,
		Total:         models.NewMoneyFromInt(total),
	}
	if err := f.orderRepo.Create(order); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
}

func TestLoyaltyThresholdBoundary(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	silver := f.createUser(t, "silver@shop.test", constants.RoleUser, constants.TierBronze)
	bronze := f.createUser(t, "bronze@shop.test", constants.RoleUser, constants.TierBronze)
	seedDeliveredOrder(t, f, silver, "L00000000001", 50000)
	seedDeliveredOrder(t, f, bronze, "L00000000002", 49999)

	if tier, err := f.loyaltyService.Recalculate(ctx, silver.ID); err != nil || tier != constants.TierSilver {
		t.Fatalf("expected silver at 50000, got %s err=%v", tier, err)
	}
	if tier, err := f.loyaltyService.Recalculate(ctx, bronze.ID); err != nil || tier != constants.TierBronze {
		t.Fatalf("expected bronze at 49999, got %s err=%v", tier, err)
	}
	stored, _ := f.userRepo.GetByID(silver.ID)
	if stored.LoyaltyTier != constants.TierSilver {
		t.Fatalf("expected tier persisted, got %s", stored.LoyaltyTier)
	}
}

func TestLoyaltyManualModeIsKept(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "vip@shop.test", constants.RoleUser, constants.TierBronze)
	seedDeliveredOrder(t, f, user, "L00000000003", 120000)

	mode := constants.LoyaltyModeManual
	tier := constants.TierPlatinum
	updated, err := f.loyaltyService.UpdateUserLoyalty(ctx, f.admin, user.ID, LoyaltyPatch{Mode: &mode, Tier: &tier})
	if err != nil {
		t.Fatalf("update loyalty failed: %v", err)
	}
	if updated.LoyaltyTier != constants.TierPlatinum {
		t.Fatalf("expected manual platinum, got %s", updated.LoyaltyTier)
	}
	if got, _ := f.loyaltyService.Recalculate(ctx, user.ID); got != constants.TierPlatinum {
		t.Fatalf("manual tier must survive recalculation, got %s", got)
	}

	auto := constants.LoyaltyModeAuto
	updated, err = f.loyaltyService.UpdateUserLoyalty(ctx, f.admin, user.ID, LoyaltyPatch{Mode: &auto})
	if err != nil {
		t.Fatalf("switch to auto failed: %v", err)
	}
	if updated.LoyaltyTier != constants.TierGold {
		t.Fatalf("expected gold once auto mode recomputes, got %s", updated.LoyaltyTier)
	}
}

func TestLoyaltyPatchValidation(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "patch@shop.test", constants.RoleUser, constants.TierBronze)

	bad := "legendary"
	if _, err := f.loyaltyService.UpdateUserLoyalty(ctx, f.admin, user.ID, LoyaltyPatch{Tier: &bad}); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
	if _, err := f.loyaltyService.UpdateUserLoyalty(ctx, f.admin, user.ID, LoyaltyPatch{Mode: &bad}); !errors.Is(err, ErrInvalidLoyaltyMode) {
		t.Fatalf("expected ErrInvalidLoyaltyMode, got %v", err)
	}
	if _, err := f.loyaltyService.UpdateUserLoyalty(ctx, actorOf(user), user.ID, LoyaltyPatch{}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestLoyaltySummary(t *testing.T) {
	f := newShopFixture(t)
	user := f.createUser(t, "summary@shop.test", constants.RoleUser, constants.TierSilver)
	seedDeliveredOrder(t, f, user, "L00000000004", 60000)

	summary, err := f.loyaltyService.Summary(user.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !summary.DeliveredSpend.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("expected spend 60000, got %s", summary.DeliveredSpend)
	}
	if summary.NextTier != constants.TierGold || !summary.NextThreshold.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected next tier: %s %s", summary.NextTier, summary.NextThreshold)
	}
	if !summary.DiscountPercent.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected silver discount 1%%, got %s", summary.DiscountPercent)
	}
}

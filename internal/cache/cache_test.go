package cache

import (
	"context"
	"testing"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	ctx := context.Background()
	if Enabled() || Client() != nil {
		t.Fatalf("expected cache disabled")
	}
	if err := SetAdminSetting(ctx, &models.AdminSetting{NotificationEmail: "a@b.c"}); err != nil {
		t.Fatalf("set should be a no-op: %v", err)
	}
	setting, hit, err := GetAdminSetting(ctx)
	if err != nil || hit || setting != nil {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}
	if err := DelAdminSetting(ctx); err != nil {
		t.Fatalf("del should be a no-op: %v", err)
	}
}

func TestBuildUserAuthState(t *testing.T) {
	user := &models.User{ID: 5, Role: constants.RoleAdmin, Status: constants.UserStatusSuspended, TokenVersion: 3}
	state := BuildUserAuthState(user)
	if state.UserID != 5 || state.Role != constants.RoleAdmin || state.Status != constants.UserStatusSuspended || state.TokenVersion != 3 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("expected nil state for nil user")
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "scent"
	if got := buildKey(" auth:user:1 "); got != "scent:auth:user:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey(""); got != "scent" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}

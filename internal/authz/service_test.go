package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestBuiltinRolesGuardAdminRoutes(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	cases := []struct {
		name   string
		role   string
		object string
		action string
		want   bool
	}{
		{"admin manages orders", "admin", "/api/v1/admin/orders/:id/confirm", "POST", true},
		{"admin inherits customer routes", "admin", "/api/v1/orders", "POST", true},
		{"customer places order", "user", "/api/v1/orders", "POST", true},
		{"customer cancels own order", "user", "/api/v1/orders/:id/cancel", "post", true},
		{"customer reads notifications", "user", "/api/v1/notifications", "GET", true},
		{"customer blocked from admin", "user", "/api/v1/admin/orders", "GET", false},
		{"customer blocked from settings", "user", "/api/v1/admin/settings", "PATCH", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allow, err := svc.EnforceUser(7, tc.role, tc.object, tc.action)
			if err != nil {
				t.Fatalf("enforce failed: %v", err)
			}
			if allow != tc.want {
				t.Fatalf("allow=%v want=%v", allow, tc.want)
			}
		})
	}
}

func TestUserExtraRoleGrantsAccess(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("stock_keeper", "/admin/products/:id/stock", "PATCH"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetUserRoles(9, []string{"stock_keeper"}); err != nil {
		t.Fatalf("set user roles failed: %v", err)
	}

	allow, err := svc.EnforceUser(9, "user", "/api/v1/admin/products/42/stock", "PATCH")
	if err != nil || !allow {
		t.Fatalf("expected extra role to allow, allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforceUser(9, "user", "/api/v1/admin/products/42", "DELETE")
	if err != nil || allow {
		t.Fatalf("expected delete to be denied, allow=%v err=%v", allow, err)
	}
	allow, err = svc.EnforceUser(10, "user", "/api/v1/admin/products/42/stock", "PATCH")
	if err != nil || allow {
		t.Fatalf("expected other user to be denied, allow=%v err=%v", allow, err)
	}

	roles, err := svc.GetUserRoles(9)
	if err != nil {
		t.Fatalf("get user roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:stock_keeper" {
		t.Fatalf("unexpected roles: %v", roles)
	}

	if err := svc.SetUserRoles(9, nil); err != nil {
		t.Fatalf("clear user roles failed: %v", err)
	}
	allow, _ = svc.EnforceUser(9, "user", "/api/v1/admin/products/42/stock", "PATCH")
	if allow {
		t.Fatalf("expected access removed after clearing roles")
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.RevokeRolePolicy("user", "/reviews", "POST"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err := svc.EnforceUser(3, "user", "/api/v1/reviews", "POST")
	if err != nil || allow {
		t.Fatalf("expected revoked policy to deny, allow=%v err=%v", allow, err)
	}
	policies, err := svc.GetRolePolicies("user")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	for _, policy := range policies {
		if policy.Object == "/reviews" && policy.Action == "POST" {
			t.Fatalf("revoked policy still listed")
		}
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "role:admin" || roles[1] != "role:user" {
		t.Fatalf("unexpected roles: %v", roles)
	}
	if err := svc.ReloadPolicy(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	allow, err := svc.EnforceUser(1, "admin", "/api/v1/admin/users", "GET")
	if err != nil || !allow {
		t.Fatalf("expected admin allowed after reload, allow=%v err=%v", allow, err)
	}
}

func TestNormalizeHelpers(t *testing.T) {
	if got, _ := NormalizeRole(" Stock Keeper "); got != "role:stock_keeper" {
		t.Fatalf("unexpected role: %s", got)
	}
	if _, err := NormalizeRole("  "); err == nil {
		t.Fatalf("expected empty role error")
	}
	if got := NormalizeObject("/api/v1/admin/orders"); got != "/admin/orders" {
		t.Fatalf("unexpected object: %s", got)
	}
	if got := NormalizeObject("admin"); got != "/admin" {
		t.Fatalf("unexpected object: %s", got)
	}
	if got := NormalizeAction(" patch "); got != "PATCH" {
		t.Fatalf("unexpected action: %s", got)
	}
	if got := SubjectForUser(5); got != "user:5" {
		t.Fatalf("unexpected subject: %s", got)
	}
}

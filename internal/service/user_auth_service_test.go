package service

import (
	"context"
	"errors"
	"testing"

	"github.com/scentshop/internal/config"
	"github.com/scentshop/internal/constants"
	"github.com/scentshop/internal/models"
	"github.com/scentshop/internal/repository"

	"gorm.io/gorm"
)

func newUserAuthServiceOn(db *gorm.DB, email EmailSender, verifyCode config.VerifyCodeConfig) (*UserAuthService, *repository.GormEmailVerifyCodeRepository) {
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1}
	cfg.Email.VerifyCode = verifyCode
	codeRepo := repository.NewEmailVerifyCodeRepository(db)
	svc := NewUserAuthService(cfg, repository.NewUserRepository(db), codeRepo, repository.NewOrderRepository(db), email)
	return svc, codeRepo
}

func newUserAuthServiceForTest(t *testing.T) *UserAuthService {
	t.Helper()
	svc, _ := newUserAuthServiceOn(openServiceTestDB(t), &stubEmailSender{}, config.VerifyCodeConfig{})
	return svc
}

func latestCode(t *testing.T, repo *repository.GormEmailVerifyCodeRepository, email, purpose string) *models.EmailVerifyCode {
	t.Helper()
	record, err := repo.GetLatest(email, purpose)
	if err != nil || record == nil {
		t.Fatalf("expected %s code for %s, got %+v err=%v", purpose, email, record, err)
	}
	return record
}

func TestRegisterLoginAndAuthenticate(t *testing.T) {
	svc := newUserAuthServiceForTest(t)
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, RegisterInput{Name: "Mira", Email: " Mira@Shop.Test ", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "mira@shop.test" || user.Role != constants.RoleUser || user.LoyaltyTier != constants.TierBronze {
		t.Fatalf("unexpected user: %+v", user)
	}
	claims, err := svc.ParseUserJWT(token)
	if err != nil || claims.UserID != user.ID || claims.Role != constants.RoleUser {
		t.Fatalf("unexpected claims: %+v err=%v", claims, err)
	}

	if _, _, _, err := svc.Register(ctx, RegisterInput{Email: "mira@shop.test", Password: "perfume123"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, _, _, err := svc.Register(ctx, RegisterInput{Email: "short@shop.test", Password: "123"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "mira@shop.test", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, loginToken, _, err := svc.Login(ctx, "MIRA@shop.test", "perfume123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	actor, err := svc.Authenticate(ctx, loginToken)
	if err != nil || actor.UserID != user.ID || actor.IsAdmin() {
		t.Fatalf("unexpected actor: %+v err=%v", actor, err)
	}
	if _, err := svc.Authenticate(ctx, loginToken+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestSuspendedUserLosesAccess(t *testing.T) {
	svc := newUserAuthServiceForTest(t)
	ctx := context.Background()
	user, token, _, err := svc.Register(ctx, RegisterInput{Email: "suspend@shop.test", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	admin := Actor{UserID: 999, Role: constants.RoleAdmin}

	if _, err := svc.SetUserStatus(ctx, admin, user.ID, "frozen"); !errors.Is(err, ErrInvalidUserStatus) {
		t.Fatalf("expected ErrInvalidUserStatus, got %v", err)
	}
	updated, err := svc.SetUserStatus(ctx, admin, user.ID, constants.UserStatusSuspended)
	if err != nil || updated.Status != constants.UserStatusSuspended {
		t.Fatalf("suspend failed: %+v err=%v", updated, err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "suspend@shop.test", "perfume123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled on login, got %v", err)
	}

	if _, err := svc.SetUserStatus(ctx, admin, user.ID, constants.UserStatusActive); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token issued before suspension must stay revoked, got %v", err)
	}
	users, total, err := svc.ListUsers(admin, repository.UserListFilter{Page: 1, PageSize: 10, Search: "suspend"})
	if err != nil || total != 1 || len(users) != 1 {
		t.Fatalf("expected one matching user, got %d err=%v", total, err)
	}
}

func TestRegisterSendsCodeAndVerifyEmail(t *testing.T) {
	sender := &stubEmailSender{}
	svc, codes := newUserAuthServiceOn(openServiceTestDB(t), sender, config.VerifyCodeConfig{MaxAttempts: 3})
	ctx := context.Background()

	user, _, _, err := svc.Register(ctx, RegisterInput{Email: "nadia@shop.test", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.EmailVerified() || sender.sent["nadia@shop.test"] != 1 {
		t.Fatalf("register should leave email unverified and send one code, sent=%v", sender.sent)
	}
	record := latestCode(t, codes, "nadia@shop.test", constants.VerifyPurposeEmail)
	if len(record.Code) != 6 || record.UserID != user.ID {
		t.Fatalf("unexpected code record: %+v", record)
	}

	if _, err := svc.VerifyEmail(ctx, "nadia@shop.test", "not-it"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("expected ErrVerifyCodeInvalid, got %v", err)
	}
	if latestCode(t, codes, "nadia@shop.test", constants.VerifyPurposeEmail).AttemptCount != 1 {
		t.Fatalf("wrong code should count as an attempt")
	}

	result, err := svc.VerifyEmail(ctx, " NADIA@shop.test ", record.Code)
	if err != nil {
		t.Fatalf("verify email failed: %v", err)
	}
	if result.AlreadyVerified || result.Token == "" || !result.User.EmailVerified() {
		t.Fatalf("unexpected verify result: %+v", result)
	}
	if _, err := svc.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("token from verification should authenticate: %v", err)
	}

	again, err := svc.VerifyEmail(ctx, "nadia@shop.test", record.Code)
	if err != nil || !again.AlreadyVerified || again.Token != "" {
		t.Fatalf("second verification should report already verified: %+v err=%v", again, err)
	}
	if err := svc.SendVerifyCode(ctx, "nadia@shop.test"); err != nil {
		t.Fatalf("resend for verified email should be a no-op: %v", err)
	}
	if sender.sent["nadia@shop.test"] != 1 {
		t.Fatalf("verified email must not receive another code, sent=%v", sender.sent)
	}
}

func TestVerifyCodeAttemptsAndThrottle(t *testing.T) {
	sender := &stubEmailSender{}
	svc, codes := newUserAuthServiceOn(openServiceTestDB(t), sender, config.VerifyCodeConfig{MaxAttempts: 2, SendIntervalSeconds: 60})
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, RegisterInput{Email: "omar@shop.test", Password: "perfume123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.SendVerifyCode(ctx, "omar@shop.test"); !errors.Is(err, ErrVerifyCodeTooFrequent) {
		t.Fatalf("expected ErrVerifyCodeTooFrequent, got %v", err)
	}
	record := latestCode(t, codes, "omar@shop.test", constants.VerifyPurposeEmail)
	for i := 0; i < 2; i++ {
		if _, err := svc.VerifyEmail(ctx, "omar@shop.test", "000000x"); !errors.Is(err, ErrVerifyCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrVerifyCodeInvalid, got %v", i, err)
		}
	}
	if _, err := svc.VerifyEmail(ctx, "omar@shop.test", record.Code); !errors.Is(err, ErrVerifyCodeAttemptsExceeded) {
		t.Fatalf("correct code after max attempts must be refused, got %v", err)
	}
}

func TestForgotAndResetPasswordRevokesTokens(t *testing.T) {
	sender := &stubEmailSender{}
	svc, codes := newUserAuthServiceOn(openServiceTestDB(t), sender, config.VerifyCodeConfig{})
	ctx := context.Background()

	if err := svc.ForgotPassword(ctx, "ghost@shop.test"); err != nil {
		t.Fatalf("unknown email should not error: %v", err)
	}
	if sender.sent["ghost@shop.test"] != 0 {
		t.Fatalf("unknown email must not receive mail")
	}
	if err := svc.ForgotPassword(ctx, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	user, oldToken, _, err := svc.Register(ctx, RegisterInput{Email: "rina@shop.test", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "rina@shop.test"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	record := latestCode(t, codes, "rina@shop.test", constants.VerifyPurposeReset)

	if err := svc.ResetPassword(ctx, "rina@shop.test", record.Code, "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "rina@shop.test", "999999x", "new-perfume-1"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("expected ErrVerifyCodeInvalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "rina@shop.test", record.Code, "new-perfume-1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := svc.ResetPassword(ctx, "rina@shop.test", record.Code, "new-perfume-2"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("reset code must be single use, got %v", err)
	}

	if _, err := svc.Authenticate(ctx, oldToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token issued before reset must be revoked, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "rina@shop.test", "perfume123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	reloaded, _, _, err := svc.Login(ctx, "rina@shop.test", "new-perfume-1")
	if err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if reloaded.ID != user.ID || !reloaded.EmailVerified() {
		t.Fatalf("reset should mark the email verified: %+v", reloaded)
	}
}

func TestChangePasswordAndLogoutAllDevices(t *testing.T) {
	svc := newUserAuthServiceForTest(t)
	ctx := context.Background()

	user, firstToken, _, err := svc.Register(ctx, RegisterInput{Email: "lamia@shop.test", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, secondToken, _, err := svc.Login(ctx, "lamia@shop.test", "perfume123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	actor := Actor{UserID: user.ID, Role: user.Role}

	fresh, _, err := svc.LogoutAllDevices(ctx, actor)
	if err != nil {
		t.Fatalf("logout all failed: %v", err)
	}
	for _, old := range []string{firstToken, secondToken} {
		if _, err := svc.Authenticate(ctx, old); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("old session must be revoked, got %v", err)
		}
	}
	if _, err := svc.Authenticate(ctx, fresh); err != nil {
		t.Fatalf("token returned by logout-all must stay valid: %v", err)
	}

	if err := svc.ChangePassword(ctx, actor, "wrong-current", "perfume456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, actor, "perfume123", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.ChangePassword(ctx, actor, "perfume123", "perfume456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, fresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("password change must revoke sessions, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "lamia@shop.test", "perfume456"); err != nil {
		t.Fatalf("login with changed password failed: %v", err)
	}
	if _, err := svc.SetPassword(ctx, actor, "another-pass"); !errors.Is(err, ErrPasswordAlreadySet) {
		t.Fatalf("expected ErrPasswordAlreadySet, got %v", err)
	}
}

func TestAdminCreatedUserVerifiesThenSetsPassword(t *testing.T) {
	sender := &stubEmailSender{}
	db := openServiceTestDB(t)
	svc, codes := newUserAuthServiceOn(db, sender, config.VerifyCodeConfig{})
	ctx := context.Background()
	admin := Actor{UserID: 1, Role: constants.RoleAdmin}

	if _, err := svc.CreateUserByAdmin(ctx, Actor{UserID: 2, Role: constants.RoleUser}, AdminCreateUserInput{Email: "x@shop.test"}); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	if _, err := svc.CreateUserByAdmin(ctx, admin, AdminCreateUserInput{Email: "x@shop.test", Role: "owner"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	withPassword, err := svc.CreateUserByAdmin(ctx, admin, AdminCreateUserInput{Name: "Shop Walk-in", Email: "walkin@shop.test", Password: "counter-123", Notes: "vip"})
	if err != nil {
		t.Fatalf("create with password failed: %v", err)
	}
	if !withPassword.EmailVerified() || withPassword.Notes != "vip" || sender.sent["walkin@shop.test"] != 0 {
		t.Fatalf("admin user with password should be verified without mail: %+v sent=%v", withPassword, sender.sent)
	}
	if _, _, _, err := svc.Login(ctx, "walkin@shop.test", "counter-123"); err != nil {
		t.Fatalf("login for admin-created user failed: %v", err)
	}
	if _, err := svc.CreateUserByAdmin(ctx, admin, AdminCreateUserInput{Email: "WALKIN@shop.test"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	invited, err := svc.CreateUserByAdmin(ctx, admin, AdminCreateUserInput{Email: "invite@shop.test"})
	if err != nil {
		t.Fatalf("create without password failed: %v", err)
	}
	if invited.HasPassword() || invited.EmailVerified() || sender.sent["invite@shop.test"] != 1 {
		t.Fatalf("passwordless user should get a verification mail: %+v sent=%v", invited, sender.sent)
	}
	if _, _, _, err := svc.Login(ctx, "invite@shop.test", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("passwordless account must not log in, got %v", err)
	}

	record := latestCode(t, codes, "invite@shop.test", constants.VerifyPurposeEmail)
	result, err := svc.VerifyEmail(ctx, "invite@shop.test", record.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	actor, err := svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if err := svc.ChangePassword(ctx, actor, "", "first-pass-1"); !errors.Is(err, ErrPasswordNotSet) {
		t.Fatalf("expected ErrPasswordNotSet, got %v", err)
	}
	if _, err := svc.SetPassword(ctx, actor, "first-pass-1"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "invite@shop.test", "first-pass-1"); err != nil {
		t.Fatalf("login after set password failed: %v", err)
	}
}

func TestUpdateProfileAndCheckoutDetails(t *testing.T) {
	svc := newUserAuthServiceForTest(t)
	ctx := context.Background()
	user, _, _, err := svc.Register(ctx, RegisterInput{Name: "Tania", Email: "tania@shop.test", Phone: "0170", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	actor := Actor{UserID: user.ID, Role: user.Role}

	city := "  Chattogram "
	phone := "01800000000"
	updated, err := svc.UpdateProfile(ctx, actor, ProfileInput{City: &city, Phone: &phone})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Name != "Tania" || updated.Phone != phone || updated.Profile.City != "Chattogram" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	saved, err := svc.SaveCheckoutDetails(ctx, actor, models.CheckoutDetails{Name: "Gift for Mum", Address: " Road 7 ", City: "Sylhet"})
	if err != nil {
		t.Fatalf("save checkout failed: %v", err)
	}
	if saved.Address != "Road 7" {
		t.Fatalf("checkout fields should be trimmed: %+v", saved)
	}
	reloaded, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SavedCheckout.Name != "Gift for Mum" || reloaded.Name != "Tania" || reloaded.SavedCheckout.City != "Sylhet" {
		t.Fatalf("checkout details must be stored apart from the account name: %+v", reloaded)
	}

	if _, err := svc.SaveCheckoutDetails(ctx, actor, models.CheckoutDetails{Name: "Only name"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	reloaded, _ = svc.GetUserByID(user.ID)
	if reloaded.SavedCheckout.City != "" || reloaded.SavedCheckout.Name != "Only name" {
		t.Fatalf("checkout details are replaced as a whole: %+v", reloaded.SavedCheckout)
	}
}

func TestDeleteMyAccountRequiresNoActiveOrders(t *testing.T) {
	f := newShopFixture(t)
	svc, _ := newUserAuthServiceOn(f.db, &stubEmailSender{}, config.VerifyCodeConfig{})
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, RegisterInput{Email: "leaving@shop.test", Password: "perfume123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	actor := Actor{UserID: user.ID, Role: user.Role}
	product := f.createProduct(t, "Amber Night", 5)
	order := f.placeOrder(t, user, constants.PaymentMethodCash, CreateOrderItem{ProductID: product.ID, Size: "6ml", Qty: 1})

	if err := svc.DeleteMyAccount(ctx, actor, "perfume123"); !errors.Is(err, ErrActiveOrdersExist) {
		t.Fatalf("expected ErrActiveOrdersExist, got %v", err)
	}
	if _, err := f.orderService.CancelOrder(ctx, actor, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if err := svc.DeleteMyAccount(ctx, actor, ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if err := svc.DeleteMyAccount(ctx, actor, "wrong-pass"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.DeleteMyAccount(ctx, actor, "perfume123"); err != nil {
		t.Fatalf("delete account failed: %v", err)
	}

	deleted, err := svc.GetUserByID(user.ID)
	if err != nil || deleted.Status != constants.UserStatusDeleted {
		t.Fatalf("account should be soft deleted: %+v err=%v", deleted, err)
	}
	if _, err := svc.Authenticate(ctx, token); err == nil {
		t.Fatalf("deleted account token must be rejected")
	}
	if _, _, _, err := svc.Login(ctx, "leaving@shop.test", "perfume123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled on login, got %v", err)
	}
}

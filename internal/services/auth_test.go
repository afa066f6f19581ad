package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/ctxutil"
)

func newTestAuth(t *testing.T, env *testEnv) AuthService {
	t.Helper()
	return NewAuthService(env.db, testutil.Logger(t), env.repos.User, env.repos.UserToken, "test-secret", 15*time.Minute, 24*time.Hour)
}

func TestRegisterValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuth(t, env)

	cases := []struct {
		name string
		user types.User
		code string
	}{
		{"bad email", types.User{Email: "nope", FirstName: "Ana", Password: "longenough"}, "invalid_email"},
		{"no name", types.User{Email: "a@b.com", Password: "longenough"}, "missing_name"},
		{"short password", types.User{Email: "a@b.com", FirstName: "Ana", Password: "short"}, "weak_password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			err := svc.RegisterUser(context.Background(), &u)
			status, code := apierr.StatusOf(err)
			if status != http.StatusBadRequest || code != tc.code {
				t.Fatalf("got %d %q (%v), want 400 %q", status, code, err, tc.code)
			}
		})
	}
}

func TestAuthLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuth(t, env)
	ctx := context.Background()

	u := &types.User{Email: " Ana@Example.com ", FirstName: "Ana", LastName: "Souza", Password: "s3cret-pass"}
	if err := svc.RegisterUser(ctx, u); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if u.Email != "ana@example.com" || u.Password == "s3cret-pass" {
		t.Fatalf("email not normalized or password not hashed: %+v", u)
	}

	dup := &types.User{Email: "ana@example.com", FirstName: "Ana", Password: "another-pass"}
	if status, code := apierr.StatusOf(svc.RegisterUser(ctx, dup)); status != http.StatusConflict || code != "email_taken" {
		t.Fatalf("duplicate register: %d %q", status, code)
	}

	if _, _, err := svc.LoginUser(ctx, "ana@example.com", "wrong-pass"); err == nil {
		t.Fatalf("expected invalid credentials")
	}
	access, refresh, err := svc.LoginUser(ctx, "ANA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	authed, err := svc.SetContextFromToken(ctx, access)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(authed)
	if rd == nil || rd.UserID != u.ID || rd.RefreshToken != refresh {
		t.Fatalf("request data = %+v", rd)
	}

	access2, refresh2, err := svc.RefreshUser(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	if refresh2 == refresh || access2 == access {
		t.Fatalf("refresh should rotate tokens")
	}
	if _, err := svc.SetContextFromToken(ctx, access); err == nil {
		t.Fatalf("old access token should be revoked after refresh")
	}
	if _, _, err := svc.RefreshUser(ctx, refresh); err == nil {
		t.Fatalf("old refresh token should not be reusable")
	}

	authed, err = svc.SetContextFromToken(ctx, access2)
	if err != nil {
		t.Fatalf("SetContextFromToken(new): %v", err)
	}
	if err := svc.LogoutUser(authed); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, access2); err == nil {
		t.Fatalf("token should be revoked after logout")
	}
}

func TestSetContextFromTokenRejectsForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuth(t, env)
	other := NewAuthService(env.db, testutil.Logger(t), env.repos.User, env.repos.UserToken, "other-secret", time.Minute, time.Hour)

	u := env.seedUser(t, "bia@example.com")
	token, err := other.(*authService).generateAccessToken(u.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
}

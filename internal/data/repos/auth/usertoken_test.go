package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo@example.com")

	makeToken := func(access, refresh string, expires time.Time) *types.UserToken {
		return &types.UserToken{
			UserID:       u.ID,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    expires,
		}
	}

	t1 := makeToken("access-1", "refresh-1", time.Now().Add(time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{t1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t1.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByAccessTokens(dbc, []string{t1.AccessToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByAccessTokens: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{t1.RefreshToken}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRefreshTokens: err=%v len=%d", err, len(rows))
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{t1.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByRefreshTokens(dbc, []string{t1.RefreshToken}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByIDs: err=%v len=%d", err, len(rows))
	}

	expired := makeToken("access-2", "refresh-2", time.Now().Add(-time.Hour))
	fresh := makeToken("access-3", "refresh-3", time.Now().Add(time.Hour))
	if _, err := repo.Create(dbc, []*types.UserToken{expired, fresh}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	n, err := repo.FullDeleteExpired(dbc, time.Now())
	if err != nil {
		t.Fatalf("FullDeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("FullDeleteExpired: expected 1 row, got %d", n)
	}

	if err := repo.FullDeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	var count int64
	tx.Unscoped().Model(&types.UserToken{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected all tokens purged, got %d", count)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/shapemate-backend/internal/data/repos"
	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/ctxutil"
)

type testEnv struct {
	db    *gorm.DB
	repos repos.Repos
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	return &testEnv{db: db, repos: repos.New(db, testutil.Logger(t))}
}

func (e *testEnv) seedUser(t *testing.T, email string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, email)
}

func asUser(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

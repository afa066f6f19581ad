package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			Email:     "userrepo@example.com",
			Password:  "pw",
			FirstName: "Ana",
			LastName:  "Souza",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected 1 user with id, got %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{created[0].Email})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(gotByEmails) != 1 || gotByEmails[0].Email != created[0].Email {
		t.Fatalf("GetByEmails: unexpected result: %+v", gotByEmails)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): exists=%v err=%v", exists, err)
	}

	if err := repo.UpdateName(dbc, created[0].ID, "Beatriz", "Lima"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	gotByIDs, _ = repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if gotByIDs[0].FullName() != "Beatriz Lima" {
		t.Fatalf("UpdateName: got %q", gotByIDs[0].FullName())
	}
}

func TestUserProfileRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "profile@example.com")
	repo := NewUserProfileRepo(db, testutil.Logger(t))

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || got != nil {
		t.Fatalf("GetByUserID before upsert: got=%v err=%v", got, err)
	}

	first := &types.UserProfile{
		UserID:              u.ID,
		Age:                 25,
		Gender:              "male",
		WeightKg:            70,
		HeightCm:            175,
		ActivityLevel:       "moderate",
		PrimaryGoal:         "lose_weight",
		DietaryRestrictions: types.EncodeList([]string{"lactose"}),
		Allergies:           types.EncodeList(nil),
	}
	if err := repo.Upsert(dbc, first); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	second := &types.UserProfile{
		UserID:              u.ID,
		Age:                 26,
		Gender:              "male",
		WeightKg:            68.5,
		HeightCm:            175,
		ActivityLevel:       "active",
		PrimaryGoal:         "maintain",
		DietaryRestrictions: types.EncodeList([]string{"lactose", "gluten"}),
		Allergies:           types.EncodeList([]string{"peanut"}),
	}
	if err := repo.Upsert(dbc, second); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err = repo.GetByUserID(dbc, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID: got=%v err=%v", got, err)
	}
	if got.ID != first.ID {
		t.Fatalf("expected one row per user, id changed %s -> %s", first.ID, got.ID)
	}
	if got.Age != 26 || got.WeightKg != 68.5 || got.ActivityLevel != "active" {
		t.Fatalf("fields not updated: %+v", got)
	}
	if r := got.RestrictionList(); len(r) != 2 || r[1] != "gluten" {
		t.Fatalf("restrictions: %v", r)
	}
	if a := got.AllergyList(); len(a) != 1 || a[0] != "peanut" {
		t.Fatalf("allergies: %v", a)
	}

	var count int64
	tx.Model(&types.UserProfile{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 profile row, got %d", count)
	}
}

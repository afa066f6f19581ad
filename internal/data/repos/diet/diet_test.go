package diet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
)

func sampleDoc(kcal float64, at time.Time) document.Diet {
	return document.Diet{
		PatientInfo:             document.PatientInfo{Name: "Ana"},
		NutritionalCalculations: &calc.Calculation{DailyTargetKcal: kcal},
		ShoppingList: []document.ShoppingItem{
			{Item: "chicken breast", DisplayName: "Peito de Frango", Category: "Proteínas", WeeklyGrams: 1050},
		},
		GeneratedAt: at,
	}
}

func TestDietRepoSaveKeepsOneActive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "diet@example.com")
	repo := NewDietRepo(db, testutil.Logger(t))

	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	firstID, err := repo.SaveDiet(dbc, u.ID, sampleDoc(1800, at), "", "")
	if err != nil {
		t.Fatalf("SaveDiet first: %v", err)
	}
	secondID, err := repo.SaveDiet(dbc, u.ID, sampleDoc(2100, at), "Plano de verão", types.DietSourceConsultation)
	if err != nil {
		t.Fatalf("SaveDiet second: %v", err)
	}

	active, err := repo.GetActiveDiet(dbc, u.ID)
	if err != nil || active == nil {
		t.Fatalf("GetActiveDiet: row=%v err=%v", active, err)
	}
	if active.ID != secondID {
		t.Fatalf("expected second diet active, got %s", active.ID)
	}
	if active.DailyTargetKcal != 2100 || active.Source != types.DietSourceConsultation {
		t.Fatalf("unexpected active row: %+v", active)
	}

	var activeCount int64
	tx.Model(&types.Diet{}).Where("user_id = ? AND is_active = ?", u.ID, true).Count(&activeCount)
	if activeCount != 1 {
		t.Fatalf("expected exactly one active diet, got %d", activeCount)
	}

	first, err := repo.GetByID(dbc, u.ID, firstID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if first.Name != "Dieta 09/03/2024" {
		t.Fatalf("default name: got %q", first.Name)
	}
	if first.Source != types.DietSourceNutritionist {
		t.Fatalf("default source: got %q", first.Source)
	}
	doc, err := DecodeDocument(first)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.PatientInfo.Name != "Ana" || len(doc.ShoppingList) != 1 {
		t.Fatalf("decoded document mismatch: %+v", doc)
	}

	if err := repo.Activate(dbc, u.ID, firstID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	active, _ = repo.GetActiveDiet(dbc, u.ID)
	if active == nil || active.ID != firstID {
		t.Fatalf("expected first diet active after Activate, got %+v", active)
	}

	list, err := repo.ListByUser(dbc, u.ID, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByUser: len=%d err=%v", len(list), err)
	}

	if err := repo.SetPDFPath(dbc, firstID, "/tmp/diet.pdf"); err != nil {
		t.Fatalf("SetPDFPath: %v", err)
	}
	first, _ = repo.GetByID(dbc, u.ID, firstID)
	if first.PDFPath != "/tmp/diet.pdf" {
		t.Fatalf("pdf path: got %q", first.PDFPath)
	}
}

func TestDietRepoScopesByUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	owner := testutil.SeedUser(t, ctx, tx, "owner@example.com")
	other := testutil.SeedUser(t, ctx, tx, "other@example.com")
	repo := NewDietRepo(db, testutil.Logger(t))

	id, err := repo.SaveDiet(dbc, owner.ID, sampleDoc(1900, time.Now()), "", "")
	if err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}
	if _, err := repo.GetByID(dbc, other.ID, id); !errors.Is(err, ErrDietNotFound) {
		t.Fatalf("GetByID other user: expected ErrDietNotFound, got %v", err)
	}
	if err := repo.Activate(dbc, other.ID, id); !errors.Is(err, ErrDietNotFound) {
		t.Fatalf("Activate other user: expected ErrDietNotFound, got %v", err)
	}
	if row, err := repo.GetActiveDiet(dbc, other.ID); err != nil || row != nil {
		t.Fatalf("GetActiveDiet other user: row=%v err=%v", row, err)
	}
	if _, err := repo.SaveDiet(dbc, uuid.Nil, sampleDoc(1, time.Now()), "", ""); err == nil {
		t.Fatalf("SaveDiet without user: expected error")
	}
}

func TestShoppingListAndInventoryRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	u := testutil.SeedUser(t, ctx, tx, "pantry@example.com")

	lists := NewShoppingListRepo(db, log)
	row, err := lists.Create(dbc, u.ID, nil, "Semana 1", []document.ShoppingItem{{Item: "rice", WeeklyGrams: 700}})
	if err != nil {
		t.Fatalf("Create list: %v", err)
	}
	if err := lists.SetCompleted(dbc, u.ID, row.ID, true); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	got, err := lists.ListByUser(dbc, u.ID, 0)
	if err != nil || len(got) != 1 || !got[0].IsCompleted {
		t.Fatalf("ListByUser: %+v err=%v", got, err)
	}
	if err := lists.SetCompleted(dbc, uuid.New(), row.ID, true); err == nil {
		t.Fatalf("SetCompleted by another user should fail")
	}

	inv := NewInventoryRepo(db, log)
	soon := time.Now().Add(24 * time.Hour)
	if err := inv.Upsert(dbc, []*types.InventoryItem{
		{UserID: u.ID, ItemName: " Rice ", Quantity: 1, Unit: "kg", Category: "Carboidratos"},
		{UserID: u.ID, ItemName: "milk", Quantity: 2, Unit: "l", Category: "Laticínios", ExpirationDate: &soon},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := inv.Upsert(dbc, []*types.InventoryItem{
		{UserID: u.ID, ItemName: "rice", Quantity: 3, Unit: "kg", Category: "Carboidratos"},
	}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	items, err := inv.ListByUser(dbc, u.ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("ListByUser: len=%d err=%v", len(items), err)
	}
	for _, it := range items {
		if it.ItemName == "rice" && it.Quantity != 3 {
			t.Fatalf("rice quantity: got %v", it.Quantity)
		}
	}

	expiring, err := inv.ExpiringBefore(dbc, u.ID, time.Now().Add(48*time.Hour))
	if err != nil || len(expiring) != 1 || expiring[0].ItemName != "milk" {
		t.Fatalf("ExpiringBefore: %+v err=%v", expiring, err)
	}
}

package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
)

type memPDFStore struct {
	rendered int
	files    map[string]string
}

func (m *memPDFStore) Render(ctx context.Context, doc document.Diet) (string, error) {
	m.rendered++
	loc := "data/pdfs/dieta_" + uuid.NewString()[:8] + ".pdf"
	m.files[loc] = "%PDF-1.4 test"
	return loc, nil
}

func (m *memPDFStore) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	body, ok := m.files[loc]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func sampleDiet(at time.Time) document.Diet {
	return document.Diet{
		PatientInfo: document.PatientInfo{Name: "Ana Souza"},
		ShoppingList: []document.ShoppingItem{
			{Item: "brown rice", DisplayName: "Arroz integral", Category: "Carboidratos", WeeklyGrams: 700},
			{Item: "broccoli", DisplayName: "Brócolis", Category: "Vegetais", WeeklyGrams: 560},
		},
		GeneratedAt: at,
	}
}

func TestDietServiceReadsAndActivates(t *testing.T) {
	env := newTestEnv(t)
	pdfs := &memPDFStore{files: map[string]string{}}
	svc := NewDietService(testutil.Logger(t), env.repos.Diet, env.repos.ShoppingList, env.repos.Inventory, pdfs)
	u := env.seedUser(t, "ana@example.com")
	ctx := asUser(u.ID)
	dbc := dbctx.Context{Ctx: ctx}

	first, err := env.repos.Diet.SaveDiet(dbc, u.ID, sampleDiet(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)), "", "")
	if err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}
	second, err := env.repos.Diet.SaveDiet(dbc, u.ID, sampleDiet(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)), "", "")
	if err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}

	active, err := svc.GetActive(ctx)
	if err != nil || active.ID != second {
		t.Fatalf("GetActive: %v", err)
	}
	if active.Document.PatientInfo.Name != "Ana Souza" {
		t.Fatalf("document not decoded: %+v", active.Document.PatientInfo)
	}

	if err := svc.Activate(ctx, first.String()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	active, _ = svc.GetActive(ctx)
	if active.ID != first {
		t.Fatalf("active=%s want %s", active.ID, first)
	}

	list, err := svc.List(ctx, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: %v len=%d", err, len(list))
	}

	other := env.seedUser(t, "bia@example.com")
	_, err = svc.Get(asUser(other.ID), first.String())
	if status, _ := apierr.StatusOf(err); status != http.StatusNotFound {
		t.Fatalf("foreign diet status=%d", status)
	}
	_, err = svc.Get(ctx, "not-a-uuid")
	if status, _ := apierr.StatusOf(err); status != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", status)
	}
}

func TestDietServicePDFRenderedOnDemand(t *testing.T) {
	env := newTestEnv(t)
	pdfs := &memPDFStore{files: map[string]string{}}
	svc := NewDietService(testutil.Logger(t), env.repos.Diet, env.repos.ShoppingList, env.repos.Inventory, pdfs)
	u := env.seedUser(t, "ana@example.com")
	ctx := asUser(u.ID)

	id, err := env.repos.Diet.SaveDiet(dbctx.Context{Ctx: ctx}, u.ID, sampleDiet(time.Now()), "Minha dieta", types.DietSourceNutritionist)
	if err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}
	for i := 0; i < 2; i++ {
		pdf, err := svc.OpenPDF(ctx, id.String())
		if err != nil {
			t.Fatalf("OpenPDF #%d: %v", i, err)
		}
		body, _ := io.ReadAll(pdf.Body)
		_ = pdf.Body.Close()
		if !strings.HasPrefix(string(body), "%PDF-") || !strings.HasSuffix(pdf.FileName, ".pdf") {
			t.Fatalf("unexpected pdf %q %q", pdf.FileName, body)
		}
	}
	if pdfs.rendered != 1 {
		t.Fatalf("pdf should be rendered once, got %d", pdfs.rendered)
	}
}

func TestDietServiceShoppingAndInventory(t *testing.T) {
	env := newTestEnv(t)
	svc := NewDietService(testutil.Logger(t), env.repos.Diet, env.repos.ShoppingList, env.repos.Inventory, nil)
	u := env.seedUser(t, "ana@example.com")
	ctx := asUser(u.ID)

	id, err := env.repos.Diet.SaveDiet(dbctx.Context{Ctx: ctx}, u.ID, sampleDiet(time.Now()), "Semana 1", "")
	if err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}
	list, err := svc.CreateShoppingList(ctx, id.String(), "")
	if err != nil {
		t.Fatalf("CreateShoppingList: %v", err)
	}
	if list.Name != "Lista de compras - Semana 1" || list.DietID == nil || *list.DietID != id {
		t.Fatalf("list = %+v", list)
	}
	if err := svc.SetShoppingListCompleted(ctx, list.ID.String(), true); err != nil {
		t.Fatalf("SetShoppingListCompleted: %v", err)
	}
	err = svc.SetShoppingListCompleted(ctx, uuid.NewString(), true)
	if status, _ := apierr.StatusOf(err); status != http.StatusNotFound {
		t.Fatalf("missing list status=%d", status)
	}
	lists, err := svc.ListShoppingLists(ctx, 0)
	if err != nil || len(lists) != 1 || !lists[0].IsCompleted {
		t.Fatalf("ListShoppingLists: %v %+v", err, lists)
	}

	soon := time.Now().Add(24 * time.Hour)
	items, err := svc.UpsertInventory(ctx, []InventoryInput{
		{ItemName: "Arroz", Quantity: 2, Unit: "kg"},
		{ItemName: "Iogurte", Quantity: 4, Unit: "un", ExpirationDate: &soon},
	})
	if err != nil || len(items) != 2 {
		t.Fatalf("UpsertInventory: %v len=%d", err, len(items))
	}
	items, err = svc.UpsertInventory(ctx, []InventoryInput{{ItemName: " arroz ", Quantity: 1, Unit: "kg"}})
	if err != nil || len(items) != 2 {
		t.Fatalf("upsert should update in place: %v len=%d", err, len(items))
	}
	expiring, err := svc.ExpiringInventory(ctx, 48*time.Hour)
	if err != nil || len(expiring) != 1 || expiring[0].ItemName != "iogurte" {
		t.Fatalf("ExpiringInventory: %v %+v", err, expiring)
	}
	_, err = svc.UpsertInventory(ctx, []InventoryInput{{ItemName: ""}})
	if status, _ := apierr.StatusOf(err); status != http.StatusBadRequest {
		t.Fatalf("empty name status=%d", status)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/shapemate-backend/internal/data/repos"
	dietrepo "github.com/yungbote/shapemate-backend/internal/data/repos/diet"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// PDFStore renders diet documents and reads rendered files back.
type PDFStore interface {
	Render(ctx context.Context, doc document.Diet) (string, error)
	Open(ctx context.Context, loc string) (io.ReadCloser, error)
}

// DietView is a saved diet with its decoded document.
type DietView struct {
	*types.Diet
	Document document.Diet `json:"document"`
}

type DietPDF struct {
	FileName string
	Body     io.ReadCloser
}

type InventoryInput struct {
	ItemName       string     `json:"item_name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	Category       string     `json:"category"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

type DietService interface {
	List(ctx context.Context, limit int) ([]*types.Diet, error)
	GetActive(ctx context.Context) (*DietView, error)
	Get(ctx context.Context, dietID string) (*DietView, error)
	Activate(ctx context.Context, dietID string) error
	OpenPDF(ctx context.Context, dietID string) (*DietPDF, error)

	CreateShoppingList(ctx context.Context, dietID, name string) (*types.ShoppingList, error)
	ListShoppingLists(ctx context.Context, limit int) ([]*types.ShoppingList, error)
	SetShoppingListCompleted(ctx context.Context, listID string, completed bool) error

	ListInventory(ctx context.Context) ([]*types.InventoryItem, error)
	UpsertInventory(ctx context.Context, items []InventoryInput) ([]*types.InventoryItem, error)
	ExpiringInventory(ctx context.Context, within time.Duration) ([]*types.InventoryItem, error)
}

type dietService struct {
	log       *logger.Logger
	diets     repos.DietRepo
	shopping  repos.ShoppingListRepo
	inventory repos.InventoryRepo
	pdfs      PDFStore
	now       func() time.Time
}

func NewDietService(log *logger.Logger, diets repos.DietRepo, shopping repos.ShoppingListRepo, inventory repos.InventoryRepo, pdfs PDFStore) DietService {
	return &dietService{
		log:       log.With("service", "DietService"),
		diets:     diets,
		shopping:  shopping,
		inventory: inventory,
		pdfs:      pdfs,
		now:       time.Now,
	}
}

func (ds *dietService) List(ctx context.Context, limit int) ([]*types.Diet, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return ds.diets.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (ds *dietService) GetActive(ctx context.Context) (*DietView, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	row, err := ds.diets.GetActiveDiet(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load active diet: %w", err)
	}
	if row == nil {
		return nil, apierr.NotFound("no_active_diet", errors.New("no active diet"))
	}
	return viewOf(row)
}

func (ds *dietService) Get(ctx context.Context, dietID string) (*DietView, error) {
	row, err := ds.load(ctx, dietID)
	if err != nil {
		return nil, err
	}
	return viewOf(row)
}

func (ds *dietService) Activate(ctx context.Context, dietID string) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(dietID, "invalid_diet_id")
	if err != nil {
		return err
	}
	if err := ds.diets.Activate(dbctx.Context{Ctx: ctx}, userID, id); err != nil {
		return dietAPIError(err)
	}
	ds.log.Info("Diet activated", "user_id", userID.String(), "diet_id", id.String())
	return nil
}

// OpenPDF streams the diet's PDF. Diets saved without one are rendered on
// first request and the location is stored.
func (ds *dietService) OpenPDF(ctx context.Context, dietID string) (*DietPDF, error) {
	row, err := ds.load(ctx, dietID)
	if err != nil {
		return nil, err
	}
	if ds.pdfs == nil {
		return nil, apierr.NotFound("pdf_unavailable", errors.New("pdf rendering is not configured"))
	}
	loc := row.PDFPath
	if loc == "" {
		doc, err := dietrepo.DecodeDocument(row)
		if err != nil {
			return nil, fmt.Errorf("decode diet: %w", err)
		}
		if loc, err = ds.pdfs.Render(ctx, doc); err != nil {
			return nil, fmt.Errorf("render diet pdf: %w", err)
		}
		if err := ds.diets.SetPDFPath(dbctx.Context{Ctx: ctx}, row.ID, loc); err != nil {
			ds.log.Warn("Failed to store rendered pdf location", "diet_id", row.ID.String(), "error", err)
		}
	}
	body, err := ds.pdfs.Open(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("open diet pdf: %w", err)
	}
	name := path.Base(strings.TrimPrefix(loc, "gcs://"))
	if !strings.HasSuffix(name, ".pdf") {
		name = row.ID.String() + ".pdf"
	}
	return &DietPDF{FileName: name, Body: body}, nil
}

func (ds *dietService) CreateShoppingList(ctx context.Context, dietID, name string) (*types.ShoppingList, error) {
	row, err := ds.load(ctx, dietID)
	if err != nil {
		return nil, err
	}
	doc, err := dietrepo.DecodeDocument(row)
	if err != nil {
		return nil, fmt.Errorf("decode diet: %w", err)
	}
	items := doc.ShoppingList
	if len(items) == 0 {
		items = document.ShoppingList(doc.WeeklyMenu)
	}
	if strings.TrimSpace(name) == "" {
		name = "Lista de compras - " + row.Name
	}
	list, err := ds.shopping.Create(dbctx.Context{Ctx: ctx}, row.UserID, &row.ID, name, items)
	if err != nil {
		return nil, fmt.Errorf("create shopping list: %w", err)
	}
	return list, nil
}

func (ds *dietService) ListShoppingLists(ctx context.Context, limit int) ([]*types.ShoppingList, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return ds.shopping.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (ds *dietService) SetShoppingListCompleted(ctx context.Context, listID string, completed bool) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(listID, "invalid_shopping_list_id")
	if err != nil {
		return err
	}
	if err := ds.shopping.SetCompleted(dbctx.Context{Ctx: ctx}, userID, id, completed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("shopping_list_not_found", err)
		}
		return err
	}
	return nil
}

func (ds *dietService) ListInventory(ctx context.Context) ([]*types.InventoryItem, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return ds.inventory.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

func (ds *dietService) UpsertInventory(ctx context.Context, items []InventoryInput) ([]*types.InventoryItem, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]*types.InventoryItem, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ItemName) == "" {
			return nil, apierr.BadRequest("invalid_inventory_item", fmt.Errorf("item %d has no name", i))
		}
		if it.Quantity < 0 {
			return nil, apierr.BadRequest("invalid_inventory_item", fmt.Errorf("item %q has a negative quantity", it.ItemName))
		}
		rows = append(rows, &types.InventoryItem{
			UserID:         userID,
			ItemName:       it.ItemName,
			Quantity:       it.Quantity,
			Unit:           strings.TrimSpace(it.Unit),
			Category:       strings.TrimSpace(it.Category),
			ExpirationDate: it.ExpirationDate,
		})
	}
	if len(rows) == 0 {
		return nil, apierr.BadRequest("empty_inventory", errors.New("no items given"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := ds.inventory.Upsert(dbc, rows); err != nil {
		return nil, fmt.Errorf("save inventory: %w", err)
	}
	return ds.inventory.ListByUser(dbc, userID)
}

func (ds *dietService) ExpiringInventory(ctx context.Context, within time.Duration) ([]*types.InventoryItem, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	if within <= 0 {
		within = 3 * 24 * time.Hour
	}
	return ds.inventory.ExpiringBefore(dbctx.Context{Ctx: ctx}, userID, ds.now().Add(within))
}

func (ds *dietService) load(ctx context.Context, dietID string) (*types.Diet, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(dietID, "invalid_diet_id")
	if err != nil {
		return nil, err
	}
	row, err := ds.diets.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, dietAPIError(err)
	}
	return row, nil
}

func viewOf(row *types.Diet) (*DietView, error) {
	doc, err := dietrepo.DecodeDocument(row)
	if err != nil {
		return nil, fmt.Errorf("decode diet: %w", err)
	}
	return &DietView{Diet: row, Document: doc}, nil
}

func dietAPIError(err error) error {
	if errors.Is(err, dietrepo.ErrDietNotFound) {
		return apierr.NotFound("diet_not_found", err)
	}
	return err
}

package diet

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type ShoppingListRepo interface {
	Create(dbc dbctx.Context, userID uuid.UUID, dietID *uuid.UUID, name string, items []document.ShoppingItem) (*types.ShoppingList, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ShoppingList, error)
	SetCompleted(dbc dbctx.Context, userID, listID uuid.UUID, completed bool) error
}

type shoppingListRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShoppingListRepo(db *gorm.DB, baseLog *logger.Logger) ShoppingListRepo {
	return &shoppingListRepo{db: db, log: baseLog.With("repo", "ShoppingListRepo")}
}

func (r *shoppingListRepo) Create(dbc dbctx.Context, userID uuid.UUID, dietID *uuid.UUID, name string, items []document.ShoppingItem) (*types.ShoppingList, error) {
	if items == nil {
		items = []document.ShoppingItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode shopping items: %w", err)
	}
	row := &types.ShoppingList{
		UserID: userID,
		DietID: dietID,
		Name:   name,
		Items:  datatypes.JSON(raw),
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *shoppingListRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ShoppingList, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.ShoppingList
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *shoppingListRepo) SetCompleted(dbc dbctx.Context, userID, listID uuid.UUID, completed bool) error {
	res := dbc.DB(r.db).
		Model(&types.ShoppingList{}).
		Where("id = ? AND user_id = ?", listID, userID).
		Update("is_completed", completed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

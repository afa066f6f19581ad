package diet

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type InventoryRepo interface {
	// Upsert keys rows by (user_id, lower-cased item_name).
	Upsert(dbc dbctx.Context, rows []*types.InventoryItem) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InventoryItem, error)
	// ExpiringBefore lists items with an expiration date before cutoff.
	ExpiringBefore(dbc dbctx.Context, userID uuid.UUID, cutoff time.Time) ([]*types.InventoryItem, error)
}

type inventoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInventoryRepo(db *gorm.DB, baseLog *logger.Logger) InventoryRepo {
	return &inventoryRepo{db: db, log: baseLog.With("repo", "InventoryRepo")}
}

func (r *inventoryRepo) Upsert(dbc dbctx.Context, rows []*types.InventoryItem) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.ItemName = strings.ToLower(strings.TrimSpace(row.ItemName))
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit", "category", "expiration_date", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *inventoryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InventoryItem, error) {
	var rows []*types.InventoryItem
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("category ASC, item_name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inventoryRepo) ExpiringBefore(dbc dbctx.Context, userID uuid.UUID, cutoff time.Time) ([]*types.InventoryItem, error) {
	var rows []*types.InventoryItem
	if err := dbc.DB(r.db).
		Where("user_id = ? AND expiration_date IS NOT NULL AND expiration_date < ?", userID, cutoff).
		Order("expiration_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

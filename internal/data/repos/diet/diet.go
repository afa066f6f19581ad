package diet

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

var ErrDietNotFound = errors.New("diet not found")

type DietRepo interface {
	// SaveDiet stores doc as the user's only active diet. Prior active diets
	// are deactivated in the same transaction. Empty name and source fall
	// back to "Dieta dd/mm/yyyy" and "nutritionist".
	SaveDiet(dbc dbctx.Context, userID uuid.UUID, doc document.Diet, name, source string) (uuid.UUID, error)
	// GetActiveDiet returns nil, nil when the user has no active diet.
	GetActiveDiet(dbc dbctx.Context, userID uuid.UUID) (*types.Diet, error)
	GetByID(dbc dbctx.Context, userID, dietID uuid.UUID) (*types.Diet, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Diet, error)
	Activate(dbc dbctx.Context, userID, dietID uuid.UUID) error
	SetPDFPath(dbc dbctx.Context, dietID uuid.UUID, path string) error
}

type dietRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewDietRepo(db *gorm.DB, baseLog *logger.Logger) DietRepo {
	return &dietRepo{db: db, log: baseLog.With("repo", "DietRepo"), now: time.Now}
}

// DefaultName labels a diet by the day it was generated.
func DefaultName(at time.Time) string {
	return "Dieta " + at.Format("02/01/2006")
}

func (r *dietRepo) SaveDiet(dbc dbctx.Context, userID uuid.UUID, doc document.Diet, name, source string) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("save diet: missing user id")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save diet: encode document: %w", err)
	}
	at := doc.GeneratedAt
	if at.IsZero() {
		at = r.now()
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName(at)
	}
	if strings.TrimSpace(source) == "" {
		source = types.DietSourceNutritionist
	}
	row := &types.Diet{
		UserID:   userID,
		Name:     name,
		Source:   source,
		IsActive: true,
		Document: datatypes.JSON(raw),
	}
	if doc.NutritionalCalculations != nil {
		row.DailyTargetKcal = doc.NutritionalCalculations.DailyTargetKcal
	}

	err = dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&types.Diet{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate prior diets: %w", err)
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert diet: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	r.log.Info("Diet saved", "user_id", userID.String(), "diet_id", row.ID.String(), "source", source)
	return row.ID, nil
}

func (r *dietRepo) GetActiveDiet(dbc dbctx.Context, userID uuid.UUID) (*types.Diet, error) {
	var rows []*types.Diet
	if err := dbc.DB(r.db).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *dietRepo) GetByID(dbc dbctx.Context, userID, dietID uuid.UUID) (*types.Diet, error) {
	var row types.Diet
	err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", dietID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDietNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *dietRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Diet, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*types.Diet
	if err := dbc.DB(r.db).
		Omit("document").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *dietRepo) Activate(dbc dbctx.Context, userID, dietID uuid.UUID) error {
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&types.Diet{}).
			Where("id = ? AND user_id = ?", dietID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrDietNotFound
		}
		if err := tx.Model(&types.Diet{}).
			Where("user_id = ? AND is_active = ? AND id <> ?", userID, true, dietID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&types.Diet{}).
			Where("id = ?", dietID).
			Update("is_active", true).Error
	})
}

func (r *dietRepo) SetPDFPath(dbc dbctx.Context, dietID uuid.UUID, path string) error {
	return dbc.DB(r.db).
		Model(&types.Diet{}).
		Where("id = ?", dietID).
		Update("pdf_path", path).Error
}

// DecodeDocument unmarshals the stored diet document.
func DecodeDocument(row *types.Diet) (document.Diet, error) {
	var doc document.Diet
	if row == nil || len(row.Document) == 0 {
		return doc, ErrDietNotFound
	}
	if err := json.Unmarshal(row.Document, &doc); err != nil {
		return doc, fmt.Errorf("decode diet document: %w", err)
	}
	return doc, nil
}

package diet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceNutritionist = "nutritionist"
	SourceConsultation = "consultation"
)

// Diet is a saved diet document. At most one row per user has IsActive.
type Diet struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_diet_user_active,priority:1" json:"user_id"`
	Name     string         `gorm:"column:name;not null" json:"name"`
	Source   string         `gorm:"column:source;not null" json:"source"`
	IsActive bool           `gorm:"column:is_active;not null;index:idx_diet_user_active,priority:2" json:"is_active"`
	Document datatypes.JSON `gorm:"column:document;not null" json:"document"`
	PDFPath  string         `gorm:"column:pdf_path" json:"pdf_path,omitempty"`

	DailyTargetKcal float64 `gorm:"column:daily_target_kcal" json:"daily_target_kcal"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Diet) TableName() string { return "diet" }

func (d *Diet) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type ShoppingList struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	DietID      *uuid.UUID     `gorm:"type:uuid;index" json:"diet_id,omitempty"`
	Name        string         `gorm:"column:name" json:"name"`
	Items       datatypes.JSON `gorm:"column:items;not null" json:"items"`
	IsCompleted bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ShoppingList) TableName() string { return "shopping_list" }

func (s *ShoppingList) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// InventoryItem is one food kept at home. ItemName is unique per user.
type InventoryItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_user_item,priority:1" json:"user_id"`
	ItemName       string     `gorm:"column:item_name;not null;uniqueIndex:idx_inventory_user_item,priority:2" json:"item_name"`
	Quantity       float64    `gorm:"column:quantity" json:"quantity"`
	Unit           string     `gorm:"column:unit" json:"unit"`
	Category       string     `gorm:"column:category" json:"category"`
	ExpirationDate *time.Time `gorm:"column:expiration_date" json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_item" }

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

package user

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserProfile holds the anthropometric and preference data a consultation
// starts from. One row per user; it is updated in place and never removed
// automatically.
type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Age           int     `gorm:"column:age" json:"age"`
	Gender        string  `gorm:"column:gender" json:"gender"`
	WeightKg      float64 `gorm:"column:weight_kg" json:"weight_kg"`
	HeightCm      float64 `gorm:"column:height_cm" json:"height_cm"`
	ActivityLevel string  `gorm:"column:activity_level" json:"activity_level"`
	PrimaryGoal   string  `gorm:"column:primary_goal" json:"primary_goal"`
	Budget        string  `gorm:"column:budget" json:"budget"`

	DietaryRestrictions datatypes.JSON `gorm:"column:dietary_restrictions" json:"dietary_restrictions"`
	Allergies           datatypes.JSON `gorm:"column:allergies" json:"allergies"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profile" }

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *UserProfile) RestrictionList() []string { return decodeList(p.DietaryRestrictions) }
func (p *UserProfile) AllergyList() []string     { return decodeList(p.Allergies) }

// EncodeList stores a string list in a JSON column.
func EncodeList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

func decodeList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

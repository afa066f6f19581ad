package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_chat_message_session_seq,unique,priority:1" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Seq int64 `gorm:"column:seq;not null;index:idx_chat_message_session_seq,unique,priority:2" json:"seq"`

	Role    string `gorm:"column:role;not null" json:"role"`
	Phase   string `gorm:"column:phase" json:"phase,omitempty"`
	Content string `gorm:"column:content;type:text;not null" json:"content"`
	Model   string `gorm:"column:model" json:"model,omitempty"`

	InputTokens  int     `gorm:"column:input_tokens;not null;default:0" json:"input_tokens"`
	OutputTokens int     `gorm:"column:output_tokens;not null;default:0" json:"output_tokens"`
	CostUSD      float64 `gorm:"column:cost_usd;not null;default:0" json:"cost_usd"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

// ChatSession groups the messages of one consultation and accumulates its
// model usage. NextSeq orders messages within the session.
type ChatSession struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ConsultationID string    `gorm:"column:consultation_id;index" json:"consultation_id,omitempty"`
	Status         string    `gorm:"column:status;not null;index" json:"status"`
	Model          string    `gorm:"column:model" json:"model,omitempty"`

	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"next_seq"`

	TotalRequests     int     `gorm:"column:total_requests;not null;default:0" json:"total_requests"`
	TotalInputTokens  int     `gorm:"column:total_input_tokens;not null;default:0" json:"total_input_tokens"`
	TotalOutputTokens int     `gorm:"column:total_output_tokens;not null;default:0" json:"total_output_tokens"`
	TotalCostUSD      float64 `gorm:"column:total_cost_usd;not null;default:0" json:"total_cost_usd"`

	StartedAt     time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt       *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	LastMessageAt time.Time  `gorm:"column:last_message_at;not null;index" json:"last_message_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatSession) TableName() string { return "chat_session" }

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Duration is the session length, up to now when it has not ended.
func (s *ChatSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

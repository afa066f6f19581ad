package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

var ErrSessionNotFound = errors.New("chat session not found")

// Usage is one model exchange to add to a session's running totals.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

type ChatSessionRepo interface {
	Create(dbc dbctx.Context, row *types.ChatSession) error
	GetByID(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.ChatSession, error)
	// GetActiveByConsultation returns nil, nil when no active session is bound
	// to the consultation.
	GetActiveByConsultation(dbc dbctx.Context, userID uuid.UUID, consultationID string) (*types.ChatSession, error)
	AddUsage(dbc dbctx.Context, sessionID uuid.UUID, u Usage, at time.Time) error
	End(dbc dbctx.Context, userID, sessionID uuid.UUID, at time.Time) (*types.ChatSession, error)
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) error {
	if row.Status == "" {
		row.Status = types.ChatSessionActive
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = time.Now().UTC()
	}
	if row.LastMessageAt.IsZero() {
		row.LastMessageAt = row.StartedAt
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.ChatSession, error) {
	var row types.ChatSession
	err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *chatSessionRepo) GetActiveByConsultation(dbc dbctx.Context, userID uuid.UUID, consultationID string) (*types.ChatSession, error) {
	if consultationID == "" {
		return nil, nil
	}
	var rows []*types.ChatSession
	if err := dbc.DB(r.db).
		Where("user_id = ? AND consultation_id = ? AND status = ?", userID, consultationID, types.ChatSessionActive).
		Order("started_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *chatSessionRepo) AddUsage(dbc dbctx.Context, sessionID uuid.UUID, u Usage, at time.Time) error {
	res := dbc.DB(r.db).
		Model(&types.ChatSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"total_requests":      gorm.Expr("total_requests + ?", 1),
			"total_input_tokens":  gorm.Expr("total_input_tokens + ?", u.InputTokens),
			"total_output_tokens": gorm.Expr("total_output_tokens + ?", u.OutputTokens),
			"total_cost_usd":      gorm.Expr("total_cost_usd + ?", u.CostUSD),
			"last_message_at":     at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *chatSessionRepo) End(dbc dbctx.Context, userID, sessionID uuid.UUID, at time.Time) (*types.ChatSession, error) {
	var out *types.ChatSession
	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		var row types.ChatSession
		if err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if row.Status != types.ChatSessionEnded {
			row.Status = types.ChatSessionEnded
			row.EndedAt = &at
			if err := tx.Model(&row).Updates(map[string]any{
				"status":   row.Status,
				"ended_at": at,
			}).Error; err != nil {
				return err
			}
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	// Append assigns the session's next sequence number to msg and stores it.
	Append(dbc dbctx.Context, msg *types.ChatMessage) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Append(dbc dbctx.Context, msg *types.ChatMessage) error {
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		var sess types.ChatSession
		if err := tx.Select("id", "next_seq").Where("id = ?", msg.SessionID).First(&sess).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSessionNotFound
			}
			return err
		}
		msg.Seq = sess.NextSeq
		if err := tx.Model(&types.ChatSession{}).
			Where("id = ?", sess.ID).
			Update("next_seq", gorm.Expr("next_seq + 1")).Error; err != nil {
			return err
		}
		return tx.Create(msg).Error
	})
}

func (r *chatMessageRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []*types.ChatMessage
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

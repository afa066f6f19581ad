package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/shapemate-backend/internal/data/repos"
	"github.com/yungbote/shapemate-backend/internal/data/repos/chat"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// ChatSessionStats summarizes a session's usage.
type ChatSessionStats struct {
	Session         *types.ChatSession   `json:"session"`
	DurationSeconds float64              `json:"duration_seconds"`
	MessageCount    int                  `json:"message_count"`
	Messages        []*types.ChatMessage `json:"messages,omitempty"`
}

type ChatSessionService interface {
	Create(ctx context.Context, consultationID string) (*types.ChatSession, error)
	End(ctx context.Context, sessionID string) (*types.ChatSession, error)
	Stats(ctx context.Context, sessionID string, withMessages bool) (*ChatSessionStats, error)
}

type chatSessionService struct {
	log      *logger.Logger
	sessions repos.ChatSessionRepo
	messages repos.ChatMessageRepo
	model    string
	now      func() time.Time
}

func NewChatSessionService(log *logger.Logger, sessions repos.ChatSessionRepo, messages repos.ChatMessageRepo, model string) ChatSessionService {
	return &chatSessionService{
		log:      log.With("service", "ChatSessionService"),
		sessions: sessions,
		messages: messages,
		model:    model,
		now:      time.Now,
	}
}

func (s *chatSessionService) Create(ctx context.Context, consultationID string) (*types.ChatSession, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	row := &types.ChatSession{
		UserID:         userID,
		ConsultationID: strings.TrimSpace(consultationID),
		Model:          s.model,
		StartedAt:      s.now().UTC(),
	}
	if err := s.sessions.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, err
	}
	s.log.Info("Chat session opened", "session_id", row.ID.String(), "user_id", userID.String())
	return row, nil
}

func (s *chatSessionService) End(ctx context.Context, sessionID string) (*types.ChatSession, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(sessionID, "invalid_session_id")
	if err != nil {
		return nil, err
	}
	row, err := s.sessions.End(dbctx.Context{Ctx: ctx}, userID, id, s.now().UTC())
	if err != nil {
		return nil, sessionAPIError(err)
	}
	return row, nil
}

func (s *chatSessionService) Stats(ctx context.Context, sessionID string, withMessages bool) (*ChatSessionStats, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(sessionID, "invalid_session_id")
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.sessions.GetByID(dbc, userID, id)
	if err != nil {
		return nil, sessionAPIError(err)
	}
	out := &ChatSessionStats{
		Session:         row,
		DurationSeconds: row.Duration(s.now().UTC()).Seconds(),
		MessageCount:    int(row.NextSeq),
	}
	if withMessages {
		msgs, err := s.messages.ListBySession(dbc, id, 0)
		if err != nil {
			return nil, err
		}
		out.Messages = msgs
	}
	return out, nil
}

func sessionAPIError(err error) error {
	if errors.Is(err, chat.ErrSessionNotFound) {
		return apierr.NotFound("chat_session_not_found", err)
	}
	return err
}

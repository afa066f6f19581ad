package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/assistant"
	"github.com/yungbote/shapemate-backend/internal/data/repos"
	dietrepo "github.com/yungbote/shapemate-backend/internal/data/repos/diet"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type AssistantInput struct {
	Message string           `json:"message"`
	History []assistant.Turn `json:"history,omitempty"`
	// ChatSessionID charges model usage to an open chat session.
	ChatSessionID string `json:"chat_session_id,omitempty"`
}

type AssistantService interface {
	Ask(ctx context.Context, in AssistantInput) (assistant.Answer, error)
}

type AssistantDeps struct {
	Assistant *assistant.Assistant
	Users     repos.UserRepo
	Profiles  repos.UserProfileRepo
	Diets     repos.DietRepo
	Inventory repos.InventoryRepo
	Sessions  repos.ChatSessionRepo
}

type assistantService struct {
	log  *logger.Logger
	deps AssistantDeps
}

func NewAssistantService(log *logger.Logger, deps AssistantDeps) AssistantService {
	return &assistantService{log: log.With("service", "AssistantService"), deps: deps}
}

func (s *assistantService) Ask(ctx context.Context, in AssistantInput) (assistant.Answer, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return assistant.Answer{}, err
	}
	askCtx := ctx
	if raw := strings.TrimSpace(in.ChatSessionID); raw != "" {
		sessID, err := parseID(raw, "invalid_session_id")
		if err != nil {
			return assistant.Answer{}, err
		}
		if _, err := s.deps.Sessions.GetByID(dbctx.Context{Ctx: ctx}, userID, sessID); err != nil {
			return assistant.Answer{}, sessionAPIError(err)
		}
		askCtx, _ = withUsageMeter(ctx, sessID)
	}

	user, err := s.userContext(ctx, userID)
	if err != nil {
		return assistant.Answer{}, err
	}
	out, err := s.deps.Assistant.Answer(askCtx, assistant.Request{Message: in.Message, History: in.History, User: user})
	if err != nil {
		return assistant.Answer{}, assistantAPIError(err)
	}
	s.log.Info("Assistant request answered", "user_id", userID.String(), "request_type", string(out.RequestType))
	return out, nil
}

// userContext gathers the profile, active diet and inventory. Missing
// pieces leave their fields empty.
func (s *assistantService) userContext(ctx context.Context, userID uuid.UUID) (assistant.Context, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var out assistant.Context

	users, err := s.deps.Users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return out, fmt.Errorf("load user: %w", err)
	}
	if len(users) > 0 {
		out.Name = users[0].FirstName
	}

	p, err := s.deps.Profiles.GetByUserID(dbc, userID)
	if err != nil {
		return out, fmt.Errorf("load profile: %w", err)
	}
	if p != nil {
		out.Restrictions = p.RestrictionList()
		out.Allergies = p.AllergyList()
	}

	row, err := s.deps.Diets.GetActiveDiet(dbc, userID)
	if err != nil {
		return out, fmt.Errorf("load active diet: %w", err)
	}
	if row != nil {
		out.DailyTargetKcal = row.DailyTargetKcal
		doc, err := dietrepo.DecodeDocument(row)
		if err != nil {
			s.log.Warn("Active diet document unreadable", "diet_id", row.ID.String(), "error", err)
		} else {
			out.DietShopping = doc.ShoppingList
		}
	}

	items, err := s.deps.Inventory.ListByUser(dbc, userID)
	if err != nil {
		return out, fmt.Errorf("load inventory: %w", err)
	}
	for _, it := range items {
		out.Inventory = append(out.Inventory, it.ItemName)
	}
	return out, nil
}

func assistantAPIError(err error) error {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrMessageTooLong):
		return apierr.BadRequest("invalid_message", err)
	case errors.Is(err, assistant.ErrUpstream):
		return apierr.New(http.StatusBadGateway, "assistant_upstream", err)
	default:
		return err
	}
}

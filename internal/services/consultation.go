package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/shapemate-backend/internal/consultation"
	"github.com/yungbote/shapemate-backend/internal/data/repos"
	"github.com/yungbote/shapemate-backend/internal/data/repos/chat"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// TurnResult is the outcome of one user message. When Failed is set the
// consultation was left as it was and Reply carries an apology.
type TurnResult struct {
	State  consultation.State `json:"state"`
	Reply  string             `json:"reply"`
	Failed bool               `json:"failed"`
}

type ConsultationService interface {
	Start(ctx context.Context) (consultation.State, error)
	Get(ctx context.Context, consultationID string) (consultation.State, error)
	SendMessage(ctx context.Context, consultationID, message string) (TurnResult, error)
	Reset(ctx context.Context, consultationID string) (consultation.State, error)
	Finalize(ctx context.Context, consultationID string) (consultation.FinalizeResult, error)
}

type ConsultationDeps struct {
	Engine       *consultation.Engine
	Store        consultation.SessionStore
	Locks        *consultation.KeyedMutex
	Users        repos.UserRepo
	Profiles     repos.UserProfileRepo
	ChatSessions repos.ChatSessionRepo
	ChatMessages repos.ChatMessageRepo
	Model        string
}

type consultationService struct {
	log      *logger.Logger
	engine   *consultation.Engine
	store    consultation.SessionStore
	locks    *consultation.KeyedMutex
	users    repos.UserRepo
	profiles repos.UserProfileRepo
	sessions repos.ChatSessionRepo
	messages repos.ChatMessageRepo
	model    string
}

func NewConsultationService(log *logger.Logger, d ConsultationDeps) ConsultationService {
	locks := d.Locks
	if locks == nil {
		locks = consultation.NewKeyedMutex()
	}
	return &consultationService{
		log:      log.With("service", "ConsultationService"),
		engine:   d.Engine,
		store:    d.Store,
		locks:    locks,
		users:    d.Users,
		profiles: d.Profiles,
		sessions: d.ChatSessions,
		messages: d.ChatMessages,
		model:    d.Model,
	}
}

func (cs *consultationService) Start(ctx context.Context) (consultation.State, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return consultation.State{}, err
	}
	data, err := cs.userData(ctx, userID)
	if err != nil {
		return consultation.State{}, err
	}
	st, err := cs.engine.StartConsultation(ctx, userID.String(), data)
	if err != nil {
		return consultation.State{}, consultationAPIError(err)
	}
	if err := cs.store.Put(ctx, st); err != nil {
		return consultation.State{}, fmt.Errorf("store consultation: %w", err)
	}
	if sess := cs.chatSession(ctx, userID, st.ConsultationID); sess != nil {
		cs.record(ctx, sess, userID, consultation.RoleAssistant, st, st.LastAssistantMessage(), nil)
	}
	return st, nil
}

func (cs *consultationService) Get(ctx context.Context, consultationID string) (consultation.State, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return consultation.State{}, err
	}
	return cs.load(ctx, userID, consultationID)
}

func (cs *consultationService) SendMessage(ctx context.Context, consultationID, message string) (TurnResult, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	unlock := cs.locks.Lock(consultationID)
	defer unlock()

	st, err := cs.load(ctx, userID, consultationID)
	if err != nil {
		return TurnResult{}, err
	}

	sess := cs.chatSession(ctx, userID, consultationID)
	turnCtx := ctx
	var meter *usageMeter
	if sess != nil {
		turnCtx, meter = withUsageMeter(ctx, sess.ID)
	}

	next, err := cs.engine.ContinueStructuredConsultation(turnCtx, st, message)
	if err != nil {
		if consultation.KindOf(err) == consultation.KindValidation {
			return TurnResult{}, consultationAPIError(err)
		}
		cs.log.Warn("Consultation turn failed, keeping previous state", "consultation_id", consultationID, "error", err)
		return TurnResult{State: st, Reply: consultation.Apology, Failed: true}, nil
	}
	if err := cs.store.Put(ctx, next); err != nil {
		return TurnResult{}, fmt.Errorf("store consultation: %w", err)
	}

	reply := next.LastAssistantMessage()
	if sess != nil {
		cs.record(ctx, sess, userID, consultation.RoleUser, st, strings.TrimSpace(message), nil)
		usage := meter.Total()
		cs.record(ctx, sess, userID, consultation.RoleAssistant, next, reply, &usage)
	}
	return TurnResult{State: next, Reply: reply}, nil
}

func (cs *consultationService) Reset(ctx context.Context, consultationID string) (consultation.State, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return consultation.State{}, err
	}
	unlock := cs.locks.Lock(consultationID)
	defer unlock()

	st, err := cs.load(ctx, userID, consultationID)
	if err != nil {
		return consultation.State{}, err
	}
	next, err := cs.engine.Reset(ctx, st)
	if err != nil {
		return consultation.State{}, consultationAPIError(err)
	}
	if err := cs.store.Put(ctx, next); err != nil {
		return consultation.State{}, fmt.Errorf("store consultation: %w", err)
	}
	return next, nil
}

func (cs *consultationService) Finalize(ctx context.Context, consultationID string) (consultation.FinalizeResult, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return consultation.FinalizeResult{}, err
	}
	unlock := cs.locks.Lock(consultationID)
	defer unlock()

	st, err := cs.load(ctx, userID, consultationID)
	if err != nil {
		return consultation.FinalizeResult{}, err
	}
	res, err := cs.engine.FinalizeDiet(ctx, userID.String(), st)
	if err != nil {
		return consultation.FinalizeResult{}, consultationAPIError(err)
	}
	if err := cs.store.Put(ctx, res.State); err != nil {
		// The diet is already saved; a stale stored state only means the
		// next read shows the pre-finalize conversation.
		cs.log.Warn("Failed to store finalized consultation", "consultation_id", consultationID, "error", err)
	}

	if sess := cs.activeSession(ctx, userID, consultationID); sess != nil {
		cs.record(ctx, sess, userID, consultation.RoleAssistant, res.State, res.State.LastAssistantMessage(), nil)
		if _, err := cs.sessions.End(dbctx.Context{Ctx: ctx}, userID, sess.ID, time.Now().UTC()); err != nil {
			cs.log.Warn("Failed to end chat session", "session_id", sess.ID.String(), "error", err)
		}
	}
	return res, nil
}

func (cs *consultationService) load(ctx context.Context, userID uuid.UUID, consultationID string) (consultation.State, error) {
	consultationID = strings.TrimSpace(consultationID)
	if consultationID == "" {
		return consultation.State{}, apierr.BadRequest("missing_consultation_id", errors.New("consultation id is required"))
	}
	st, ok, err := cs.store.Get(ctx, consultationID)
	if err != nil {
		return consultation.State{}, fmt.Errorf("load consultation: %w", err)
	}
	// Another user's consultation is reported as missing.
	if !ok || st.UserID != userID.String() {
		return consultation.State{}, apierr.NotFound("consultation_not_found", consultation.ErrNotFound)
	}
	return st, nil
}

func (cs *consultationService) userData(ctx context.Context, userID uuid.UUID) (consultation.UserData, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var data consultation.UserData
	users, err := cs.users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return data, fmt.Errorf("load user: %w", err)
	}
	if len(users) > 0 {
		data.Name = strings.TrimSpace(users[0].FirstName + " " + users[0].LastName)
	}
	p, err := cs.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return data, fmt.Errorf("load profile: %w", err)
	}
	if p != nil {
		data.Age = p.Age
		data.Gender = p.Gender
		data.WeightKg = p.WeightKg
		data.HeightCm = p.HeightCm
		data.ActivityLevel = p.ActivityLevel
		data.PrimaryObjective = p.PrimaryGoal
		data.Budget = p.Budget
		data.Restrictions = p.RestrictionList()
		data.Allergies = p.AllergyList()
	}
	return data, nil
}

func (cs *consultationService) activeSession(ctx context.Context, userID uuid.UUID, consultationID string) *types.ChatSession {
	if cs.sessions == nil {
		return nil
	}
	sess, err := cs.sessions.GetActiveByConsultation(dbctx.Context{Ctx: ctx}, userID, consultationID)
	if err != nil {
		cs.log.Warn("Failed to load chat session", "consultation_id", consultationID, "error", err)
		return nil
	}
	return sess
}

// chatSession returns the consultation's active chat session, opening one
// when none exists. Chat bookkeeping never fails a consultation request.
func (cs *consultationService) chatSession(ctx context.Context, userID uuid.UUID, consultationID string) *types.ChatSession {
	if cs.sessions == nil {
		return nil
	}
	if sess := cs.activeSession(ctx, userID, consultationID); sess != nil {
		return sess
	}
	sess := &types.ChatSession{UserID: userID, ConsultationID: consultationID, Model: cs.model}
	if err := cs.sessions.Create(dbctx.Context{Ctx: ctx}, sess); err != nil {
		cs.log.Warn("Failed to open chat session", "consultation_id", consultationID, "error", err)
		return nil
	}
	return sess
}

func (cs *consultationService) record(ctx context.Context, sess *types.ChatSession, userID uuid.UUID, role string, st consultation.State, content string, usage *chat.Usage) {
	if cs.messages == nil || content == "" {
		return
	}
	msg := &types.ChatMessage{
		SessionID: sess.ID,
		UserID:    userID,
		Role:      role,
		Phase:     string(st.CurrentPhase),
		Content:   content,
	}
	if usage != nil {
		msg.Model = cs.model
		msg.InputTokens = usage.InputTokens
		msg.OutputTokens = usage.OutputTokens
		msg.CostUSD = usage.CostUSD
	}
	if err := cs.messages.Append(dbctx.Context{Ctx: ctx}, msg); err != nil {
		cs.log.Warn("Failed to record chat message", "session_id", sess.ID.String(), "error", err)
	}
}

func consultationAPIError(err error) error {
	switch consultation.KindOf(err) {
	case consultation.KindValidation:
		return apierr.BadRequest("invalid_consultation_input", err)
	case consultation.KindState:
		return apierr.Conflict("consultation_state", err)
	case consultation.KindParse, consultation.KindDependency:
		return apierr.New(http.StatusBadGateway, "consultation_upstream", err)
	default:
		return err
	}
}

const defaultSaveTimeout = 10 * time.Second

// ConsultationDietSaver stores finalized diets together with their PDF
// location in a single transaction.
type ConsultationDietSaver struct {
	db      *gorm.DB
	diets   repos.DietRepo
	timeout time.Duration
}

func NewConsultationDietSaver(db *gorm.DB, diets repos.DietRepo, timeout time.Duration) *ConsultationDietSaver {
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	return &ConsultationDietSaver{db: db, diets: diets, timeout: timeout}
}

func (s *ConsultationDietSaver) SaveDiet(ctx context.Context, userID string, doc document.Diet, pdfPath string) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var id uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		saved, err := s.diets.SaveDiet(dbc, uid, doc, "", types.DietSourceConsultation)
		if err != nil {
			return err
		}
		if pdfPath != "" {
			if err := s.diets.SetPDFPath(dbc, saved, pdfPath); err != nil {
				return err
			}
		}
		id = saved
		return nil
	})
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

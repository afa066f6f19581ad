package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/shapemate-backend/internal/consultation"
	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/nutrition/selector"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

type stubLLM struct {
	mu    sync.Mutex
	reply string
	usage openai.Usage
	err   error
}

func (s *stubLLM) Chat(ctx context.Context, msgs []openai.Message) (openai.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return openai.Completion{}, s.err
	}
	return openai.Completion{Text: s.reply, Model: "test-model", Usage: s.usage}, nil
}

func (s *stubLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	c, err := s.Chat(ctx, nil)
	return c.Text, err
}

func (s *stubLLM) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type stubSelector struct{}

func (stubSelector) SelectFoodGroups(ctx context.Context, prefs selector.Preferences, targets calc.Calculation, conv []selector.ContextTurn) ([]string, error) {
	return []string{"chicken breast", "brown rice", "broccoli"}, nil
}

type stubNutrients struct{}

func (stubNutrients) GetMultipleFoods(ctx context.Context, names []string) map[string]*lookup.NutrientRecord {
	return map[string]*lookup.NutrientRecord{
		"chicken breast": {Name: "chicken breast", CaloriesPer100g: 165, ProteinG: 31, FatG: 3.6, Source: lookup.SourceUSDA},
		"brown rice":     {Name: "brown rice", CaloriesPer100g: 112, ProteinG: 2.3, CarbsG: 23.5, FatG: 0.8, Source: lookup.SourceUSDA},
		"broccoli":       {Name: "broccoli", CaloriesPer100g: 34, ProteinG: 2.8, CarbsG: 6.6, Source: lookup.SourceUSDA},
	}
}

type stubRenderer struct{ calls int }

func (r *stubRenderer) Render(ctx context.Context, doc document.Diet) (string, error) {
	r.calls++
	return "data/pdfs/dieta_test.pdf", nil
}

type consultationHarness struct {
	env      *testEnv
	svc      ConsultationService
	llm      *stubLLM
	renderer *stubRenderer
	user     *types.User
}

func newConsultationHarness(t *testing.T) *consultationHarness {
	t.Helper()
	env := newTestEnv(t)
	log := testutil.Logger(t)
	h := &consultationHarness{
		env:      env,
		llm:      &stubLLM{reply: "Entendi! Me conte mais.", usage: openai.Usage{PromptTokens: 120, CompletionTokens: 30}},
		renderer: &stubRenderer{},
	}
	engine, err := consultation.NewEngine(log, consultation.Deps{
		LLM:       NewMeteredLLM(log, h.llm, env.repos.ChatSession),
		Selector:  stubSelector{},
		Nutrients: stubNutrients{},
		Renderer:  h.renderer,
		Saver:     NewConsultationDietSaver(env.db, env.repos.Diet, time.Second),
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h.svc = NewConsultationService(log, ConsultationDeps{
		Engine:       engine,
		Store:        consultation.NewMemoryStore(log, time.Hour),
		Users:        env.repos.User,
		Profiles:     env.repos.UserProfile,
		ChatSessions: env.repos.ChatSession,
		ChatMessages: env.repos.ChatMessage,
		Model:        "test-model",
	})

	h.user = env.seedUser(t, "ana@example.com")
	profile := &types.UserProfile{
		UserID:        h.user.ID,
		Age:           30,
		Gender:        "female",
		WeightKg:      62,
		HeightCm:      165,
		ActivityLevel: "moderate",
		PrimaryGoal:   "lose_weight",
		Allergies:     types.EncodeList([]string{"amendoim"}),
	}
	if err := env.repos.UserProfile.Upsert(dbctx.Context{Ctx: context.Background()}, profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return h
}

func TestConsultationServiceStartUsesProfile(t *testing.T) {
	h := newConsultationHarness(t)
	ctx := asUser(h.user.ID)

	st, err := h.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.UserID != h.user.ID.String() || st.CurrentPhase != consultation.PhaseGreeting {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.UserData.Name != "Ana Souza" || st.UserData.WeightKg != 62 || len(st.UserData.Allergies) != 1 {
		t.Fatalf("profile not loaded: %+v", st.UserData)
	}

	got, err := h.svc.Get(ctx, st.ConsultationID)
	if err != nil || got.ConsultationID != st.ConsultationID {
		t.Fatalf("Get: %v %+v", err, got)
	}

	sess, err := h.env.repos.ChatSession.GetActiveByConsultation(dbctx.Context{Ctx: ctx}, h.user.ID, st.ConsultationID)
	if err != nil || sess == nil {
		t.Fatalf("chat session not opened: %v", err)
	}
	msgs, err := h.env.repos.ChatMessage.ListBySession(dbctx.Context{Ctx: ctx}, sess.ID, 0)
	if err != nil || len(msgs) != 1 || msgs[0].Role != consultation.RoleAssistant {
		t.Fatalf("greeting not recorded: %v %+v", err, msgs)
	}
}

func TestConsultationServiceHidesOtherUsers(t *testing.T) {
	h := newConsultationHarness(t)
	st, err := h.svc.Start(asUser(h.user.ID))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	other := h.env.seedUser(t, "bia@example.com")
	_, err = h.svc.Get(asUser(other.ID), st.ConsultationID)
	if status, _ := apierr.StatusOf(err); status != http.StatusNotFound {
		t.Fatalf("status=%d err=%v", status, err)
	}
	if _, err := h.svc.Start(context.Background()); err == nil {
		t.Fatalf("start without a user should fail")
	}
}

func TestConsultationServiceSendMessage(t *testing.T) {
	h := newConsultationHarness(t)
	ctx := asUser(h.user.ID)
	st, err := h.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := h.svc.SendMessage(ctx, st.ConsultationID, "Gosto muito de frango")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Failed || res.Reply != "Entendi! Me conte mais." || len(res.State.ConversationHistory) != 3 {
		t.Fatalf("unexpected turn: %+v", res)
	}

	sess, err := h.env.repos.ChatSession.GetActiveByConsultation(dbctx.Context{Ctx: ctx}, h.user.ID, st.ConsultationID)
	if err != nil || sess == nil {
		t.Fatalf("session: %v", err)
	}
	if sess.TotalRequests != 1 || sess.TotalInputTokens != 120 || sess.TotalOutputTokens != 30 || sess.TotalCostUSD <= 0 {
		t.Fatalf("usage not charged: %+v", sess)
	}
	msgs, _ := h.env.repos.ChatMessage.ListBySession(dbctx.Context{Ctx: ctx}, sess.ID, 0)
	if len(msgs) != 3 || msgs[1].Role != consultation.RoleUser || msgs[2].InputTokens != 120 {
		t.Fatalf("messages = %+v", msgs)
	}

	// Empty replies are the caller's fault.
	_, err = h.svc.SendMessage(ctx, st.ConsultationID, "   ")
	if status, _ := apierr.StatusOf(err); status != http.StatusBadRequest {
		t.Fatalf("empty reply status=%d err=%v", status, err)
	}

	h.llm.fail(errors.New("upstream down"))
	failed, err := h.svc.SendMessage(ctx, st.ConsultationID, "Treino à noite")
	if err != nil {
		t.Fatalf("dependency failures should not surface as errors: %v", err)
	}
	if !failed.Failed || failed.Reply != consultation.Apology {
		t.Fatalf("expected apology, got %+v", failed)
	}
	stored, _ := h.svc.Get(ctx, st.ConsultationID)
	if len(stored.ConversationHistory) != 3 {
		t.Fatalf("failed turn changed the stored state: %d turns", len(stored.ConversationHistory))
	}
}

func TestConsultationServiceGenerateAndFinalize(t *testing.T) {
	h := newConsultationHarness(t)
	ctx := asUser(h.user.ID)
	st, err := h.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := h.svc.Finalize(ctx, st.ConsultationID); err == nil {
		t.Fatalf("finalize without a diet should fail")
	} else if status, _ := apierr.StatusOf(err); status != http.StatusConflict {
		t.Fatalf("finalize without diet status=%d", status)
	}

	res, err := h.svc.SendMessage(ctx, st.ConsultationID, "Pode gerar minha dieta agora")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.State.GeneratedDiet == nil || res.State.CurrentPhase != consultation.PhaseDietGenerated {
		t.Fatalf("generate command not applied: phase=%s", res.State.CurrentPhase)
	}

	out, err := h.svc.Finalize(ctx, st.ConsultationID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if out.DietID == "" || h.renderer.calls != 1 {
		t.Fatalf("result=%+v renders=%d", out, h.renderer.calls)
	}
	if _, err := h.svc.Finalize(ctx, st.ConsultationID); err == nil {
		t.Fatalf("second finalize should fail")
	} else if status, _ := apierr.StatusOf(err); status != http.StatusConflict || h.renderer.calls != 1 {
		t.Fatalf("second finalize status=%d renders=%d", status, h.renderer.calls)
	}

	dbc := dbctx.Context{Ctx: ctx}
	active, err := h.env.repos.Diet.GetActiveDiet(dbc, h.user.ID)
	if err != nil || active == nil {
		t.Fatalf("active diet: %v", err)
	}
	if active.ID.String() != out.DietID || active.Source != types.DietSourceConsultation || active.PDFPath != "data/pdfs/dieta_test.pdf" {
		t.Fatalf("saved diet = %+v", active)
	}
	if !strings.HasPrefix(active.Name, "Dieta ") {
		t.Fatalf("default name = %q", active.Name)
	}

	sess, err := h.env.repos.ChatSession.GetActiveByConsultation(dbc, h.user.ID, st.ConsultationID)
	if err != nil || sess != nil {
		t.Fatalf("chat session should be ended after finalize: %v %+v", err, sess)
	}
}

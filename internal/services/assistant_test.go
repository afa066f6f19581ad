package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/assistant"
	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

type recordingLLM struct {
	mu   sync.Mutex
	err  error
	last []openai.Message
}

func (r *recordingLLM) Chat(ctx context.Context, msgs []openai.Message) (openai.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = msgs
	if r.err != nil {
		return openai.Completion{}, r.err
	}
	return openai.Completion{Text: "Prefira o grelhado.", Usage: openai.Usage{PromptTokens: 40, CompletionTokens: 6}}, nil
}

func (r *recordingLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	c, err := r.Chat(ctx, nil)
	return c.Text, err
}

func TestAssistantServiceUsesUserData(t *testing.T) {
	env := newTestEnv(t)
	log := testutil.Logger(t)
	u := env.seedUser(t, "ana@example.com")
	ctx := asUser(u.ID)
	dbc := dbctx.Context{Ctx: ctx}

	profile := &types.UserProfile{UserID: u.ID, Allergies: types.EncodeList([]string{"amendoim"})}
	if err := env.repos.UserProfile.Upsert(dbc, profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := env.repos.Diet.SaveDiet(dbc, u.ID, sampleDiet(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)), "", ""); err != nil {
		t.Fatalf("SaveDiet: %v", err)
	}
	if err := env.repos.Inventory.Upsert(dbc, []*types.InventoryItem{{UserID: u.ID, ItemName: "Brown Rice", Quantity: 1, Unit: "kg"}}); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	sess := testutil.SeedChatSession(t, context.Background(), env.db, u.ID)

	raw := &recordingLLM{}
	a, err := assistant.New(log, NewMeteredLLM(log, raw, env.repos.ChatSession), stubLookup{}, nil)
	if err != nil {
		t.Fatalf("assistant.New: %v", err)
	}
	svc := NewAssistantService(log, AssistantDeps{
		Assistant: a,
		Users:     env.repos.User,
		Profiles:  env.repos.UserProfile,
		Diets:     env.repos.Diet,
		Inventory: env.repos.Inventory,
		Sessions:  env.repos.ChatSession,
	})

	// The shopping list comes from the active diet minus what is at home.
	out, err := svc.Ask(ctx, AssistantInput{Message: "faz minha lista de compras"})
	if err != nil {
		t.Fatalf("Ask shopping list: %v", err)
	}
	if out.RequestType != assistant.RequestShoppingList || len(out.ShoppingList) != 1 || out.ShoppingList[0].Item != "broccoli" {
		t.Fatalf("shopping answer = %+v", out)
	}

	// Substitutions mark what the user already has.
	out, err = svc.Ask(ctx, AssistantInput{Message: "posso trocar o arroz?"})
	if err != nil {
		t.Fatalf("Ask substitution: %v", err)
	}
	if out.RequestType != assistant.RequestSubstitution || len(out.Substitutions) == 0 {
		t.Fatalf("substitution answer = %+v", out)
	}

	// Model answers see the profile and are charged to the chat session.
	out, err = svc.Ask(ctx, AssistantInput{Message: "o que peço no restaurante?", ChatSessionID: sess.ID.String()})
	if err != nil {
		t.Fatalf("Ask menu: %v", err)
	}
	if !out.FromModel || out.Reply != "Prefira o grelhado." {
		t.Fatalf("menu answer = %+v", out)
	}
	sys := raw.last[0].Content
	for _, want := range []string{"nome: Ana", "alergias: amendoim", "Arroz integral", "tem em casa: brown rice"} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q: %s", want, sys)
		}
	}
	got, err := env.repos.ChatSession.GetByID(dbc, u.ID, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalRequests != 1 || got.TotalInputTokens != 40 {
		t.Fatalf("session usage = %+v", got)
	}
}

func TestAssistantServiceErrors(t *testing.T) {
	env := newTestEnv(t)
	log := testutil.Logger(t)
	u := env.seedUser(t, "ana@example.com")
	ctx := asUser(u.ID)

	llm := &recordingLLM{err: errors.New("connection reset")}
	a, err := assistant.New(log, llm, nil, nil)
	if err != nil {
		t.Fatalf("assistant.New: %v", err)
	}
	svc := NewAssistantService(log, AssistantDeps{
		Assistant: a,
		Users:     env.repos.User,
		Profiles:  env.repos.UserProfile,
		Diets:     env.repos.Diet,
		Inventory: env.repos.Inventory,
		Sessions:  env.repos.ChatSession,
	})

	cases := []struct {
		name   string
		ctx    context.Context
		in     AssistantInput
		status int
	}{
		{"anonymous", context.Background(), AssistantInput{Message: "oi"}, http.StatusUnauthorized},
		{"empty message", ctx, AssistantInput{Message: " "}, http.StatusBadRequest},
		{"bad session id", ctx, AssistantInput{Message: "oi", ChatSessionID: "nope"}, http.StatusBadRequest},
		{"foreign session", ctx, AssistantInput{Message: "oi", ChatSessionID: uuid.NewString()}, http.StatusNotFound},
		{"model down", ctx, AssistantInput{Message: "estou com fome"}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Ask(tc.ctx, tc.in)
			if status, _ := apierr.StatusOf(err); status != tc.status {
				t.Fatalf("status=%d want %d (err=%v)", status, tc.status, err)
			}
		})
	}
}

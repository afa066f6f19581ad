package services

import (
	"context"
	"math"
	"testing"

	"github.com/yungbote/shapemate-backend/internal/data/repos/testutil"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

func TestEstimateUsage(t *testing.T) {
	cases := []struct {
		name            string
		usage           openai.Usage
		inChars, outChr int
		wantIn, wantOut int
	}{
		{"provider counts win", openai.Usage{PromptTokens: 10, CompletionTokens: 5}, 900, 900, 10, 5},
		{"estimated from length", openai.Usage{}, 9, 10, 3, 4},
		{"nothing", openai.Usage{}, 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := estimateUsage(tc.usage, tc.inChars, tc.outChr)
			if got.InputTokens != tc.wantIn || got.OutputTokens != tc.wantOut {
				t.Fatalf("got %d/%d want %d/%d", got.InputTokens, got.OutputTokens, tc.wantIn, tc.wantOut)
			}
		})
	}

	u := estimateUsage(openai.Usage{PromptTokens: 1000, CompletionTokens: 1000}, 0, 0)
	if math.Abs(u.CostUSD-0.010) > 1e-9 {
		t.Fatalf("cost = %v", u.CostUSD)
	}
}

func TestMeteredLLMChargesOnlyBoundSessions(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "ana@example.com")
	sess := testutil.SeedChatSession(t, context.Background(), env.db, u.ID)
	llm := NewMeteredLLM(testutil.Logger(t), &stubLLM{reply: "ok", usage: openai.Usage{PromptTokens: 7, CompletionTokens: 3}}, env.repos.ChatSession)

	if _, err := llm.Chat(context.Background(), []openai.Message{{Role: openai.RoleUser, Content: "oi"}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	ctx, meter := withUsageMeter(context.Background(), sess.ID)
	if _, err := llm.Chat(ctx, []openai.Message{{Role: openai.RoleUser, Content: "oi"}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, err := llm.GenerateText(ctx, "system", "user"); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}

	got, err := env.repos.ChatSession.GetByID(dbctx.Context{Ctx: ctx}, u.ID, sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalRequests != 2 || got.TotalInputTokens != meter.Total().InputTokens {
		t.Fatalf("session=%+v meter=%+v", got, meter.Total())
	}
	// GenerateText has no usage block, so it is estimated: "systemuser" is 10 chars.
	if meter.Total().InputTokens != 7+4 {
		t.Fatalf("input tokens = %d", meter.Total().InputTokens)
	}
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos"
	"github.com/yungbote/shapemate-backend/internal/data/repos/chat"
	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

type usageMeterKey struct{}

// usageMeter collects model usage for one request bound to a chat session.
type usageMeter struct {
	sessionID uuid.UUID

	mu    sync.Mutex
	total chat.Usage
}

func withUsageMeter(ctx context.Context, sessionID uuid.UUID) (context.Context, *usageMeter) {
	m := &usageMeter{sessionID: sessionID}
	return context.WithValue(ctx, usageMeterKey{}, m), m
}

func usageMeterFrom(ctx context.Context) *usageMeter {
	m, _ := ctx.Value(usageMeterKey{}).(*usageMeter)
	return m
}

func (m *usageMeter) add(u chat.Usage) {
	m.mu.Lock()
	m.total.InputTokens += u.InputTokens
	m.total.OutputTokens += u.OutputTokens
	m.total.CostUSD += u.CostUSD
	m.mu.Unlock()
}

func (m *usageMeter) Total() chat.Usage {
	if m == nil {
		return chat.Usage{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// MeteredLLM charges every completion to the chat session found in the
// request context. Calls without a session pass through untouched.
type MeteredLLM struct {
	next     openai.Client
	sessions repos.ChatSessionRepo
	log      *logger.Logger
	now      func() time.Time
}

func NewMeteredLLM(log *logger.Logger, next openai.Client, sessions repos.ChatSessionRepo) *MeteredLLM {
	return &MeteredLLM{
		next:     next,
		sessions: sessions,
		log:      log.With("component", "MeteredLLM"),
		now:      time.Now,
	}
}

func (c *MeteredLLM) Chat(ctx context.Context, messages []openai.Message) (openai.Completion, error) {
	out, err := c.next.Chat(ctx, messages)
	if err != nil {
		return out, err
	}
	in := 0
	for _, m := range messages {
		in += len(m.Content)
	}
	c.charge(ctx, out.Usage, in, len(out.Text))
	return out, nil
}

func (c *MeteredLLM) GenerateText(ctx context.Context, system string, user string) (string, error) {
	text, err := c.next.GenerateText(ctx, system, user)
	if err != nil {
		return text, err
	}
	c.charge(ctx, openai.Usage{}, len(system)+len(user), len(text))
	return text, nil
}

func (c *MeteredLLM) charge(ctx context.Context, u openai.Usage, inChars, outChars int) {
	m := usageMeterFrom(ctx)
	if m == nil || m.sessionID == uuid.Nil {
		return
	}
	usage := estimateUsage(u, inChars, outChars)
	m.add(usage)
	if err := c.sessions.AddUsage(dbctx.Context{Ctx: ctx}, m.sessionID, usage, c.now().UTC()); err != nil {
		c.log.Warn("Failed to record chat usage", "session_id", m.sessionID.String(), "error", err)
	}
}

// estimateUsage prefers the provider's token counts and falls back to
// roughly three characters per token.
func estimateUsage(u openai.Usage, inChars, outChars int) chat.Usage {
	in, out := u.PromptTokens, u.CompletionTokens
	if in == 0 && out == 0 {
		in = charsToTokens(inChars)
		out = charsToTokens(outChars)
	}
	inRate, outRate := observability.LLMCostRates()
	return chat.Usage{
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      float64(in)/1000*inRate + float64(out)/1000*outRate,
	}
}

func charsToTokens(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 2) / 3
}

package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/shapemate-backend/internal/assistant"
	"github.com/yungbote/shapemate-backend/internal/consultation"
	"github.com/yungbote/shapemate-backend/internal/data/repos"
	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
	"github.com/yungbote/shapemate-backend/internal/nutrition/selector"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	User          services.UserService
	Consultation  services.ConsultationService
	ChatSession   services.ChatSessionService
	Diet          services.DietService
	Food          services.FoodService
	Assistant     services.AssistantService
	SessionStore  consultation.SessionStore
	memorySession *consultation.MemoryStore
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	heuristic, err := consultation.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		return Services{}, err
	}
	knowledge, err := assistant.LoadKnowledge(cfg.AssistantFile)
	if err != nil {
		return Services{}, err
	}
	categorizer := menu.DefaultCategorizer()
	if cfg.CategoriesFile != "" {
		if categorizer, err = menu.LoadCategoriesFile(cfg.CategoriesFile); err != nil {
			return Services{}, err
		}
	}

	// Every model call made on behalf of a consultation goes through the
	// meter so usage lands on the active chat session.
	llm := services.NewMeteredLLM(log, c.OpenAI, r.ChatSession)

	engine, err := consultation.NewEngine(log, consultation.Deps{
		LLM:          llm,
		Selector:     selector.New(log, llm),
		Nutrients:    c.Nutrients,
		Calculator:   calc.New(cfg.Adjustment),
		Assembler:    menu.NewAssembler(categorizer),
		Heuristic:    heuristic,
		Renderer:     c.PDF,
		Saver:        services.NewConsultationDietSaver(db, r.Diet, cfg.SaveTimeout),
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init consultation engine: %w", err)
	}

	daily, err := assistant.New(log, llm, c.Nutrients, knowledge)
	if err != nil {
		return Services{}, fmt.Errorf("init daily assistant: %w", err)
	}

	out := Services{}
	if c.Redis != nil {
		out.SessionStore = consultation.NewRedisStore(c.Redis, cfg.RedisPrefix+"consultation:", cfg.SessionTTL)
	} else {
		mem := consultation.NewMemoryStore(log, cfg.SessionTTL)
		out.SessionStore = mem
		out.memorySession = mem
	}

	out.Auth = services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	out.User = services.NewUserService(log, r.User, r.UserProfile)
	out.Consultation = services.NewConsultationService(log, services.ConsultationDeps{
		Engine:       engine,
		Store:        out.SessionStore,
		Locks:        consultation.NewKeyedMutex(),
		Users:        r.User,
		Profiles:     r.UserProfile,
		ChatSessions: r.ChatSession,
		ChatMessages: r.ChatMessage,
		Model:        c.LLMModel,
	})
	out.ChatSession = services.NewChatSessionService(log, r.ChatSession, r.ChatMessage, c.LLMModel)
	out.Diet = services.NewDietService(log, r.Diet, r.ShoppingList, r.Inventory, c.PDF)
	out.Food = services.NewFoodService(log, c.Nutrients)
	out.Assistant = services.NewAssistantService(log, services.AssistantDeps{
		Assistant: daily,
		Users:     r.User,
		Profiles:  r.UserProfile,
		Diets:     r.Diet,
		Inventory: r.Inventory,
		Sessions:  r.ChatSession,
	})

	return out, nil
}

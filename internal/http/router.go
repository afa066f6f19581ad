package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/shapemate-backend/internal/http/handlers"
	httpMW "github.com/yungbote/shapemate-backend/internal/http/middleware"
	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	ConsultationHandler *httpH.ConsultationHandler
	ChatSessionHandler  *httpH.ChatSessionHandler
	DietHandler         *httpH.DietHandler
	FoodHandler         *httpH.FoodHandler
	AssistantHandler    *httpH.AssistantHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	api.Use(httpMW.RequestTimeout(cfg.RequestTimeout))
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/me/profile", cfg.UserHandler.GetProfile)
			protected.PUT("/me/profile", cfg.UserHandler.UpdateProfile)
		}

		// Consultations
		if cfg.ConsultationHandler != nil {
			protected.POST("/consultations", cfg.ConsultationHandler.Start)
			protected.GET("/consultations/:id", cfg.ConsultationHandler.Get)
			protected.POST("/consultations/:id/messages", cfg.ConsultationHandler.SendMessage)
			protected.POST("/consultations/:id/reset", cfg.ConsultationHandler.Reset)
			protected.POST("/consultations/:id/finalize", cfg.ConsultationHandler.Finalize)
		}

		// Chat sessions
		if cfg.ChatSessionHandler != nil {
			protected.POST("/chat-sessions", cfg.ChatSessionHandler.Create)
			protected.POST("/chat-sessions/:id/end", cfg.ChatSessionHandler.End)
			protected.GET("/chat-sessions/:id", cfg.ChatSessionHandler.Stats)
		}

		// Diets, shopping lists, inventory
		if cfg.DietHandler != nil {
			protected.GET("/diets", cfg.DietHandler.List)
			protected.GET("/diets/active", cfg.DietHandler.GetActive)
			protected.GET("/diets/:id", cfg.DietHandler.Get)
			protected.POST("/diets/:id/activate", cfg.DietHandler.Activate)
			protected.GET("/diets/:id/pdf", cfg.DietHandler.PDF)
			protected.POST("/diets/:id/shopping-list", cfg.DietHandler.CreateShoppingList)

			protected.GET("/shopping-lists", cfg.DietHandler.ListShoppingLists)
			protected.POST("/shopping-lists/:id/complete", cfg.DietHandler.CompleteShoppingList)

			protected.GET("/inventory", cfg.DietHandler.ListInventory)
			protected.PUT("/inventory", cfg.DietHandler.UpsertInventory)
			protected.GET("/inventory/expiring", cfg.DietHandler.ExpiringInventory)
		}

		// Foods
		if cfg.FoodHandler != nil {
			protected.GET("/foods/search", cfg.FoodHandler.Search)
			protected.POST("/foods/meal", cfg.FoodHandler.MealNutrition)
			protected.GET("/foods/alternatives", cfg.FoodHandler.Alternatives)
		}

		// Daily assistant
		if cfg.AssistantHandler != nil {
			protected.POST("/assistant/messages", cfg.AssistantHandler.Ask)
		}
	}

	return r
}

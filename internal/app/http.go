package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	apphttp "github.com/yungbote/shapemate-backend/internal/http"
	httpH "github.com/yungbote/shapemate-backend/internal/http/handlers"
	httpMW "github.com/yungbote/shapemate-backend/internal/http/middleware"
	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, db *gorm.DB, rdb *goredis.Client, svc Services, metrics *observability.Metrics) *apphttp.Server {
	log.Info("Wiring handlers...")
	return apphttp.NewServer(log, apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,

		AuthHandler:    httpH.NewAuthHandler(svc.Auth),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, svc.Auth),
		UserHandler:    httpH.NewUserHandler(svc.User),

		ConsultationHandler: httpH.NewConsultationHandler(svc.Consultation),
		ChatSessionHandler:  httpH.NewChatSessionHandler(svc.ChatSession),
		DietHandler:         httpH.NewDietHandler(svc.Diet),
		FoodHandler:         httpH.NewFoodHandler(svc.Food),
		AssistantHandler:    httpH.NewAssistantHandler(svc.Assistant),

		HealthHandler: httpH.NewHealthHandler(healthChecks(db, rdb)),
	})
}

func healthChecks(db *gorm.DB, rdb *goredis.Client) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{
		"database": httpH.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if rdb != nil {
		checks["redis"] = httpH.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	return checks
}

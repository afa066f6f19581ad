package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/shapemate-backend/internal/consultation"
	"github.com/yungbote/shapemate-backend/internal/data/db"
	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/platform/envutil"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type Config struct {
	Environment string
	Version     string
	ServiceName string

	HTTPAddr        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	CORSOrigins     []string
	MetricsAddr     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DB db.Config

	RedisAddr   string
	RedisPrefix string
	// NutrientCacheRedis adds Redis as a second cache tier for nutrient
	// records. A zero NutrientCacheTTL keeps them forever.
	NutrientCacheRedis bool
	NutrientCacheTTL   time.Duration

	SessionTTL      time.Duration
	JanitorInterval time.Duration
	HistoryLimit    int
	KeywordsFile    string
	CategoriesFile  string
	AssistantFile   string
	SaveTimeout     time.Duration

	Adjustment calc.PercentAdjustment
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "shapemate-backend"),

		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080"),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		RequestTimeout:  envutil.Seconds("REQUEST_TIMEOUT_SECONDS", 120*time.Second),
		CORSOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsAddr:     envutil.String("METRICS_ADDR", ":9090"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour),

		DB: db.ConfigFromEnv(),

		RedisAddr:          strings.TrimSpace(envutil.String("REDIS_ADDR", "")),
		RedisPrefix:        envutil.String("REDIS_KEY_PREFIX", "shapemate:"),
		NutrientCacheRedis: envutil.Bool("NUTRIENT_CACHE_REDIS", false),
		NutrientCacheTTL:   envutil.Seconds("NUTRIENT_CACHE_TTL_SECONDS", 0),

		SessionTTL:      envutil.Seconds("CONSULTATION_TTL_SECONDS", consultation.DefaultSessionTTL),
		JanitorInterval: envutil.Seconds("CONSULTATION_JANITOR_SECONDS", 5*time.Minute),
		HistoryLimit:    envutil.Int("CONSULTATION_HISTORY_LIMIT", 20),
		KeywordsFile:    envutil.String("CONSULTATION_KEYWORDS_FILE", ""),
		CategoriesFile:  envutil.String("MENU_CATEGORIES_FILE", ""),
		AssistantFile:   envutil.String("ASSISTANT_KNOWLEDGE_FILE", ""),
		SaveTimeout:     envutil.Seconds("DIET_SAVE_TIMEOUT_SECONDS", 10*time.Second),

		Adjustment: calc.PercentAdjustment{
			Deficit: envutil.Float("CALORIE_DEFICIT_PCT", calc.DefaultDeficit*100) / 100,
			Surplus: envutil.Float("CALORIE_SURPLUS_PCT", calc.DefaultSurplus*100) / 100,
		},
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg
}

func (c Config) validate() error {
	if c.Adjustment.Deficit < 0 || c.Adjustment.Deficit >= 1 {
		return fmt.Errorf("CALORIE_DEFICIT_PCT must be in [0,100), got %.1f", c.Adjustment.Deficit*100)
	}
	if c.Adjustment.Surplus < 0 || c.Adjustment.Surplus >= 1 {
		return fmt.Errorf("CALORIE_SURPLUS_PCT must be in [0,100), got %.1f", c.Adjustment.Surplus*100)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}

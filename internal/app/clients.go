package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/platform/gcp"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
	"github.com/yungbote/shapemate-backend/internal/render/pdf"
)

type Clients struct {
	Redis     *goredis.Client
	OpenAI    openai.Client
	LLMModel  string
	Nutrients lookup.Client
	Bucket    gcp.BucketService
	PDF       *pdf.Renderer
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	var out Clients

	if cfg.RedisAddr != "" {
		rdb, err := newRedis(cfg.RedisAddr)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		log.Info("Redis connected", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set; consultations and nutrient cache stay in process")
	}

	oaCfg := openai.ConfigFromEnv()
	oa, err := openai.NewClient(log, oaCfg)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init openai: %w", err)
	}
	out.OpenAI = oa
	out.LLMModel = oaCfg.Model

	var lookupOpts []lookup.Option
	if out.Redis != nil && cfg.NutrientCacheRedis {
		lookupOpts = append(lookupOpts, lookup.WithRemoteCache(
			lookup.NewRedisCache(out.Redis, cfg.RedisPrefix+"nutrient:", cfg.NutrientCacheTTL),
		))
	}
	out.Nutrients = lookup.NewClient(log, lookup.ConfigFromEnv(), lookupOpts...)

	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("object storage config: %w", err)
	}
	if storageCfg.Remote() {
		bucket, err := gcp.NewBucketServiceWithConfig(log, storageCfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init bucket: %w", err)
		}
		out.Bucket = bucket
	}

	renderer, err := pdf.NewRenderer(log, pdf.ConfigFromEnv(), out.Bucket)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.PDF = renderer

	return out, nil
}

func newRedis(addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *Clients) Close() {
	if c.Bucket != nil {
		_ = c.Bucket.Close()
		c.Bucket = nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
		c.Redis = nil
	}
}

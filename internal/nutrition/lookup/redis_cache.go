package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache stores records as JSON under prefix+key. A zero ttl keeps
// entries until evicted by Redis itself.
func NewRedisCache(rdb *goredis.Client, prefix string, ttl time.Duration) RemoteCache {
	if prefix == "" {
		prefix = "nutrient:"
	}
	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *redisCache) Get(ctx context.Context, key string) (*NutrientRecord, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec NutrientRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, rec *NutrientRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.prefix+key, raw, r.ttl).Err()
}

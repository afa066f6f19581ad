package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps consultation states as JSON with a sliding TTL so they
// survive restarts and are shared between replicas.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *goredis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "consultation:"
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (State, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("redis get consultation: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode consultation: %w", err)
	}
	return st, true, nil
}

func (r *RedisStore) Put(ctx context.Context, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode consultation: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+st.ConsultationID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set consultation: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete consultation: %w", err)
	}
	return nil
}

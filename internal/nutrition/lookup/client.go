package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/envutil"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// Client looks up food composition by name. Lookups never return errors:
// any upstream failure is logged and reported as not found.
type Client interface {
	SearchFood(ctx context.Context, name string) (*NutrientRecord, bool)
	GetMultipleFoods(ctx context.Context, names []string) map[string]*NutrientRecord
	CalculateMealNutrition(ctx context.Context, items []MealItem) MealNutrition
	SuggestAlternatives(ctx context.Context, name string) []string
}

// RemoteCache is an optional shared tier behind the in-process cache.
type RemoteCache interface {
	Get(ctx context.Context, key string) (*NutrientRecord, bool, error)
	Set(ctx context.Context, key string, rec *NutrientRecord) error
}

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	PageSize    int
	DataTypes   []string
	Concurrency int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:     envutil.String("USDA_API_BASE_URL", "https://api.nal.usda.gov/fdc/v1"),
		APIKey:      envutil.String("USDA_API_KEY", "DEMO_KEY"),
		Timeout:     envutil.Seconds("USDA_TIMEOUT_SECONDS", 10*time.Second),
		PageSize:    envutil.Int("USDA_PAGE_SIZE", 5),
		DataTypes:   envutil.List("USDA_DATA_TYPES", []string{"Foundation", "SR Legacy"}),
		Concurrency: envutil.Int("USDA_CONCURRENCY", 4),
	}
}

type Option func(*client)

func WithRemoteCache(rc RemoteCache) Option {
	return func(c *client) { c.remote = rc }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *client) {
		if h != nil {
			c.http = h
		}
	}
}

type client struct {
	log    *logger.Logger
	cfg    Config
	http   *http.Client
	remote RemoteCache

	mu    sync.RWMutex
	cache map[string]*NutrientRecord
	group singleflight.Group
}

func NewClient(log *logger.Logger, cfg Config, opts ...Option) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.nal.usda.gov/fdc/v1"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "DEMO_KEY"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &client{
		log:   log.With("service", "NutrientLookup"),
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: map[string]*NutrientRecord{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) SearchFood(ctx context.Context, name string) (*NutrientRecord, bool) {
	key := CacheKey(name)
	if key == "" {
		return nil, false
	}
	if rec, ok := c.cached(key); ok {
		observability.Current().ObserveNutrientLookup("cache_hit", 0)
		return rec.clone(), true
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		if rec, ok := c.cached(key); ok {
			return rec, nil
		}
		if rec := c.fromRemote(ctx, key); rec != nil {
			c.store(key, rec)
			return rec, nil
		}
		rec := c.fetch(ctx, strings.TrimSpace(name))
		if rec == nil {
			return nil, nil
		}
		c.store(key, rec)
		c.toRemote(ctx, key, rec)
		return rec, nil
	})
	rec, _ := v.(*NutrientRecord)
	if rec == nil {
		return nil, false
	}
	return rec.clone(), true
}

func (c *client) cached(key string) (*NutrientRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.cache[key]
	return rec, ok
}

func (c *client) store(key string, rec *NutrientRecord) {
	c.mu.Lock()
	c.cache[key] = rec
	c.mu.Unlock()
}

func (c *client) fromRemote(ctx context.Context, key string) *NutrientRecord {
	if c.remote == nil {
		return nil
	}
	rec, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.log.Warn("Remote nutrient cache read failed", "food", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	observability.Current().ObserveNutrientLookup("cache_hit", 0)
	return rec
}

func (c *client) toRemote(ctx context.Context, key string, rec *NutrientRecord) {
	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, key, rec); err != nil {
		c.log.Warn("Remote nutrient cache write failed", "food", key, "error", err)
	}
}

type fdcSearchResponse struct {
	Foods []struct {
		FDCID         int    `json:"fdcId"`
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			UnitName     string  `json:"unitName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

func (c *client) fetch(ctx context.Context, name string) *NutrientRecord {
	start := time.Now()
	rec, err := c.search(ctx, name)
	switch {
	case err != nil:
		observability.Current().ObserveNutrientLookup("error", time.Since(start))
		c.log.Warn("Nutrient lookup failed", "food", name, "error", err)
		return nil
	case rec == nil:
		observability.Current().ObserveNutrientLookup("miss", time.Since(start))
		c.log.Info("Food not found in nutrient database", "food", name)
		return nil
	}
	observability.Current().ObserveNutrientLookup("hit", time.Since(start))
	if rec.Partial() {
		c.log.Debug("Nutrient record is partial", "food", name, "missing", rec.MissingFields)
	}
	return rec
}

func (c *client) search(ctx context.Context, name string) (*NutrientRecord, error) {
	q := url.Values{}
	q.Set("query", name)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	if len(c.cfg.DataTypes) > 0 {
		q.Set("dataType", strings.Join(c.cfg.DataTypes, ","))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/foods/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usda http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed fdcSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode usda response: %w", err)
	}
	if len(parsed.Foods) == 0 {
		return nil, nil
	}

	food := parsed.Foods[0]
	rec := &NutrientRecord{
		Name:        name,
		FDCID:       food.FDCID,
		Source:      SourceUSDA,
		Description: food.Description,
	}
	seen := map[string]bool{}
	for _, n := range food.FoodNutrients {
		field := classifyNutrient(n.NutrientName, n.UnitName)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		rec.set(field, n.Value)
	}
	for _, f := range trackedFields {
		if !seen[f] {
			rec.MissingFields = append(rec.MissingFields, f)
		}
	}
	return rec, nil
}

// GetMultipleFoods looks up names concurrently and returns only the
// successes, keyed by the trimmed input name.
func (c *client) GetMultipleFoods(ctx context.Context, names []string) map[string]*NutrientRecord {
	out := make(map[string]*NutrientRecord, len(names))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || seen[CacheKey(name)] {
			continue
		}
		seen[CacheKey(name)] = true
		g.Go(func() error {
			rec, ok := c.SearchFood(ctx, name)
			if !ok {
				return nil
			}
			mu.Lock()
			out[name] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

var alternativePrefixes = []string{"grilled", "roasted", "baked", "steamed", "fresh"}

// SuggestAlternatives tries common preparations of name and returns up to
// three that resolve in the nutrient database.
func (c *client) SuggestAlternatives(ctx context.Context, name string) []string {
	base := strings.TrimSpace(name)
	if base == "" {
		return nil
	}
	out := make([]string, 0, 3)
	for _, prefix := range alternativePrefixes {
		if len(out) == 3 {
			break
		}
		variation := prefix + " " + base
		if CacheKey(variation) == CacheKey(base) {
			continue
		}
		if _, ok := c.SearchFood(ctx, variation); ok {
			out = append(out, variation)
		}
	}
	return out
}

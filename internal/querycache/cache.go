package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

// Scope is everything besides the question text that changes the answer.
type Scope struct {
	TenantID    string
	DocumentIDs []string
	TopK        int
	MinScore    float64
}

func (s Scope) String() string {
	ids := append([]string(nil), s.DocumentIDs...)
	sort.Strings(ids)
	return strings.Join([]string{
		"tenant=" + s.TenantID,
		"docs=" + strings.Join(ids, ","),
		"top_k=" + strconv.Itoa(s.TopK),
		"min_score=" + strconv.FormatFloat(s.MinScore, 'f', -1, 64),
	}, ";")
}

// Normalize lowercases the query and collapses whitespace so that
// differently typed forms of one question share a key.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func Key(query string, scope Scope) string {
	sum := sha256.Sum256([]byte(Normalize(query) + "\x00" + scope.String()))
	return hex.EncodeToString(sum[:])
}

// Store backs the cache. Hit must atomically bump the hit counter of a live
// entry and evict an expired one, reporting it as absent.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time) (*model.QueryCacheEntry, bool, error)
	Put(ctx context.Context, entry *model.QueryCacheEntry) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type Cache struct {
	store Store
	now   func() time.Time
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, query string, scope Scope) (*model.QueryCacheEntry, bool, error) {
	key := Key(query, scope)
	entry, ok, err := c.store.Hit(ctx, key, c.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if ok {
		logutil.GetLogger(ctx).Debug("query cache hit", zap.String("key", key), zap.Int("hit_count", entry.HitCount))
	}
	return entry, ok, nil
}

type putOptions struct {
	vector []float32
}

type PutOption func(*putOptions)

// WithQueryVector stores the query embedding alongside the response.
func WithQueryVector(vec []float32) PutOption {
	return func(o *putOptions) {
		o.vector = vec
	}
}

// Put replaces any entry under the same key. Every write starts a new
// entry with a hit count of 1.
func (c *Cache) Put(ctx context.Context, query string, scope Scope, response interface{}, ttlSeconds int, opts ...PutOption) (*model.QueryCacheEntry, error) {
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", appErr.ErrInvalid)
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("%w: encode response: %v", appErr.ErrInvalid, err)
	}
	var o putOptions
	for _, opt := range opts {
		opt(&o)
	}
	now := c.now().UTC()
	entry := &model.QueryCacheEntry{
		Key:            Key(query, scope),
		QueryText:      query,
		Scope:          scope.String(),
		Response:       payload,
		QueryVector:    o.vector,
		HitCount:       1,
		TTLSeconds:     ttlSeconds,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      model.ExpiryFor(now, ttlSeconds),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("cache put: %w", err)
	}
	return entry, nil
}

func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := c.store.PurgeExpired(ctx, c.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return n, nil
}

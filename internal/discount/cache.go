package discount

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
)

const cacheScope = "discount_code"

// codeCache is the slice of the redis client the cached repository needs.
type codeCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(scope, id string) string
}

type cachedRepository struct {
	inner Repository
	cache codeCache
	ttl   time.Duration
}

// NewCachedRepository wraps code lookups with a short-lived redis cache.
// Usage counters on a cached policy age at most ttl, so exhaustion gates can
// lag by that window; keep the TTL short. Transactional reads obtained via
// WithTx bypass the cache entirely.
func NewCachedRepository(inner Repository, cache codeCache, ttl time.Duration) Repository {
	if cache == nil || ttl <= 0 {
		return inner
	}
	return &cachedRepository{inner: inner, cache: cache, ttl: ttl}
}

func (r *cachedRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return r.inner.WithTx(tx)
}

func (r *cachedRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	key := r.cache.CacheKey(cacheScope, normalized)

	if raw, err := r.cache.Get(ctx, key); err == nil && raw != "" {
		var policy models.DiscountCode
		if err := json.Unmarshal([]byte(raw), &policy); err == nil {
			return &policy, nil
		}
		// Entries that no longer unmarshal are dropped rather than served.
		_ = r.cache.Del(ctx, key)
	}

	policy, err := r.inner.GetByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(policy); err == nil {
		_ = r.cache.Set(ctx, key, string(encoded), r.ttl)
	}
	return policy, nil
}

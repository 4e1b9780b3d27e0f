// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/usecase"
)

// DefaultNamespace prefixes every key written by CachingRecordRepository.
const DefaultNamespace = "after_market"

// CachingRecordRepository decorates a RecordRepository with Redis caching.
// Reads are cached per query; any write that stores rows drops the whole namespace.
type CachingRecordRepository struct {
	inner     usecase.RecordRepository
	rdb       *redis.Client
	ttl       time.Duration
	ttlFunc   func() time.Duration
	namespace string
}

// CachingRecordRepositoryがRecordRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.RecordRepository = (*CachingRecordRepository)(nil)

// NewCachingRecordRepository decorates a RecordRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses DefaultNamespace.
func NewCachingRecordRepository(rdb *redis.Client, ttl time.Duration, inner usecase.RecordRepository, namespace string) *CachingRecordRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingRecordRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// WithTTLFunc makes the TTL computed at every cache write (e.g. TimeUntilNextClose).
// A non-positive result falls back to the fixed TTL.
func (c *CachingRecordRepository) WithTTLFunc(f func() time.Duration) *CachingRecordRepository {
	c.ttlFunc = f
	return c
}

func (c *CachingRecordRepository) expiry() time.Duration {
	if c.ttlFunc != nil {
		if d := c.ttlFunc(); d > 0 {
			return d
		}
	}
	return c.ttl
}

// Insert stores one record and invalidates the cache.
func (c *CachingRecordRepository) Insert(ctx context.Context, r entity.Record) error {
	if err := c.inner.Insert(ctx, r); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// InsertBatch stores records and invalidates the cache when at least one row was new.
func (c *CachingRecordRepository) InsertBatch(ctx context.Context, rs []entity.Record) (int64, error) {
	n, err := c.inner.InsertBatch(ctx, rs)
	if err != nil {
		return n, err
	}
	if n > 0 {
		c.invalidate(ctx)
	}
	return n, nil
}

// Find retrieves records, checking cache first then falling back to the database.
func (c *CachingRecordRepository) Find(ctx context.Context, f entity.Filter) ([]entity.Record, error) {
	return cached(ctx, c, c.findKey(f), func() ([]entity.Record, error) {
		return c.inner.Find(ctx, f)
	})
}

// Latest retrieves the most recent snapshot through the cache.
func (c *CachingRecordRepository) Latest(ctx context.Context) ([]entity.Record, error) {
	return cached(ctx, c, c.namespace+":latest", func() ([]entity.Record, error) {
		return c.inner.Latest(ctx)
	})
}

// Symbols retrieves the distinct symbols through the cache.
func (c *CachingRecordRepository) Symbols(ctx context.Context) ([]string, error) {
	return cached(ctx, c, c.namespace+":symbols", func() ([]string, error) {
		return c.inner.Symbols(ctx)
	})
}

// cached returns the value stored under key or loads and stores it.
func cached[T any](ctx context.Context, c *CachingRecordRepository, key string, load func() (T, error)) (T, error) {
	// Redis未設定の場合はキャッシュをバイパス
	if c.rdb == nil {
		return load()
	}

	// 1) キャッシュを確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 破損したキャッシュを削除
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) DBにフォールバック
	out, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	// 3) キャッシュに保存（ベストエフォート）
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiry()).Err()
	}
	return out, nil
}

// findKey generates a cache key for a specific Find query.
func (c *CachingRecordRepository) findKey(f entity.Filter) string {
	return fmt.Sprintf("%s:find:%s:%s:%s:%s:%s:%d",
		c.namespace,
		safe(f.Symbol),
		unixOrDash(f.From),
		unixOrDash(f.To),
		floatOrDash(f.Min),
		floatOrDash(f.Max),
		f.Limit,
	)
}

func (c *CachingRecordRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.namespace+":*") // ベストエフォート: キャッシュ削除の失敗で書き込みを失敗させない
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingRecordRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func unixOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}

package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"aftermarket/internal/feature/aftermarket/adapters"
	"aftermarket/internal/feature/aftermarket/usecase"
	"aftermarket/internal/platform/cache"
)

// NewRecordRepository creates a RecordRepository implementation.
// If Redis is available, reads are cached for ttl(), evaluated at every cache write
// (nil means the cache default); otherwise the database is used directly.
func NewRecordRepository(rdb *redis.Client, db *gorm.DB, ttl func() time.Duration) usecase.RecordRepository {
	repo := adapters.NewRecordRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingRecordRepository(rdb, 0, repo, cache.DefaultNamespace).WithTTLFunc(ttl)
}

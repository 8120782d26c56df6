package cache

import (
	"context"
	"time"

	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/dentorhub/dentorhub-api/pkg/metrics"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const serviceCatalogCacheName = "service_catalog"

// ServiceTitleFetcher loads a service title from the catalog
type ServiceTitleFetcher func(ctx context.Context, serviceID uuid.UUID) (string, error)

// ServiceCatalogCache caches service titles for email composition. Titles
// change rarely, unlike reservation/session/profile data which is always
// read fresh from the database.
type ServiceCatalogCache struct {
	cache   *gocache.Cache
	fetcher ServiceTitleFetcher
	ttl     time.Duration
}

// NewServiceCatalogCache creates a new service catalog cache
func NewServiceCatalogCache(fetcher ServiceTitleFetcher, ttlSeconds int) *ServiceCatalogCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &ServiceCatalogCache{
		cache:   gocache.New(ttl, 10*time.Minute),
		fetcher: fetcher,
		ttl:     ttl,
	}
}

// GetTitle retrieves a service title from cache or fetches it on miss
func (sc *ServiceCatalogCache) GetTitle(ctx context.Context, serviceID uuid.UUID) (string, error) {
	key := serviceID.String()

	if data, found := sc.cache.Get(key); found {
		metrics.CacheHits.WithLabelValues(serviceCatalogCacheName).Inc()
		if title, ok := data.(string); ok {
			return title, nil
		}
		sc.cache.Delete(key)
	}

	metrics.CacheMisses.WithLabelValues(serviceCatalogCacheName).Inc()

	title, err := sc.fetcher(ctx, serviceID)
	if err != nil {
		return "", err
	}

	sc.cache.Set(key, title, sc.ttl)
	logger.Debug("Service title cached",
		zap.String("service_id", key),
		zap.String("title", title))

	return title, nil
}

// Invalidate removes a single service from the cache
func (sc *ServiceCatalogCache) Invalidate(serviceID uuid.UUID) {
	sc.cache.Delete(serviceID.String())
}

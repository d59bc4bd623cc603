package routing

import (
	"context"
	"fmt"
	"log"
	"time"

	"upiroute/internal/repositories"
	"upiroute/internal/repositories/cache"
)

const affinityCacheTTL = 2 * time.Minute

// cachedAffinity serves merchant affinity scores through the cache service.
// Affinity is read-mostly and recomputed out of band, so a short TTL is
// plenty; a cold cache only costs one store read.
type cachedAffinity struct {
	repo  repositories.AffinityRepository
	cache *cache.CacheService
}

func NewCachedAffinity(repo repositories.AffinityRepository, cacheService *cache.CacheService) AffinityProvider {
	if repo == nil {
		panic("affinity repository is required")
	}
	return &cachedAffinity{repo: repo, cache: cacheService}
}

func (a *cachedAffinity) Scores(ctx context.Context, merchantID uint) (map[uint]float64, error) {
	key := fmt.Sprintf("affinity:merchant:%d", merchantID)

	if a.cache != nil {
		var scores map[uint]float64
		if found, err := a.cache.Get(ctx, key, &scores); err == nil && found {
			return scores, nil
		}
	}

	scores, err := a.repo.GetScores(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.SetWithTTL(ctx, key, scores, affinityCacheTTL); err != nil {
			log.Printf("failed to cache affinity for merchant %d: %v", merchantID, err)
		}
	}
	return scores, nil
}

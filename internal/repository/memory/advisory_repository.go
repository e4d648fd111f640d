package memory

import (
	"fmt"
	"time"

	"plantguard-be/pkg/advisory"

	"github.com/patrickmn/go-cache"
)

// AdvisoryRepository caches generated advisories per diagnosis. A zero TTL
// disables caching.
type AdvisoryRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewAdvisoryRepository(ttl time.Duration) *AdvisoryRepository {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &AdvisoryRepository{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// AdvisoryKey identifies a diagnosis at the precision the prompt renders it.
func AdvisoryKey(disease string, confidence, severity float64) string {
	return fmt.Sprintf("%s|%.1f|%.1f", disease, confidence*100, severity)
}

func (r *AdvisoryRepository) Save(key string, adv advisory.Advisory) {
	if r.ttl <= 0 || adv.Degraded {
		return
	}
	r.cache.Set(key, adv, cache.DefaultExpiration)
}

func (r *AdvisoryRepository) Get(key string) (advisory.Advisory, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(advisory.Advisory), true
	}
	return advisory.Advisory{}, false
}

func (r *AdvisoryRepository) Len() int {
	return r.cache.ItemCount()
}

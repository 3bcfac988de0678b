package cache

import (
	"time"

	"incidents-dashboard/pkg/metrics"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultTTL : durée de vie des lectures d'onglet et des listes déroulantes.
const DefaultTTL = 120 * time.Second

// Cache associe une clé à une valeur sérialisée, avec expiration.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string, ttl time.Duration)
	Remove(key string)
}

// TTL est le cache du processus. L'expiration est fixe : une lecture ne la prolonge pas.
type TTL struct {
	c *ttlcache.Cache[string, string]
}

func NewTTL() *TTL {
	return &TTL{
		c: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](DefaultTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

func (t *TTL) Get(key string) (string, bool) {
	item := t.c.Get(key)
	if item == nil || item.IsExpired() {
		metrics.RecordCacheLookup(false)
		return "", false
	}
	metrics.RecordCacheLookup(true)
	return item.Value(), true
}

func (t *TTL) Put(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	t.c.Set(key, value, ttl)
}

func (t *TTL) Remove(key string) {
	t.c.Delete(key)
}

func (t *TTL) Len() int {
	return t.c.Len()
}

// Start purge les entrées expirées en tâche de fond jusqu'à Stop.
func (t *TTL) Start() {
	go t.c.Start()
}

func (t *TTL) Stop() {
	t.c.Stop()
}

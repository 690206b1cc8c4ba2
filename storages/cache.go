package storages

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db/kvdb"
)

const DefaultCatalogueCacheTTL = 30 * time.Minute

// CatalogueCache keeps the catalogue listing in the KV DB so page views
// do not list the bucket on every request
type CatalogueCache struct {
	KV    kvdb.Client
	Files FileStore // nil serves the samples
	Key   string
	TTL   time.Duration
}

func (c *CatalogueCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultCatalogueCacheTTL
	}
	return c.TTL
}

// Get serves the cached listing, refreshing it when missing or unreadable
func (c *CatalogueCache) Get(ctx context.Context) ([]catalog.Catalogue, error) {
	if c.KV != nil {
		raw, found, err := c.KV.Get(ctx, c.Key)
		if err != nil {
			log.Printf("[WARN][STORAGE] catalogue cache read failed: %v", err)
		} else if found {
			var cached []catalog.Catalogue
			if err = json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			log.Printf("[WARN][STORAGE] discarding corrupt catalogue cache: %v", err)
		}
	}
	return c.Refresh(ctx)
}

// Refresh lists the bucket and replaces the cached listing
func (c *CatalogueCache) Refresh(ctx context.Context) ([]catalog.Catalogue, error) {
	list, err := ListCatalogues(ctx, c.Files)
	if err != nil {
		return nil, err
	}
	if c.KV == nil {
		return list, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	if err = c.KV.Set(ctx, c.Key, string(raw), c.ttl()); err != nil {
		log.Printf("[WARN][STORAGE] catalogue cache write failed: %v", err)
	}
	return list, nil
}

// Invalidate drops the cached listing after an upload or delete
func (c *CatalogueCache) Invalidate(ctx context.Context) {
	if c.KV == nil {
		return
	}
	if _, err := c.KV.Delete(ctx, c.Key); err != nil {
		log.Printf("[WARN][STORAGE] catalogue cache invalidation failed: %v", err)
	}
}

package throttle

import (
	"sync"
	"time"
)

type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets *sync.Map // K -> *Bucket[K]
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket[K], bool) {
	bAny, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return bAny.(*Bucket[K]), true
}

// LoadOrCreateBucket returns the bucket of id, creating a full one when absent.
// Concurrent first requests of the same id share a single bucket.
func (g *BucketGroup[K]) LoadOrCreateBucket(id K, now time.Time) *Bucket[K] {
	if b, ok := g.GetBucket(id); ok {
		return b
	}
	bAny, _ := g.buckets.LoadOrStore(id, &Bucket[K]{
		tokens:      g.conf.Burst,
		lastCheck:   now,
		parentGroup: g,
	})
	return bAny.(*Bucket[K])
}

func (g *BucketGroup[K]) cleanup(olderThan time.Duration, now time.Time, onRemove func(id any)) int {
	n := 0
	g.buckets.Range(func(id, value any) bool {
		if now.Sub(value.(*Bucket[K]).idleSince()) > olderThan {
			g.buckets.Delete(id)
			n++
			if onRemove != nil {
				onRemove(id)
			}
		}
		return true // continue iteration
	})
	return n
}

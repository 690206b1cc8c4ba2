//go:build debug

package throttle

import (
	"log"
	"time"
)

func (s *BucketStore[K]) Cleanup(now time.Time) int {
	log.Printf("[DEBUG][Throttle] cleaning buckets older than %v at %v", s.cleanupOlderThan, now)
	n := 0
	for gid, g := range s.snapshotGroups() {
		n += g.cleanup(s.cleanupOlderThan, now, func(id any) {
			log.Printf("[DEBUG][Throttle] expired bucket %v removed from %q", id, gid)
		})
	}
	log.Printf("[DEBUG][Throttle] %d buckets cleaned up", n)
	return n
}

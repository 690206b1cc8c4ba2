//go:build !debug

package throttle

import (
	"time"
)

// Cleanup drops buckets idle longer than the configured age and returns how many went
func (s *BucketStore[K]) Cleanup(now time.Time) int {
	n := 0
	for _, g := range s.snapshotGroups() {
		n += g.cleanup(s.cleanupOlderThan, now, nil)
	}
	return n
}

package throttle

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ecogroup/ecgsite/responses"
)

// Wrapper rejects requests over the group's rate with 429.
// It satisfies routing.HandlerWrapper.
type Wrapper[K comparable] struct {
	Store   *BucketStore[K]
	GroupID string
	KeyOf   func(r *http.Request) K
	Now     func() time.Time
}

func (tw *Wrapper[K]) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		if tw.Now != nil {
			now = tw.Now()
		}
		key := tw.KeyOf(r)
		if !tw.Store.Allow(tw.GroupID, key, now) {
			wait := tw.Store.RetryAfter(tw.GroupID, key, now)
			if wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			log.Printf("[WARN][Throttle] %q throttled in %q", any(key), tw.GroupID)
			responses.WriteErrorJSON(w, http.StatusTooManyRequests, responses.CodeThrottled, "too many requests, try again later")
			return
		}
		inner.ServeHTTP(w, r)
	})
}

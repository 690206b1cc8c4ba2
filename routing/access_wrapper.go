package routing

import (
	"log"
	"net/http"
	"time"

	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/rw"
)

// AccessLog logs one line per request with status, size and duration
var AccessLog = HandlerWrapperFunc(AccessLogWrapper)

func AccessLogWrapper(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := rw.NewStatusWriter(w)
		inner.ServeHTTP(sw, r)
		log.Printf("[INFO][HTTP] %s %s %d %dB %s %s",
			r.Method, r.URL.Path, sw.Status(), sw.BytesWritten(), time.Since(start).Round(time.Microsecond), requests.GetClientIP(r))
	})
}

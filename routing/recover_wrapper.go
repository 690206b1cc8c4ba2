package routing

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/ecogroup/ecgsite/responses"
)

// Recover turns a handler panic into a JSON 500
var Recover = HandlerWrapperFunc(RecoverWrapper)

func RecoverWrapper(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("[PANIC] %s %s recovered: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		inner.ServeHTTP(w, r)
	})
}

package routing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagWrapper(tag string, trace *[]string) HandlerWrapper {
	return HandlerWrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, tag)
			inner.ServeHTTP(w, r)
		})
	})
}

func TestGroupWrapperOrder(t *testing.T) {
	var trace []string
	router := NewBaseRouter()
	router.Group("/api/", func(api *RouteGroup) {
		api.HandleFunc("GET ping", func(w http.ResponseWriter, r *http.Request) {
			trace = append(trace, "handler")
		}, tagWrapper("route", &trace))
		api.Group("admin/", func(admin *RouteGroup) {
			admin.HandleFunc("GET stats", func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, "stats")
			})
		}, tagWrapper("admin", &trace))
	}, tagWrapper("group", &trace))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, []string{"group", "route", "handler"}, trace)

	trace = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, []string{"group", "admin", "stats"}, trace)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSiblingGroupsDoNotShareWrappers(t *testing.T) {
	var trace []string
	router := NewBaseRouter()
	parent := &RouteGroup{Router: router, Prefix: "/x/", HandlerWrappers: make([]HandlerWrapper, 1, 4)}
	parent.HandlerWrappers[0] = tagWrapper("p", &trace)
	parent.Group("a/", func(a *RouteGroup) {
		a.HandleFunc("GET h", func(w http.ResponseWriter, r *http.Request) {})
	}, tagWrapper("a", &trace))
	parent.Group("b/", func(b *RouteGroup) {
		b.HandleFunc("GET h", func(w http.ResponseWriter, r *http.Request) {})
	}, tagWrapper("b", &trace))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/a/h", nil))
	assert.Equal(t, []string{"p", "a"}, trace)
}

func TestRecoverWrapper(t *testing.T) {
	router := NewBaseRouter()
	router.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, Recover, AccessLog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "internal server error"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

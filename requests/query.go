package requests

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryBool reads a flag from the query string; absent or unparsable values yield def
func QueryBool(r *http.Request, name string, def bool) bool {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// QueryInt reads a non-negative integer; anything else yields def
func QueryInt(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

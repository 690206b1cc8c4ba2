package web

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/responses"
	"github.com/ecogroup/ecgsite/storages"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errBadCredentials  = errors.New("invalid username or password")
	errNoFileStore     = errors.New("file storage is not configured")
)

// writeError maps domain errors onto HTTP statuses; anything unknown is a logged 500
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, storages.ErrNotFound):
		responses.WriteErrorJSON(w, http.StatusNotFound, responses.CodeNotFound, "not found")
	case errors.Is(err, catalog.ErrInvalid), errors.Is(err, requests.ErrBadJSON), errors.Is(err, storages.ErrInvalidPath):
		responses.WriteErrorJSON(w, http.StatusBadRequest, responses.CodeInvalidInput, err.Error())
	case errors.Is(err, errUnauthenticated), errors.Is(err, errBadCredentials):
		responses.WriteErrorJSON(w, http.StatusUnauthorized, responses.CodeUnauthorized, err.Error())
	case errors.Is(err, errNoFileStore):
		responses.WriteErrorJSON(w, http.StatusServiceUnavailable, responses.CodeUpstream, err.Error())
	case errors.Is(err, context.Canceled):
		log.Printf("[INFO][WEB] %s %s: client went away", r.Method, r.URL.Path)
	default:
		log.Printf("[ERROR][WEB] %s %s: %v", r.Method, r.URL.Path, err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

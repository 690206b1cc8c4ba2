package responses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ecogroup/ecgsite/requests"
)

// EchoHandler reports the request as the server sees it behind the proxy:
// resolved client IP, negotiated language and the decoded body.
type EchoHandler struct {
	MaxMemoryMB int64
	Language    func(r *http.Request) string
}

func (h *EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resPayload := map[string]any{
		"url":       requests.FullURL(r),
		"method":    r.Method,
		"header":    r.Header,
		"client_ip": requests.GetClientIP(r),
	}
	if h.Language != nil {
		resPayload["language"] = h.Language(r)
	}

	if !requests.HasBody(r) {
		EncodeWriteJSON(w, http.StatusOK, resPayload)
		return
	}

	defer func() {
		if closeErr := r.Body.Close(); closeErr != nil {
			log.Printf("[ERROR] %v", closeErr)
		}
	}()

	rBodyBytes, err := io.ReadAll(io.LimitReader(r.Body, requests.MaxJSONBodyBytes))
	if err != nil {
		WriteSimpleErrorJSON(w, http.StatusInternalServerError, fmt.Sprintf("Failed to Read Data: %v", err))
		return
	}

	rBodyPayload := map[string]any{"raw": string(rBodyBytes)}
	r.Body = io.NopCloser(bytes.NewReader(rBodyBytes))

	rContentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(rContentType, "application/json"):
		if json.Valid(rBodyBytes) {
			rBodyPayload["json"] = json.RawMessage(rBodyBytes)
		}
	case strings.HasPrefix(rContentType, "application/x-www-form-urlencoded"):
		if err = r.ParseForm(); err == nil {
			rBodyPayload["form"] = r.PostForm
		} else {
			rBodyPayload["form_error"] = err.Error()
		}
	case strings.HasPrefix(rContentType, "multipart/form-data"):
		if err = r.ParseMultipartForm(h.MaxMemoryMB << 20); err == nil {
			rBodyPayload["form"] = r.PostForm
			rBodyPayload["files"] = r.MultipartForm.File
		} else {
			rBodyPayload["form_error"] = err.Error()
		}
	}
	resPayload["body"] = rBodyPayload
	EncodeWriteJSON(w, http.StatusOK, resPayload)
}

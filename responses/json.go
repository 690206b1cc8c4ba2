package responses

import (
	"encoding/json"
	"log"
	"net/http"
)

// EncodeWriteJSON Encode & Write Payload as JSON Stream to the Response
func EncodeWriteJSON(w http.ResponseWriter, HTTPStatusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusCode) // Response Header Sent & Frozen
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ERROR] failed to write JSON Stream to Response: %v", err)
	}
}

// WriteSimpleErrorJSON is a helper func same as EncodeWriteJSON
// but wrapping a string message into a simple Message without app logic code
func WriteSimpleErrorJSON(w http.ResponseWriter, HTTPStatusCode int, msg string) {
	payload := Message{Type: "error", Message: msg}
	EncodeWriteJSON(w, HTTPStatusCode, payload)
}

// WriteErrorJSON writes a Message carrying an application-level code
func WriteErrorJSON(w http.ResponseWriter, HTTPStatusCode int, code int, msg string) {
	EncodeWriteJSON(w, HTTPStatusCode, Message{Type: "error", Message: msg, Code: code})
}

// WriteOK acknowledges a write without a payload
func WriteOK(w http.ResponseWriter, msg string) {
	EncodeWriteJSON(w, http.StatusOK, Message{Type: "ok", Message: msg})
}

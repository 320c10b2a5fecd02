package server

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every API answer. Failures are reported via
// Success and Error rather than the status code.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeFailure(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, Response{Success: false, Error: err.Error()})
}

package middleware

import (
	"encoding/json"
	"net/http"

	"mindconnect/internal/logging"
)

type errorResponse struct {
	RequestID string        `json:"requestId,omitempty"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, errorResponse{
		RequestID: logging.RequestID(r.Context()),
		Error:     responseError{Code: code, Message: message},
	})
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

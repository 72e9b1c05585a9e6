package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SuccessEnvelope wraps successful responses whose payload lives under a
// caller-chosen key.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Success: false,
		Message: message,
	})
}

func WriteCodedError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func WriteSuccess(w http.ResponseWriter, status int, data any) error {
	return WriteJSON(w, status, &SuccessEnvelope{
		Success: true,
		Data:    data,
	})
}

package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// Every endpoint answers with the same envelope:
//   success: {"success": true, "data": ..., "message": "..."}
//   error:   {"success": false, "error": {"code": "...", "message": "...", "details": ...}}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
		"message": message,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}

func WriteValidationError(w http.ResponseWriter, message string, details interface{}) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"success": false,
		"error":   errorBody{Code: "VALIDATION_ERROR", Message: message, Details: details},
	})
}

func WriteUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "FORBIDDEN", message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "NOT_FOUND", message)
}

// WriteServerError logs the underlying cause and returns a sanitized message.
func WriteServerError(w http.ResponseWriter, message string, err error) {
	if err != nil {
		log.Printf("%s: %v", message, err)
	}
	WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", message)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"galry/internal/logging"
)

// writeJSON encodes v onto w. Headers must already be set.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encode JSON response: %v", err)
	}
}

// writeJSONStatus writes {key: value} with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, key, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{key: value})
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, "error", message)
}

func writeJSONStatusCode(w http.ResponseWriter, status string, statusCode int) {
	writeJSONStatus(w, statusCode, "status", status)
}

// Package httputil centralizes JSON response writing so every handler
// produces the same envelopes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "passgate/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders a coded error as a JSON envelope. Internal errors omit
// the description so implementation detail never reaches the caller.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if de, ok := err.(*dErrors.Error); ok && code != dErrors.CodeInternal {
		body["error_description"] = de.Message
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps domain error codes to HTTP statuses.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

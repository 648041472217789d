// Package shared centralizes JSON response writing so every handler produces
// the same envelopes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "lifeline/pkg/domain-errors"
)

// WriteJSON writes v with the given status. Encoding failures surface only in
// logs upstream; headers are already gone at that point.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a domain error into its HTTP status and a stable JSON
// error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, statusFor(code), errorBody{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

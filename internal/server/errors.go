package server

import (
	"encoding/json"
	"net/http"

	"github.com/rohankatakam/repograde/internal/errors"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError maps err to its status code and writes it. Internal failures
// hide their cause from the client.
func WriteError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)

	msg := "internal server error"
	if e, ok := errors.As(err); ok && kind != errors.KindInternal {
		msg = e.Message
	}

	WriteJSON(w, ErrorResponse{Error: msg, Kind: kind.String()}, StatusFor(kind))
}

// StatusFor maps an error kind to an HTTP status code
func StatusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest // 400
	case errors.KindRemoteNotFound:
		return http.StatusNotFound // 404
	case errors.KindRemoteUnauthorized:
		return http.StatusUnauthorized // 401
	case errors.KindRemoteAPI:
		return http.StatusBadGateway // 502
	case errors.KindModelUnavailable:
		return http.StatusServiceUnavailable // 503
	case errors.KindMalformedOutput:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// MethodNotAllowed writes a 405 naming the accepted method
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	WriteJSON(w, ErrorResponse{Error: "method not allowed", Kind: "method_not_allowed"}, http.StatusMethodNotAllowed)
}
